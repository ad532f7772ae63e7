package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Task is the wire representation of domain.Task.
type Task struct {
	Id          string    `json:"id"`
	Title       string    `json:"title"`
	Timestamp   time.Time `json:"timestamp"`
	IsStarred   bool      `json:"is_starred"`
	IsCompleted bool      `json:"is_completed"`
}

// TaskInput is the body of createTask and updateTask.
type TaskInput struct {
	Title     string `json:"title"`
	IsStarred *bool  `json:"is_starred,omitempty"`
}

// Error is the body of every error response.
type Error struct {
	Error string `json:"error"`
}

// SubscribeEventsParams defines parameters for SubscribeEvents.
type SubscribeEventsParams struct {
	// TaskId restricts the stream to one task.
	TaskId *string `form:"task_id,omitempty" json:"task_id,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
	// (GET /tasks)
	ListTasks(w http.ResponseWriter, r *http.Request)
	// (POST /tasks)
	CreateTask(w http.ResponseWriter, r *http.Request)
	// (GET /tasks/{id})
	GetTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// (PUT /tasks/{id})
	UpdateTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// (DELETE /tasks/{id})
	DeleteTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// (POST /tasks/{id}/toggle)
	ToggleTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// (GET /events)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams)
}

// HandlerFromMux registers the API routes on r and returns it.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	w := &serverWrapper{handler: si}

	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/tasks", si.ListTasks)
	r.Post("/tasks", si.CreateTask)
	r.Get("/tasks/{id}", w.withTaskID(si.GetTask))
	r.Put("/tasks/{id}", w.withTaskID(si.UpdateTask))
	r.Delete("/tasks/{id}", w.withTaskID(si.DeleteTask))
	r.Post("/tasks/{id}/toggle", w.withTaskID(si.ToggleTask))
	r.Get("/events", w.SubscribeEvents)
	return r
}

type serverWrapper struct {
	handler ServerInterface
}

func (sw *serverWrapper) withTaskID(next func(http.ResponseWriter, *http.Request, openapi_types.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id openapi_types.UUID
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
			return
		}
		next(w, r, id)
	}
}

func (sw *serverWrapper) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var params SubscribeEventsParams
	err := runtime.BindQueryParameter("form", true, false, "task_id", r.URL.Query(), &params.TaskId)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter task_id: %s", err))
		return
	}
	sw.handler.SubscribeEvents(w, r, params)
}

func taskFromDomain(t domain.Task) Task {
	return Task{
		Id:          t.ID.String(),
		Title:       t.Title,
		Timestamp:   t.Timestamp,
		IsStarred:   t.IsStarred,
		IsCompleted: t.IsCompleted,
	}
}

func tasksFromDomain(ts []domain.Task) []Task {
	out := make([]Task, len(ts))
	for i, t := range ts {
		out[i] = taskFromDomain(t)
	}
	return out
}
