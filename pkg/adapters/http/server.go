package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/dona/internal/logging"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// TaskService defines the Task Store operations the API exposes.
type TaskService interface {
	Create(ctx context.Context, title string, starred bool) (domain.Task, error)
	Update(ctx context.Context, id domain.TaskID, title string, starred bool) (domain.Task, error)
	ToggleCompleted(ctx context.Context, id domain.TaskID) (domain.Task, error)
	Delete(ctx context.Context, id domain.TaskID) error
	Get(ctx context.Context, id domain.TaskID) (domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Subscribe(fn func(domain.ChangeEvent)) (unsubscribe func())
}

// Server implements ServerInterface over a Task Store.
type Server struct {
	Tasks   TaskService
	Streams *StreamManager

	logger      *slog.Logger
	version     string
	metrics     http.Handler
	unsubscribe func()
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates the API server and subscribes it to task changes.
// Call Close to drop the subscription.
func NewServer(tasks TaskService, opts ...Option) *Server {
	s := &Server{
		Tasks:   tasks,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	s.unsubscribe = tasks.Subscribe(s.broadcast)
	return s
}

// Close stops forwarding task changes to event streams.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Handler builds the HTTP handler, validating API requests against the OpenAPI document.
func (s *Server) Handler() (http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validator, err := requestValidator(doc, s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(validator)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	handler := HandlerFromMux(s, r)
	return enableCORS(handler), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>dona API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "dona-http",
		"version":     s.version,
		"api_version": apiVersion,
	})
}

// ListTasks handles the GET /tasks request.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.Tasks.List(r.Context())
	if err != nil {
		s.fail(w, "ListTasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasksFromDomain(tasks))
}

// CreateTask handles the POST /tasks request.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeInput(w, r, "CreateTask")
	if !ok {
		return
	}

	task, err := s.Tasks.Create(r.Context(), body.Title, starred(body))
	if err != nil {
		s.fail(w, "CreateTask", err)
		return
	}
	w.Header().Set("Location", "/tasks/"+task.ID.String())
	writeJSON(w, http.StatusCreated, taskFromDomain(task))
}

// GetTask handles the GET /tasks/{id} request.
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID) {
	task, err := s.Tasks.Get(r.Context(), taskID(id))
	if err != nil {
		s.fail(w, "GetTask", err)
		return
	}
	writeJSON(w, http.StatusOK, taskFromDomain(task))
}

// UpdateTask handles the PUT /tasks/{id} request.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID) {
	body, ok := s.decodeInput(w, r, "UpdateTask")
	if !ok {
		return
	}

	task, err := s.Tasks.Update(r.Context(), taskID(id), body.Title, starred(body))
	if err != nil {
		s.fail(w, "UpdateTask", err)
		return
	}
	writeJSON(w, http.StatusOK, taskFromDomain(task))
}

// DeleteTask handles the DELETE /tasks/{id} request.
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID) {
	if err := s.Tasks.Delete(r.Context(), taskID(id)); err != nil {
		s.fail(w, "DeleteTask", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask handles the POST /tasks/{id}/toggle request.
func (s *Server) ToggleTask(w http.ResponseWriter, r *http.Request, id openapi_types.UUID) {
	task, err := s.Tasks.ToggleCompleted(r.Context(), taskID(id))
	if err != nil {
		s.fail(w, "ToggleTask", err)
		return
	}
	writeJSON(w, http.StatusOK, taskFromDomain(task))
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request, op string) (TaskInput, bool) {
	var body TaskInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn(op+": Invalid request body", "err", err)
		return body, false
	}
	return body, true
}

// fail maps a store error onto a status code.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) broadcast(ev domain.ChangeEvent) {
	payload := struct {
		Type      domain.EventType `json:"type"`
		Task      Task             `json:"task"`
		Timestamp string           `json:"timestamp"`
	}{
		Type:      ev.Type,
		Task:      taskFromDomain(ev.Task),
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to encode change event", "err", err)
		return
	}
	s.Streams.Broadcast(ev.Task.ID.String(), string(data))
}

// -- Helpers --

func taskID(id openapi_types.UUID) domain.TaskID {
	return domain.TaskID(id.String())
}

func starred(body TaskInput) bool {
	return body.IsStarred != nil && *body.IsStarred
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Error{Error: msg})
}
