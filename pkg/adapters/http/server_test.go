package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/dona/internal/testutils"
	"github.com/aretw0/dona/pkg/adapters/memory"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/aretw0/dona/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, repo ports.TaskRepository, opts ...Option) (http.Handler, *tasks.Store) {
	t.Helper()
	store := tasks.NewStore(repo)
	server := NewServer(store, opts...)
	t.Cleanup(server.Close)

	handler, err := server.Handler()
	require.NoError(t, err)
	return handler, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "dona", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/tasks/{id}"))
}

func TestTasksAPI_Scenario(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewStore())

	w := do(t, h, "POST", "/tasks", map[string]any{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	milk := decode[Task](t, w)
	assert.Equal(t, "/tasks/"+milk.Id, w.Header().Get("Location"))
	assert.False(t, milk.IsStarred)

	w = do(t, h, "POST", "/tasks", map[string]any{"title": "Call mom", "is_starred": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mom := decode[Task](t, w)
	assert.True(t, mom.IsStarred)

	w = do(t, h, "GET", "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]Task](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, mom.Id, list[0].Id, "newest first")

	w = do(t, h, "POST", "/tasks/"+milk.Id+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[Task](t, w).IsCompleted)

	w = do(t, h, "DELETE", "/tasks/"+mom.Id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/tasks", nil)
	list = decode[[]Task](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, milk.Id, list[0].Id)
	assert.True(t, list[0].IsCompleted)
}

func TestTasksAPI_Update(t *testing.T) {
	h, store := newTestHandler(t, memory.NewStore())
	task, err := store.Create(context.Background(), "Buy milk", false)
	require.NoError(t, err)

	w := do(t, h, "PUT", "/tasks/"+task.ID.String(), map[string]any{"title": "Buy oat milk", "is_starred": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[Task](t, w)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.True(t, got.IsStarred)
	assert.True(t, task.Timestamp.Equal(got.Timestamp))

	w = do(t, h, "GET", "/tasks/"+task.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Buy oat milk", decode[Task](t, w).Title)
}

func TestTasksAPI_Errors(t *testing.T) {
	h, store := newTestHandler(t, memory.NewStore())
	task, err := store.Create(context.Background(), "Buy milk", false)
	require.NoError(t, err)
	unknown := "3f1c1f36-0f5e-4a53-9a55-9b1f0e6c1a01"

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty title", "POST", "/tasks", map[string]any{"title": "   "}, http.StatusUnprocessableEntity},
		{"missing title", "POST", "/tasks", map[string]any{"is_starred": true}, http.StatusBadRequest},
		{"wrong type", "POST", "/tasks", map[string]any{"title": 42}, http.StatusBadRequest},
		{"empty edit", "PUT", "/tasks/" + task.ID.String(), map[string]any{"title": ""}, http.StatusUnprocessableEntity},
		{"update unknown", "PUT", "/tasks/" + unknown, map[string]any{"title": "x"}, http.StatusNotFound},
		{"get unknown", "GET", "/tasks/" + unknown, nil, http.StatusNotFound},
		{"toggle unknown", "POST", "/tasks/" + unknown + "/toggle", nil, http.StatusNotFound},
		{"delete unknown", "DELETE", "/tasks/" + unknown, nil, http.StatusNoContent},
		{"malformed id", "GET", "/tasks/not-a-uuid", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want >= 400 {
				assert.NotEmpty(t, decode[Error](t, w).Error)
			}
		})
	}

	got, err := store.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title, "rejected edits keep the prior title")
}

func TestTasksAPI_CommitFailure(t *testing.T) {
	h, _ := newTestHandler(t, testutils.NewReadOnlyRepository(nil))

	w := do(t, h, "POST", "/tasks", map[string]any{"title": "Buy milk"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode[Error](t, w).Error, domain.ErrCommitFailed.Error())
}

func TestMiscEndpoints(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dona_tasks 0\n"))
	})
	h, _ := newTestHandler(t, memory.NewStore(), WithVersion("1.2.3"), WithMetricsHandler(metrics))

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = do(t, h, "GET", "/info", nil)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = do(t, h, "GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, "dona_tasks 0\n", w.Body.String())

	w = do(t, h, "OPTIONS", "/tasks", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	h, store := newTestHandler(t, memory.NewStore())
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		return ""
	}

	require.Equal(t, "connected", next())

	task, err := store.Create(ctx, "Buy milk", false)
	require.NoError(t, err)

	var ev struct {
		Type string `json:"type"`
		Task Task   `json:"task"`
	}
	require.NoError(t, json.Unmarshal([]byte(next()), &ev))
	assert.Equal(t, "created", ev.Type)
	assert.Equal(t, task.ID.String(), ev.Task.Id)
}

func TestStreamManager_Topics(t *testing.T) {
	sm := NewStreamManager(slogDiscard())

	all, cancelAll := sm.Subscribe("")
	defer cancelAll()
	one, cancelOne := sm.Subscribe("task-1")

	sm.Broadcast("task-1", "a")
	sm.Broadcast("task-2", "b")

	assert.Equal(t, "a", <-all)
	assert.Equal(t, "b", <-all)
	assert.Equal(t, "a", <-one)
	assert.Empty(t, one)

	cancelOne()
	cancelOne()
	_, open := <-one
	assert.False(t, open)
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
