package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	donamcp "github.com/aretw0/dona/pkg/adapters/mcp"
	"github.com/aretw0/dona/internal/testutils"
	"github.com/aretw0/dona/pkg/adapters/memory"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/aretw0/dona/pkg/tasks"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, repo ports.TaskRepository) (*donamcp.Server, *tasks.Store) {
	t.Helper()
	store := tasks.NewStore(repo)
	return donamcp.NewServer(store, "test"), store
}

func call(t *testing.T, s *donamcp.Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.MCPServer().GetTool(name)
	require.NotNil(t, tool, "tool %s not registered", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func errorText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func TestServer_RegistersTools(t *testing.T) {
	s, _ := newServer(t, memory.NewStore())

	tools := s.MCPServer().ListTools()
	for _, name := range []string{"list_tasks", "create_task", "update_task", "toggle_completed", "delete_task"} {
		assert.Contains(t, tools, name)
	}
	assert.True(t, *tools["list_tasks"].Tool.Annotations.ReadOnlyHint)
}

func TestServer_TaskLifecycle(t *testing.T) {
	s, store := newServer(t, memory.NewStore())
	ctx := context.Background()

	res := call(t, s, "create_task", map[string]any{"title": "  Buy milk ", "is_starred": true})
	require.False(t, res.IsError, errorText(res))
	created := res.StructuredContent.(donamcp.TaskResult).Task
	assert.Equal(t, "Buy milk", created.Title)
	assert.True(t, created.IsStarred)

	res = call(t, s, "toggle_completed", map[string]any{"id": string(created.ID)})
	require.False(t, res.IsError, errorText(res))
	assert.True(t, res.StructuredContent.(donamcp.TaskResult).Task.IsCompleted)

	// Omitting is_starred keeps the current flag.
	res = call(t, s, "update_task", map[string]any{"id": string(created.ID), "title": "Buy oat milk"})
	require.False(t, res.IsError, errorText(res))
	updated := res.StructuredContent.(donamcp.TaskResult).Task
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.True(t, updated.IsStarred)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, created.Timestamp, updated.Timestamp)

	res = call(t, s, "delete_task", map[string]any{"id": string(created.ID)})
	require.False(t, res.IsError, errorText(res))
	assert.Equal(t, donamcp.DeleteResult{ID: created.ID, Deleted: true}, res.StructuredContent)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// Deleting again is not an error.
	res = call(t, s, "delete_task", map[string]any{"id": string(created.ID)})
	assert.False(t, res.IsError)
}

func TestServer_ListFilters(t *testing.T) {
	s, store := newServer(t, memory.NewStore())
	ctx := context.Background()

	first, err := store.Create(ctx, "first", false)
	require.NoError(t, err)
	second, err := store.Create(ctx, "second", true)
	require.NoError(t, err)
	_, err = store.ToggleCompleted(ctx, first.ID)
	require.NoError(t, err)

	res := call(t, s, "list_tasks", nil)
	require.False(t, res.IsError, errorText(res))
	listed := res.StructuredContent.(donamcp.TaskListResult).Tasks
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID, "newest first")

	res = call(t, s, "list_tasks", map[string]any{"include_completed": false})
	listed = res.StructuredContent.(donamcp.TaskListResult).Tasks
	require.Len(t, listed, 1)
	assert.Equal(t, second.ID, listed[0].ID)

	res = call(t, s, "list_tasks", map[string]any{"starred_only": true})
	listed = res.StructuredContent.(donamcp.TaskListResult).Tasks
	require.Len(t, listed, 1)
	assert.True(t, listed[0].IsStarred)
}

func TestServer_Errors(t *testing.T) {
	s, _ := newServer(t, memory.NewStore())

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"empty title", "create_task", map[string]any{"title": "   "}, domain.ErrEmptyTitle.Error()},
		{"unknown toggle", "toggle_completed", map[string]any{"id": "nope"}, domain.ErrTaskNotFound.Error()},
		{"unknown update", "update_task", map[string]any{"id": "nope", "title": "x"}, domain.ErrTaskNotFound.Error()},
		{"missing id", "delete_task", map[string]any{}, "id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, errorText(res), tt.want)
		})
	}
}

func TestServer_CommitFailure(t *testing.T) {
	s, _ := newServer(t, testutils.NewReadOnlyRepository(nil))

	res := call(t, s, "create_task", map[string]any{"title": "Buy milk"})
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), domain.ErrCommitFailed.Error())
}

func TestServer_TasksResource(t *testing.T) {
	s, store := newServer(t, memory.NewStore())
	_, err := store.Create(context.Background(), "Buy milk", true)
	require.NoError(t, err)

	response := s.MCPServer().HandleMessage(context.Background(), []byte(`{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "resources/read",
		"params": {"uri": "dona://tasks"}
	}`))
	raw, err := json.Marshal(response)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Buy milk")
	assert.Contains(t, string(raw), "text/markdown")

	response = s.MCPServer().HandleMessage(context.Background(), []byte(`{
		"jsonrpc": "2.0",
		"id": 2,
		"method": "resources/read",
		"params": {"uri": "dona://tasks.json"}
	}`))
	raw, err = json.Marshal(response)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `is_starred`)
}
