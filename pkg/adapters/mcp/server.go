package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/dona/internal/logging"
	"github.com/aretw0/dona/internal/presentation/tui"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TasksURI is the resource listing every task as markdown.
const TasksURI = "dona://tasks"

// TaskService defines the Task Store operations exposed as MCP tools.
type TaskService interface {
	Create(ctx context.Context, title string, starred bool) (domain.Task, error)
	Update(ctx context.Context, id domain.TaskID, title string, starred bool) (domain.Task, error)
	Rename(ctx context.Context, id domain.TaskID, title string) (domain.Task, error)
	ToggleCompleted(ctx context.Context, id domain.TaskID) (domain.Task, error)
	Delete(ctx context.Context, id domain.TaskID) error
	List(ctx context.Context) ([]domain.Task, error)
}

// TaskResult is the structured output of tools returning a single task.
type TaskResult struct {
	Task domain.Task `json:"task" jsonschema_description:"The task after the operation"`
}

// TaskListResult is the structured output of list_tasks.
type TaskListResult struct {
	Tasks []domain.Task `json:"tasks" jsonschema_description:"All tasks, newest first"`
}

// DeleteResult is the structured output of delete_task.
type DeleteResult struct {
	ID      domain.TaskID `json:"id"`
	Deleted bool          `json:"deleted" jsonschema_description:"Always true; deleting an unknown task is not an error"`
}

// ListArgs are the arguments of list_tasks.
type ListArgs struct {
	IncludeCompleted *bool `json:"include_completed,omitempty"`
	StarredOnly      bool  `json:"starred_only,omitempty"`
}

// CreateArgs are the arguments of create_task.
type CreateArgs struct {
	Title     string `json:"title"`
	IsStarred bool   `json:"is_starred,omitempty"`
}

// UpdateArgs are the arguments of update_task.
type UpdateArgs struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	IsStarred *bool  `json:"is_starred,omitempty"`
}

// IDArgs are the arguments of tools addressing one task.
type IDArgs struct {
	ID string `json:"id"`
}

// Server exposes the Task Store as an MCP Server.
type Server struct {
	tasks     TaskService
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(tasks TaskService, version string, opts ...Option) *Server {
	s := &Server{
		tasks:     tasks,
		mcpServer: server.NewMCPServer("dona-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", s.corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", s.corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_tasks
	s.mcpServer.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, newest first."),
		mcp.WithBoolean("include_completed", mcp.Description("Include completed tasks (default true)")),
		mcp.WithBoolean("starred_only", mcp.Description("Only return starred tasks")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOutputSchema[TaskListResult](),
	), mcp.NewStructuredToolHandler(s.handleList))

	// TOOL: create_task
	s.mcpServer.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task. Empty titles are rejected."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task text")),
		mcp.WithBoolean("is_starred", mcp.Description("Mark the task as starred")),
		mcp.WithOutputSchema[TaskResult](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	// TOOL: update_task
	s.mcpServer.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Replace the title (and optionally the star flag) of a task. Creation time and completion are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New task text")),
		mcp.WithBoolean("is_starred", mcp.Description("New star flag (unchanged when omitted)")),
		mcp.WithOutputSchema[TaskResult](),
	), mcp.NewStructuredToolHandler(s.handleUpdate))

	// TOOL: toggle_completed
	s.mcpServer.AddTool(mcp.NewTool("toggle_completed",
		mcp.WithDescription("Flip the completion flag of a task."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithOutputSchema[TaskResult](),
	), mcp.NewStructuredToolHandler(s.handleToggle))

	// TOOL: delete_task
	s.mcpServer.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task. Deleting an unknown task succeeds."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOutputSchema[DeleteResult](),
	), mcp.NewStructuredToolHandler(s.handleDelete))
}

// Handler methods for structured tools

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args ListArgs) (TaskListResult, error) {
	all, err := s.tasks.List(ctx)
	if err != nil {
		return TaskListResult{}, fmt.Errorf("list failed: %w", err)
	}

	includeCompleted := args.IncludeCompleted == nil || *args.IncludeCompleted
	out := make([]domain.Task, 0, len(all))
	for _, task := range all {
		if !includeCompleted && task.IsCompleted {
			continue
		}
		if args.StarredOnly && !task.IsStarred {
			continue
		}
		out = append(out, task)
	}
	return TaskListResult{Tasks: out}, nil
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args CreateArgs) (TaskResult, error) {
	task, err := s.tasks.Create(ctx, args.Title, args.IsStarred)
	if err != nil {
		s.logFailure("create_task", err)
		return TaskResult{}, err
	}
	return TaskResult{Task: task}, nil
}

func (s *Server) handleUpdate(ctx context.Context, request mcp.CallToolRequest, args UpdateArgs) (TaskResult, error) {
	id := domain.TaskID(args.ID)

	var task domain.Task
	var err error
	if args.IsStarred != nil {
		task, err = s.tasks.Update(ctx, id, args.Title, *args.IsStarred)
	} else {
		task, err = s.tasks.Rename(ctx, id, args.Title)
	}
	if err != nil {
		s.logFailure("update_task", err)
		return TaskResult{}, err
	}
	return TaskResult{Task: task}, nil
}

func (s *Server) handleToggle(ctx context.Context, request mcp.CallToolRequest, args IDArgs) (TaskResult, error) {
	task, err := s.tasks.ToggleCompleted(ctx, domain.TaskID(args.ID))
	if err != nil {
		s.logFailure("toggle_completed", err)
		return TaskResult{}, err
	}
	return TaskResult{Task: task}, nil
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest, args IDArgs) (DeleteResult, error) {
	if args.ID == "" {
		return DeleteResult{}, errors.New("id is required")
	}
	if err := s.tasks.Delete(ctx, domain.TaskID(args.ID)); err != nil {
		s.logFailure("delete_task", err)
		return DeleteResult{}, err
	}
	return DeleteResult{ID: domain.TaskID(args.ID), Deleted: true}, nil
}

func (s *Server) logFailure(tool string, err error) {
	if errors.Is(err, domain.ErrCommitFailed) {
		s.logger.Error("MCP tool failed", "tool", tool, "err", err)
		return
	}
	s.logger.Debug("MCP tool rejected", "tool", tool, "err", err)
}

func (s *Server) registerResources() {
	// EXPOSE: dona://tasks
	s.mcpServer.AddResource(mcp.NewResource(TasksURI, "Task list",
		mcp.WithResourceDescription("All tasks as a markdown checklist, newest first"),
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		all, err := s.tasks.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TasksURI,
				MIMEType: "text/markdown",
				Text:     tui.Markdown(all),
			},
		}, nil
	})

	// EXPOSE: dona://tasks.json
	s.mcpServer.AddResource(mcp.NewResource(TasksURI+".json", "Task list (JSON)",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		all, err := s.tasks.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		jsonBytes, _ := json.Marshal(all)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TasksURI + ".json",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
