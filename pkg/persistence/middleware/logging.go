package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.TaskRepository
	logger *slog.Logger
}

// NewLoggingMiddleware logs every repository call at debug level and failures at warn.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.TaskRepository) ports.TaskRepository {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "duration", time.Since(start))
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		m.logger.WarnContext(ctx, "Repository operation failed", append(attrs, "err", err)...)
		return
	}
	m.logger.DebugContext(ctx, "Repository operation", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, task domain.Task) error {
	start := time.Now()
	err := m.next.Save(ctx, task)
	m.log(ctx, "save", start, err, "task_id", task.ID)
	return err
}

func (m *loggingMiddleware) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	start := time.Now()
	task, err := m.next.Get(ctx, id)
	m.log(ctx, "get", start, err, "task_id", id)
	return task, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, id domain.TaskID) error {
	start := time.Now()
	err := m.next.Delete(ctx, id)
	m.log(ctx, "delete", start, err, "task_id", id)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]domain.Task, error) {
	start := time.Now()
	tasks, err := m.next.List(ctx)
	m.log(ctx, "list", start, err, "count", len(tasks))
	return tasks, err
}
