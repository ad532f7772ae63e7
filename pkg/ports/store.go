package ports

import (
	"context"

	"github.com/aretw0/dona/pkg/domain"
)

// TaskRepository defines the interface for persisting Task records.
// Every method is a single committed unit: when a write returns nil the change
// is durable (as durable as the backend allows).
type TaskRepository interface {
	// Save inserts the task or replaces the record with the same ID.
	Save(ctx context.Context, task domain.Task) error

	// Get retrieves a task by ID.
	// Returns domain.ErrTaskNotFound if the task does not exist.
	Get(ctx context.Context, id domain.TaskID) (domain.Task, error)

	// Delete removes a task. Deleting a missing task is not an error.
	Delete(ctx context.Context, id domain.TaskID) error

	// List returns every live task in no particular order.
	List(ctx context.Context) ([]domain.Task, error)
}
