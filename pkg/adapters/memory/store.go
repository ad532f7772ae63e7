package memory

import (
	"context"
	"sync"

	"github.com/aretw0/dona/pkg/domain"
)

// Store implements ports.TaskRepository in memory.
// Safe for concurrent use. Nothing survives the process.
type Store struct {
	data map[domain.TaskID]domain.Task
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.TaskID]domain.Task),
	}
}

// Save persists the task in memory.
func (s *Store) Save(ctx context.Context, task domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[task.ID] = task
	return nil
}

// Get retrieves the task from memory.
func (s *Store) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.data[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, nil
}

// Delete removes the task.
func (s *Store) Delete(ctx context.Context, id domain.TaskID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns all tasks.
func (s *Store) List(ctx context.Context) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(s.data))
	for _, task := range s.data {
		tasks = append(tasks, task)
	}
	return tasks, nil
}
