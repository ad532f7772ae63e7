package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
)

// MockRepository is an in-memory implementation of TaskRepository for testing purposes.
type MockRepository struct {
	mu   sync.Mutex
	data map[domain.TaskID]domain.Task
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		data: make(map[domain.TaskID]domain.Task),
	}
}

func (m *MockRepository) Save(ctx context.Context, task domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[task.ID] = task
	return nil
}

func (m *MockRepository) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.data[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, nil
}

func (m *MockRepository) Delete(ctx context.Context, id domain.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MockRepository) List(ctx context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Task, 0, len(m.data))
	for _, task := range m.data {
		out = append(out, task)
	}
	return out, nil
}

func TestTaskRepository_Contract(t *testing.T) {
	// The contract suite must hold for the simplest possible implementation
	// before it is trusted against real adapters.
	ports.RunTaskRepositoryContract(t, NewMockRepository())
}
