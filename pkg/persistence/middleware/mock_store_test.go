package middleware_test

import (
	"context"
	"errors"

	"github.com/aretw0/dona/pkg/domain"
)

var errBackend = errors.New("backend unavailable")

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[domain.TaskID]domain.Task
	fail bool
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[domain.TaskID]domain.Task),
	}
}

func (s *MockStore) Save(ctx context.Context, task domain.Task) error {
	if s.fail {
		return errBackend
	}
	s.data[task.ID] = task
	return nil
}

func (s *MockStore) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	task, ok := s.data[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, nil
}

func (s *MockStore) Delete(ctx context.Context, id domain.TaskID) error {
	if s.fail {
		return errBackend
	}
	delete(s.data, id)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]domain.Task, error) {
	if s.fail {
		return nil, errBackend
	}
	out := make([]domain.Task, 0, len(s.data))
	for _, task := range s.data {
		out = append(out, task)
	}
	return out, nil
}
