package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/dona/pkg/domain"
)

// Store implements ports.TaskRepository using the local filesystem.
// It stores each task as a JSON file in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".dona/tasks".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".dona", "tasks")
	}
	return &Store{BasePath: basePath}
}

var errInvalidID = errors.New("invalid task id")

func (s *Store) path(id domain.TaskID) (string, error) {
	raw := string(id)
	if raw == "" || raw == "." || raw == ".." || strings.ContainsAny(raw, `/\`) {
		return "", fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return filepath.Join(s.BasePath, raw+".json"), nil
}

// Save persists the task to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, task domain.Task) error {
	destPath, err := s.path(task.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure task directory: %w", err)
	}

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+string(task.ID)+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing task file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Get retrieves the task from its JSON file.
func (s *Store) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	filePath, err := s.path(id)
	if err != nil {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return readTask(filePath)
}

func readTask(filePath string) (domain.Task, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, fmt.Errorf("failed to read task file: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return domain.Task{}, fmt.Errorf("failed to unmarshal task %s: %w", filepath.Base(filePath), err)
	}

	return task, nil
}

// Delete removes the task file.
func (s *Store) Delete(ctx context.Context, id domain.TaskID) error {
	filePath, err := s.path(id)
	if err != nil {
		return nil // nothing by that name can exist
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete task file: %w", err)
	}

	return nil
}

// List returns every task stored in the directory.
func (s *Store) List(ctx context.Context) ([]domain.Task, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Task{}, nil
		}
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		task, err := readTask(filepath.Join(s.BasePath, name))
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				continue // deleted between ReadDir and ReadFile
			}
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}
