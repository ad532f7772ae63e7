package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/dona/pkg/domain"
	driver "github.com/go-sql-driver/mysql"
)

// Store implements ports.TaskRepository on a MySQL (or MariaDB) table.
type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS tasks (
    id VARCHAR(64) PRIMARY KEY,
    title TEXT NOT NULL,
    created_at DATETIME(6) NOT NULL,
    is_starred BOOLEAN NOT NULL DEFAULT FALSE,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    INDEX idx_tasks_created_at (created_at)
)`

// NormalizeDSN forces the driver options the store relies on:
// DATETIME columns scanned into time.Time, in UTC.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// Open connects to MySQL, verifies the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach mysql: %w", err)
	}
	return openDB(ctx, db)
}

// openDB migrates the schema on an already connected pool and takes
// ownership of it.
func openDB(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return nil
}

// Save inserts the task or replaces the row with the same ID.
func (s *Store) Save(ctx context.Context, task domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, created_at, is_starred, is_completed)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE title = VALUES(title), is_starred = VALUES(is_starred), is_completed = VALUES(is_completed)`,
		string(task.ID), task.Title, task.Timestamp.UTC(), task.IsStarred, task.IsCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// Get retrieves a task by ID.
func (s *Store) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, is_starred, is_completed FROM tasks WHERE id = ?`, string(id))
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return task, nil
}

// Delete removes the row; a missing row is not an error.
func (s *Store) Delete(ctx context.Context, id domain.TaskID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// List returns every task, newest first.
func (s *Store) List(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, is_starred, is_completed FROM tasks ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (domain.Task, error) {
	var (
		task domain.Task
		id   string
	)
	if err := row.Scan(&id, &task.Title, &task.Timestamp, &task.IsStarred, &task.IsCompleted); err != nil {
		return domain.Task{}, err
	}
	task.ID = domain.TaskID(id)
	task.Timestamp = task.Timestamp.UTC()
	return task, nil
}
