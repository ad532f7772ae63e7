package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/dona/internal/logging"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
)

// lockTTL bounds how long a crashed holder can block a task.
const lockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Store is the Task Store. It is safe for concurrent use.
type Store struct {
	repo ports.TaskRepository

	mu        sync.Mutex                   // guards locks and lastStamp
	locks     map[domain.TaskID]*lockEntry // per-task locks, reference counted
	lastStamp time.Time

	locker       ports.DistributedLocker // optional
	logger       *slog.Logger
	clock        func() time.Time
	maxTitleSize int

	subs *subscribers
}

// Option configures the Store.
type Option func(*Store)

// WithLocker enables distributed locking for read-modify-write operations.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Store) {
		s.locker = locker
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for creation timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithMaxTitleSize sets the title size limit in bytes (0 selects the default).
func WithMaxTitleSize(size int) Option {
	return func(s *Store) {
		s.maxTitleSize = size
	}
}

// NewStore creates a Task Store over the given repository.
func NewStore(repo ports.TaskRepository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		locks:  make(map[domain.TaskID]*lockEntry),
		logger: logging.NewNop(),
		clock:  time.Now,
		subs:   newSubscribers(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying repository.
func (s *Store) Repository() ports.TaskRepository {
	return s.repo
}

// Create adds a new task. An empty (after trimming) title creates nothing and
// returns domain.ErrEmptyTitle.
func (s *Store) Create(ctx context.Context, title string, starred bool) (domain.Task, error) {
	clean, err := domain.NormalizeTitle(title, s.maxTitleSize)
	if err != nil {
		return domain.Task{}, err
	}

	task := domain.NewTask(clean, starred, s.nextTimestamp())
	if err := s.repo.Save(ctx, task); err != nil {
		return domain.Task{}, s.commitFailed("create", task.ID, err)
	}

	s.logger.Debug("Task created", "task_id", task.ID, "starred", starred)
	s.subs.publish(domain.ChangeEvent{Type: domain.EventTaskCreated, Task: task, Timestamp: s.clock()})
	return task, nil
}

// Update replaces the title and star flag of an existing task.
// The creation timestamp and completion flag are left untouched.
// Empty titles are rejected with domain.ErrEmptyTitle; the prior title is kept.
func (s *Store) Update(ctx context.Context, id domain.TaskID, title string, starred bool) (domain.Task, error) {
	clean, err := domain.NormalizeTitle(title, s.maxTitleSize)
	if err != nil {
		return domain.Task{}, err
	}

	return s.mutate(ctx, "update", id, func(task *domain.Task) {
		task.Title = clean
		task.IsStarred = starred
	})
}

// Rename replaces the title of an existing task and keeps its star flag.
func (s *Store) Rename(ctx context.Context, id domain.TaskID, title string) (domain.Task, error) {
	clean, err := domain.NormalizeTitle(title, s.maxTitleSize)
	if err != nil {
		return domain.Task{}, err
	}

	return s.mutate(ctx, "rename", id, func(task *domain.Task) {
		task.Title = clean
	})
}

// ToggleCompleted flips the completion flag of a task.
func (s *Store) ToggleCompleted(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	return s.mutate(ctx, "toggle_completed", id, func(task *domain.Task) {
		task.IsCompleted = !task.IsCompleted
	})
}

func (s *Store) mutate(ctx context.Context, op string, id domain.TaskID, apply func(*domain.Task)) (domain.Task, error) {
	var updated domain.Task
	err := s.WithLock(ctx, id, func(ctx context.Context) error {
		task, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return err
			}
			return fmt.Errorf("failed to load task %s: %w", id, err)
		}

		apply(&task)
		if err := s.repo.Save(ctx, task); err != nil {
			return s.commitFailed(op, id, err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.logger.Debug("Task updated", "op", op, "task_id", id)
	s.subs.publish(domain.ChangeEvent{Type: domain.EventTaskUpdated, Task: updated, Timestamp: s.clock()})
	return updated, nil
}

// Delete removes a task. Deleting an unknown task is a no-op.
// A record that exists but cannot be read (for example one that fails
// decryption) is still removed.
func (s *Store) Delete(ctx context.Context, id domain.TaskID) error {
	deleted := false
	err := s.WithLock(ctx, id, func(ctx context.Context) error {
		if _, err := s.repo.Get(ctx, id); err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return nil
			}
			s.logger.Warn("Deleting unreadable task", "task_id", id, "err", err)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return s.commitFailed("delete", id, err)
		}
		deleted = true
		return nil
	})
	if err != nil || !deleted {
		return err
	}

	s.logger.Debug("Task deleted", "task_id", id)
	s.subs.publish(domain.ChangeEvent{Type: domain.EventTaskDeleted, Task: domain.Task{ID: id}, Timestamp: s.clock()})
	return nil
}

// Get returns a single task.
func (s *Store) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	return s.repo.Get(ctx, id)
}

// List returns every task ordered by creation time, newest first.
// The order is recomputed on every call.
func (s *Store) List(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	slices.SortFunc(tasks, domain.NewerFirst)
	return tasks, nil
}

// Subscribe registers fn to be called after every committed mutation.
// Callbacks run synchronously on the mutating goroutine and must not block.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(domain.ChangeEvent)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// WithLock executes fn while holding the lock for the task.
func (s *Store) WithLock(ctx context.Context, id domain.TaskID, fn func(context.Context) error) error {
	entry := s.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(id)
	}()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, string(id), lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				s.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"task_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (s *Store) acquire(id domain.TaskID) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[id]
	if !exists {
		entry = &lockEntry{}
		s.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (s *Store) release(id domain.TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, id)
	}
}

// nextTimestamp returns the clock reading, bumped past the previous one if
// needed so tasks created by this store never share a timestamp.
func (s *Store) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := domain.NormalizeTimestamp(s.clock())
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(domain.TimestampPrecision)
	}
	s.lastStamp = now
	return now
}

func (s *Store) commitFailed(op string, id domain.TaskID, err error) error {
	s.logger.Warn("Commit failed", "op", op, "task_id", id, "err", err)
	return fmt.Errorf("%w: %s %s: %w", domain.ErrCommitFailed, op, id, err)
}
