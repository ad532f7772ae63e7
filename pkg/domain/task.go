package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskID uniquely identifies a Task. It is assigned at creation and never changes.
type TaskID string

// NewTaskID allocates a fresh random identifier.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

// String implements fmt.Stringer.
func (id TaskID) String() string {
	return string(id)
}

// TimestampPrecision is the resolution creation times are stored with.
// Every backend (including DATETIME(6) columns) can represent it losslessly.
const TimestampPrecision = time.Microsecond

// Task is a single to-do entry.
type Task struct {
	ID          TaskID    `json:"id" mapstructure:"id"`
	Title       string    `json:"title" mapstructure:"title"`
	Timestamp   time.Time `json:"timestamp" mapstructure:"timestamp"`
	IsStarred   bool      `json:"is_starred" mapstructure:"is_starred"`
	IsCompleted bool      `json:"is_completed" mapstructure:"is_completed"`
}

// NewTask creates a task stamped with the given creation time.
// The title is stored as given; validation is the caller's job (see NormalizeTitle).
func NewTask(title string, starred bool, createdAt time.Time) Task {
	return Task{
		ID:        NewTaskID(),
		Title:     title,
		Timestamp: NormalizeTimestamp(createdAt),
		IsStarred: starred,
	}
}

// NormalizeTimestamp converts t to UTC at TimestampPrecision, dropping any
// monotonic clock reading so values survive a storage round trip unchanged.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}

// NewerFirst orders tasks by creation time, newest first.
// Ties are broken by ID so the order is stable across reads.
func NewerFirst(a, b Task) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
