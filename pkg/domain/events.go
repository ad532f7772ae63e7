package domain

import "time"

// EventType defines the category of a change event.
type EventType string

const (
	EventTaskCreated EventType = "created"
	EventTaskUpdated EventType = "updated"
	EventTaskDeleted EventType = "deleted"
)

// ChangeEvent is emitted after a mutation has been committed.
// For deletions Task only carries the ID.
type ChangeEvent struct {
	Type      EventType `json:"type"`
	Task      Task      `json:"task"`
	Timestamp time.Time `json:"timestamp"`
}
