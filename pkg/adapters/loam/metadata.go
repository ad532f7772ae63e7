package loam

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// TaskMetadata is the front matter of a task document.
// It uses "mapstructure" tags to match the YAML keys written by Save.
// The title lives in the document body; Title is only read as a fallback
// for documents that carry it in front matter.
type TaskMetadata struct {
	ID        string    `json:"id" mapstructure:"id"`
	Title     string    `json:"title,omitempty" mapstructure:"title"`
	Timestamp time.Time `json:"timestamp" mapstructure:"timestamp"`
	Starred   bool      `json:"starred" mapstructure:"starred"`
	Completed bool      `json:"completed" mapstructure:"completed"`
}

func metadataFromTask(task domain.Task) map[string]any {
	// Timestamps are written as strings so every serializer round-trips them
	// at full precision.
	return map[string]any{
		"id":        string(task.ID),
		"timestamp": task.Timestamp.UTC().Format(time.RFC3339Nano),
		"starred":   task.IsStarred,
		"completed": task.IsCompleted,
	}
}

// decodeMetadata accepts timestamps as strings or as already parsed times,
// depending on what the document serializer produced.
func decodeMetadata(raw map[string]any) (TaskMetadata, error) {
	var meta TaskMetadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &meta,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return TaskMetadata{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return TaskMetadata{}, fmt.Errorf("invalid task metadata: %w", err)
	}
	return meta, nil
}

// toTask builds the task from the front matter and the document body.
// The body wins; surrounding whitespace is not part of the title.
func (m TaskMetadata) toTask(body string) domain.Task {
	title := strings.TrimSpace(body)
	if title == "" {
		title = strings.TrimSpace(m.Title)
	}
	return domain.Task{
		ID:          domain.TaskID(m.ID),
		Title:       title,
		Timestamp:   m.Timestamp.UTC(),
		IsStarred:   m.Starred,
		IsCompleted: m.Completed,
	}
}
