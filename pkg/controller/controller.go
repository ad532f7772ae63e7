// Package controller holds the transient edit state of the task screen and
// turns user intents into Task Store calls.
package controller

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/dona/internal/logging"
	"github.com/aretw0/dona/pkg/domain"
)

// TaskService is the subset of the Task Store the controller drives.
type TaskService interface {
	Create(ctx context.Context, title string, starred bool) (domain.Task, error)
	Update(ctx context.Context, id domain.TaskID, title string, starred bool) (domain.Task, error)
	ToggleCompleted(ctx context.Context, id domain.TaskID) (domain.Task, error)
	Delete(ctx context.Context, id domain.TaskID) error
	List(ctx context.Context) ([]domain.Task, error)
}

// DraftState is the unsaved input held between user actions.
type DraftState struct {
	DraftTitle     string
	DraftIsStarred bool
	SelectedTaskID *domain.TaskID
	IsInputActive  bool
}

// Editing reports whether the next submit updates an existing task.
func (d DraftState) Editing() bool {
	return d.SelectedTaskID != nil
}

// Controller is the presentation controller. It is not safe for concurrent use.
type Controller struct {
	tasks  TaskService
	theme  domain.Theme
	logger *slog.Logger
	state  DraftState
}

// Option configures the Controller.
type Option func(*Controller)

// WithTheme sets the theme the screen renders with.
func WithTheme(theme domain.Theme) Option {
	return func(c *Controller) {
		c.theme = theme
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller over the given Task Store.
func New(tasks TaskService, opts ...Option) *Controller {
	c := &Controller{
		tasks:  tasks,
		theme:  domain.ThemeAuto,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Theme returns the theme this screen was built with.
func (c *Controller) Theme() domain.Theme {
	return c.theme
}

// Snapshot returns a copy of the transient state.
func (c *Controller) Snapshot() DraftState {
	s := c.state
	if s.SelectedTaskID != nil {
		id := *s.SelectedTaskID
		s.SelectedTaskID = &id
	}
	return s
}

// BeginEdit loads a task into the draft and routes the next submit to an update.
func (c *Controller) BeginEdit(task domain.Task) {
	id := task.ID
	c.state = DraftState{
		DraftTitle:     task.Title,
		DraftIsStarred: task.IsStarred,
		SelectedTaskID: &id,
		IsInputActive:  true,
	}
}

// Focus activates the input without selecting a task.
func (c *Controller) Focus() {
	c.state.IsInputActive = true
}

// SetDraftTitle replaces the draft text.
func (c *Controller) SetDraftTitle(text string) {
	c.state.DraftTitle = text
	c.state.IsInputActive = true
}

// ToggleStarDraft flips the draft star flag. Nothing is persisted until Submit.
func (c *Controller) ToggleStarDraft() {
	c.state.DraftIsStarred = !c.state.DraftIsStarred
	c.state.IsInputActive = true
}

// Submit creates or updates a task from the draft, then resets the draft.
// Empty titles and vanished selections are ignored. When the title is
// invalid or the commit fails the draft is kept and the error is returned.
func (c *Controller) Submit(ctx context.Context) error {
	var err error
	if c.state.SelectedTaskID != nil {
		_, err = c.tasks.Update(ctx, *c.state.SelectedTaskID, c.state.DraftTitle, c.state.DraftIsStarred)
	} else {
		_, err = c.tasks.Create(ctx, c.state.DraftTitle, c.state.DraftIsStarred)
	}

	if err = c.swallow("submit", err); err != nil {
		return err
	}
	c.reset()
	return nil
}

// Cancel discards the draft without touching the store.
func (c *Controller) Cancel() {
	c.reset()
}

// RequestDelete removes a task.
func (c *Controller) RequestDelete(ctx context.Context, id domain.TaskID) error {
	return c.swallow("delete", c.tasks.Delete(ctx, id))
}

// RequestToggleCompleted flips a task's completion flag.
func (c *Controller) RequestToggleCompleted(ctx context.Context, id domain.TaskID) error {
	_, err := c.tasks.ToggleCompleted(ctx, id)
	return c.swallow("toggle_completed", err)
}

// Tasks re-reads the list, newest first.
func (c *Controller) Tasks(ctx context.Context) ([]domain.Task, error) {
	return c.tasks.List(ctx)
}

func (c *Controller) reset() {
	c.state = DraftState{}
}

// swallow drops the outcomes the screen treats as silent no-ops.
func (c *Controller) swallow(action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrEmptyTitle), errors.Is(err, domain.ErrTaskNotFound):
		c.logger.Debug("Ignored no-op intent", "action", action, "err", err)
		return nil
	default:
		return err
	}
}
