package controller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/dona/pkg/adapters/memory"
	"github.com/aretw0/dona/pkg/controller"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/aretw0/dona/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenRepo accepts reads but rejects every write.
type brokenRepo struct {
	ports.TaskRepository
	broken bool
}

func (r *brokenRepo) Save(ctx context.Context, task domain.Task) error {
	if r.broken {
		return errors.New("read-only filesystem")
	}
	return r.TaskRepository.Save(ctx, task)
}

func setup(t *testing.T) (*controller.Controller, *tasks.Store, *brokenRepo) {
	t.Helper()
	repo := &brokenRepo{TaskRepository: memory.NewStore()}
	store := tasks.NewStore(repo)
	return controller.New(store, controller.WithTheme(domain.ThemeDark)), store, repo
}

func TestController_SubmitCreates(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setup(t)

	c.SetDraftTitle("Buy milk")
	c.ToggleStarDraft()
	require.NoError(t, c.Submit(ctx))

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Title)
	assert.True(t, list[0].IsStarred)

	assert.Equal(t, controller.DraftState{}, c.Snapshot(), "draft resets after submit")
}

func TestController_SubmitEmptyResets(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setup(t)

	c.Focus()
	c.ToggleStarDraft()
	c.SetDraftTitle("   ")
	require.NoError(t, c.Submit(ctx))

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, controller.DraftState{}, c.Snapshot())
}

func TestController_BeginEditAndSubmitUpdates(t *testing.T) {
	ctx := context.Background()
	c, store, _ := setup(t)

	task, err := store.Create(ctx, "Buy milk", false)
	require.NoError(t, err)

	c.BeginEdit(task)
	state := c.Snapshot()
	require.True(t, state.Editing())
	assert.Equal(t, task.ID, *state.SelectedTaskID)
	assert.Equal(t, "Buy milk", state.DraftTitle)
	assert.True(t, state.IsInputActive)

	c.SetDraftTitle("Buy oat milk")
	c.ToggleStarDraft()
	require.NoError(t, c.Submit(ctx))

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)
	assert.Equal(t, "Buy oat milk", list[0].Title)
	assert.True(t, list[0].IsStarred)
	assert.False(t, c.Snapshot().Editing())
}

func TestController_EditToEmptyKeepsTitle(t *testing.T) {
	ctx := context.Background()
	c, store, _ := setup(t)

	task, err := store.Create(ctx, "Buy milk", true)
	require.NoError(t, err)

	c.BeginEdit(task)
	c.SetDraftTitle("")
	require.NoError(t, c.Submit(ctx))

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, controller.DraftState{}, c.Snapshot())
}

func TestController_EditVanishedTask(t *testing.T) {
	ctx := context.Background()
	c, store, _ := setup(t)

	task, err := store.Create(ctx, "Buy milk", false)
	require.NoError(t, err)
	c.BeginEdit(task)
	require.NoError(t, store.Delete(ctx, task.ID))

	c.SetDraftTitle("Buy bread")
	require.NoError(t, c.Submit(ctx))

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "an update of a vanished task must not recreate it")
}

func TestController_CancelDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	c, store, _ := setup(t)

	task, err := store.Create(ctx, "Buy milk", false)
	require.NoError(t, err)

	c.BeginEdit(task)
	c.SetDraftTitle("Something else")
	c.Cancel()
	assert.Equal(t, controller.DraftState{}, c.Snapshot())

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
}

func TestController_CancelAvailableForEveryTheme(t *testing.T) {
	for _, theme := range []domain.Theme{domain.ThemeLight, domain.ThemeDark, domain.ThemeAuto} {
		t.Run(string(theme), func(t *testing.T) {
			c := controller.New(tasks.NewStore(memory.NewStore()), controller.WithTheme(theme))
			assert.Equal(t, theme, c.Theme())

			c.SetDraftTitle("draft")
			c.Cancel()
			assert.Equal(t, controller.DraftState{}, c.Snapshot())
		})
	}
}

func TestController_CommitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	c, _, repo := setup(t)
	repo.broken = true

	c.SetDraftTitle("Buy milk")
	c.ToggleStarDraft()
	err := c.Submit(ctx)
	require.ErrorIs(t, err, domain.ErrCommitFailed)

	state := c.Snapshot()
	assert.Equal(t, "Buy milk", state.DraftTitle)
	assert.True(t, state.DraftIsStarred)
	assert.True(t, state.IsInputActive)

	repo.broken = false
	require.NoError(t, c.Submit(ctx))

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestController_InvalidTitleKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := tasks.NewStore(memory.NewStore(), tasks.WithMaxTitleSize(8))
	c := controller.New(store)

	c.SetDraftTitle("much too long for the limit")
	err := c.Submit(ctx)
	require.ErrorIs(t, err, domain.ErrInvalidTitle)
	assert.Equal(t, "much too long for the limit", c.Snapshot().DraftTitle)

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestController_RequestToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	c, store, repo := setup(t)

	task, err := store.Create(ctx, "Buy milk", false)
	require.NoError(t, err)

	require.NoError(t, c.RequestToggleCompleted(ctx, task.ID))
	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	require.NoError(t, c.RequestToggleCompleted(ctx, "missing"))

	repo.broken = true
	assert.ErrorIs(t, c.RequestToggleCompleted(ctx, task.ID), domain.ErrCommitFailed)
	repo.broken = false

	require.NoError(t, c.RequestDelete(ctx, task.ID))
	require.NoError(t, c.RequestDelete(ctx, task.ID))

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestController_SnapshotIsACopy(t *testing.T) {
	c, _, _ := setup(t)
	task := domain.NewTask("Buy milk", false, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	c.BeginEdit(task)

	snap := c.Snapshot()
	*snap.SelectedTaskID = "tampered"

	assert.Equal(t, task.ID, *c.Snapshot().SelectedTaskID)
}
