package dona_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/dona"
	"github.com/aretw0/dona/pkg/adapters/memory"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/persistence/middleware"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeCounter records Close calls.
type closeCounter struct {
	calls *[]string
	name  string
	err   error
}

func (c closeCounter) Close() error {
	*c.calls = append(*c.calls, c.name)
	return c.err
}

func TestApp_Scenario(t *testing.T) {
	backends := map[string]func(t *testing.T) (*dona.App, error){
		"loam": func(t *testing.T) (*dona.App, error) {
			return dona.New(t.TempDir())
		},
		"memory": func(t *testing.T) (*dona.App, error) {
			return dona.New("", dona.WithRepository(memory.NewStore()))
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			app, err := open(t)
			require.NoError(t, err)
			t.Cleanup(func() { _ = app.Close() })

			ctx := context.Background()
			store := app.Tasks()

			milk, err := store.Create(ctx, "Buy milk", false)
			require.NoError(t, err)

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "Buy milk", list[0].Title)
			assert.False(t, list[0].IsStarred)
			assert.False(t, list[0].IsCompleted)

			mom, err := store.Create(ctx, "Call mom", true)
			require.NoError(t, err)

			list, err = store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, mom.ID, list[0].ID, "newer task sorts first")
			assert.Equal(t, milk.ID, list[1].ID)

			_, err = store.ToggleCompleted(ctx, milk.ID)
			require.NoError(t, err)

			list, err = store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []domain.TaskID{mom.ID, milk.ID}, []domain.TaskID{list[0].ID, list[1].ID}, "order unchanged")
			assert.True(t, list[1].IsCompleted)

			require.NoError(t, store.Delete(ctx, mom.ID))

			list, err = store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, milk.ID, list[0].ID)
			assert.True(t, list[0].IsCompleted)
		})
	}
}

func TestApp_Controller(t *testing.T) {
	app, err := dona.New("", dona.WithRepository(memory.NewStore()))
	require.NoError(t, err)

	ctx := context.Background()
	screen := app.Controller(domain.ThemeDark)
	assert.Equal(t, domain.ThemeDark, screen.Theme())

	screen.ToggleStarDraft()
	screen.SetDraftTitle("Call mom")
	require.NoError(t, screen.Submit(ctx))

	list, err := app.Tasks().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsStarred)
}

func TestApp_RequiresDataDir(t *testing.T) {
	_, err := dona.New("")
	assert.Error(t, err)
}

func TestApp_Middleware(t *testing.T) {
	var seen []string
	record := func(name string) middleware.Middleware {
		return func(next ports.TaskRepository) ports.TaskRepository {
			seen = append(seen, name)
			return next
		}
	}

	_, err := dona.New("", dona.WithRepository(memory.NewStore()),
		dona.WithMiddleware(record("outer"), record("inner")))
	require.NoError(t, err)

	// Chain wraps from the inside out.
	assert.Equal(t, []string{"inner", "outer"}, seen)
}

func TestApp_Encryption(t *testing.T) {
	repo := memory.NewStore()
	key := make([]byte, 32)

	app, err := dona.New("", dona.WithRepository(repo),
		dona.WithEncryption(middleware.EncryptionConfig{ActiveKey: key}))
	require.NoError(t, err)

	ctx := context.Background()
	task, err := app.Tasks().Create(ctx, "Buy milk", false)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Buy milk", stored.Title)

	_, err = dona.New("", dona.WithRepository(repo),
		dona.WithEncryption(middleware.EncryptionConfig{ActiveKey: []byte("short")}))
	assert.Error(t, err)
}

func TestApp_EncryptionDeletesUnreadableTask(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore()
	plain := domain.NewTask("written before encryption", false, time.Now())
	require.NoError(t, repo.Save(ctx, plain))

	app, err := dona.New("", dona.WithRepository(repo),
		dona.WithEncryption(middleware.EncryptionConfig{ActiveKey: make([]byte, 32)}))
	require.NoError(t, err)

	var events []domain.ChangeEvent
	app.Tasks().Subscribe(func(ev domain.ChangeEvent) { events = append(events, ev) })

	_, err = app.Tasks().List(ctx)
	require.ErrorContains(t, err, "missing encrypted data envelope")

	require.NoError(t, app.Tasks().Delete(ctx, plain.ID))

	list, err := app.Tasks().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTaskDeleted, events[0].Type)

	_, err = repo.Get(ctx, plain.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestApp_Close(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	app, err := dona.New("", dona.WithRepository(memory.NewStore()),
		dona.WithCloser(closeCounter{calls: &calls, name: "first"}),
		dona.WithCloser(closeCounter{calls: &calls, name: "second", err: boom}),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, app.Close(), boom)
	assert.Equal(t, []string{"second", "first"}, calls)
}
