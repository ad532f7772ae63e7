package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFake(t *testing.T) (*Store, *fakeTable) {
	t.Helper()
	db, err := sql.Open("dona-fake", t.Name())
	require.NoError(t, err)

	store, err := openDB(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, testDriver.table(t.Name())
}

func TestStore_FakeDriverContract(t *testing.T) {
	store, table := openFake(t)
	assert.True(t, table.migrated)

	ports.RunTaskRepositoryContract(t, store)
}

func TestStore_SaveKeepsCreationTime(t *testing.T) {
	store, _ := openFake(t)
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 9, 0, 0, 123000, time.UTC)
	task := domain.NewTask("Buy milk", false, created)
	require.NoError(t, store.Save(ctx, task))

	edited := task
	edited.Title = "Buy bread"
	edited.IsStarred = true
	edited.Timestamp = created.Add(time.Hour)
	require.NoError(t, store.Save(ctx, edited))

	loaded, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy bread", loaded.Title)
	assert.True(t, loaded.IsStarred)
	assert.True(t, created.Equal(loaded.Timestamp), "upsert must not move the creation time")
	assert.Equal(t, time.UTC, loaded.Timestamp.Location())
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := openFake(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store, _ := openFake(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	older := domain.NewTask("older", false, base)
	newer := domain.NewTask("newer", false, base.Add(time.Minute))
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []domain.TaskID{newer.ID, older.ID}, []domain.TaskID{list[0].ID, list[1].ID})
}
