package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTaskRepositoryContract runs a suite of tests to verify that a TaskRepository
// implementation adheres to the defined interface contract.
// The repository must start empty.
func RunTaskRepositoryContract(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	base := time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)

	t.Run("Save and Get", func(t *testing.T) {
		task := domain.NewTask("Buy milk", true, base.Add(123456*time.Microsecond))

		err := repo.Save(ctx, task)
		require.NoError(t, err, "Save should not return error")

		loaded, err := repo.Get(ctx, task.ID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, task.ID, loaded.ID)
		assert.Equal(t, "Buy milk", loaded.Title)
		assert.True(t, loaded.IsStarred)
		assert.False(t, loaded.IsCompleted)
		assert.True(t, task.Timestamp.Equal(loaded.Timestamp),
			"timestamp must survive a round trip: want %s, got %s", task.Timestamp, loaded.Timestamp)

		require.NoError(t, repo.Delete(ctx, task.ID))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := repo.Get(ctx, domain.NewTaskID())
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		task := domain.NewTask("Call mom", false, base)
		require.NoError(t, repo.Save(ctx, task))

		task.Title = "Call dad"
		task.IsStarred = true
		task.IsCompleted = true
		require.NoError(t, repo.Save(ctx, task))

		loaded, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Call dad", loaded.Title)
		assert.True(t, loaded.IsStarred)
		assert.True(t, loaded.IsCompleted)
		assert.True(t, task.Timestamp.Equal(loaded.Timestamp))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1, "replacing must not duplicate the record")

		require.NoError(t, repo.Delete(ctx, task.ID))
	})

	t.Run("Delete", func(t *testing.T) {
		task := domain.NewTask("Water plants", false, base)
		require.NoError(t, repo.Save(ctx, task))

		err := repo.Delete(ctx, task.ID)
		require.NoError(t, err, "Delete should not return error")

		_, err = repo.Get(ctx, task.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound, "Get after Delete should return ErrTaskNotFound")

		err = repo.Delete(ctx, task.ID)
		assert.NoError(t, err, "Delete must be idempotent")
	})

	t.Run("List", func(t *testing.T) {
		t1 := domain.NewTask("first", false, base)
		t2 := domain.NewTask("second", true, base.Add(time.Minute))
		require.NoError(t, repo.Save(ctx, t1))
		require.NoError(t, repo.Save(ctx, t2))

		defer func() {
			_ = repo.Delete(ctx, t1.ID)
			_ = repo.Delete(ctx, t2.ID)
		}()

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		byID := make(map[domain.TaskID]domain.Task)
		for _, task := range tasks {
			byID[task.ID] = task
		}
		assert.Equal(t, "first", byID[t1.ID].Title)
		assert.Equal(t, "second", byID[t2.ID].Title)
		assert.True(t, byID[t2.ID].IsStarred)
	})

	t.Run("List Empty", func(t *testing.T) {
		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}
