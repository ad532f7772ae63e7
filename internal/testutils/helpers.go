package testutils

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aretw0/dona/pkg/adapters/memory"
	loamAdapter "github.com/aretw0/dona/pkg/adapters/loam"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/require"
)

// ErrReadOnly is returned by every write of a ReadOnlyRepository.
var ErrReadOnly = errors.New("read-only file system")

// SetupLoamStore creates a temporary directory, initializes a Loam repository in it
// and wraps it in the task adapter. Versioning is off unless opts turn it on.
// It fails the test immediately on error.
func SetupLoamStore(t *testing.T, opts ...loam.Option) (string, *loamAdapter.Store) {
	t.Helper()

	// Loam sometimes prefers absolute paths, though t.TempDir usually returns one.
	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	initOpts := append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(absPath, initOpts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, loamAdapter.New(repo)
}

// ReadOnlyRepository serves reads from the wrapped repository and rejects writes,
// simulating a backend that can no longer commit.
type ReadOnlyRepository struct {
	ports.TaskRepository
}

// NewReadOnlyRepository wraps repo, or a fresh memory store when repo is nil.
func NewReadOnlyRepository(repo ports.TaskRepository) ReadOnlyRepository {
	if repo == nil {
		repo = memory.NewStore()
	}
	return ReadOnlyRepository{TaskRepository: repo}
}

func (ReadOnlyRepository) Save(ctx context.Context, task domain.Task) error {
	return ErrReadOnly
}

func (ReadOnlyRepository) Delete(ctx context.Context, id domain.TaskID) error {
	return ErrReadOnly
}
