package loam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

// documentExt selects the Markdown serializer: metadata in front matter,
// the title as body so the files stay readable by hand.
const documentExt = ".md"

// Store adapts a Loam repository to the ports.TaskRepository interface.
// Every task is one document.
type Store struct {
	Repo core.Repository
}

// New creates a new Loam adapter over an initialized repository.
func New(repo core.Repository) *Store {
	return &Store{
		Repo: repo,
	}
}

// Open initializes a Loam repository at path and wraps it.
// Versioning is off unless re-enabled through opts.
func Open(path string, opts ...loam.Option) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	initOpts := append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(absPath, initOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(repo), nil
}

// Save writes the task document, replacing any previous version.
func (s *Store) Save(ctx context.Context, task domain.Task) error {
	doc := core.Document{
		ID:       string(task.ID) + documentExt,
		Content:  task.Title,
		Metadata: metadataFromTask(task),
	}
	if err := s.Repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("loam save failed for %s: %w", task.ID, err)
	}
	return nil
}

// Get retrieves a task by ID.
func (s *Store) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	entry, ok, err := s.find(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return entry.task, nil
}

// Delete removes the task document if present.
func (s *Store) Delete(ctx context.Context, id domain.TaskID) error {
	entry, ok, err := s.find(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := s.Repo.Delete(ctx, entry.docID); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", id, err)
	}
	return nil
}

// List returns every task document in the repository.
func (s *Store) List(ctx context.Context) ([]domain.Task, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(entries))
	for _, e := range entries {
		tasks = append(tasks, e.task)
	}
	return tasks, nil
}

type entry struct {
	docID string
	task  domain.Task
}

// find resolves a task by its metadata ID rather than by path, so lookups do
// not depend on how the serializer names files.
func (s *Store) find(ctx context.Context, id domain.TaskID) (entry, bool, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return entry{}, false, err
	}
	for _, e := range entries {
		if e.task.ID == id {
			return e, true, nil
		}
	}
	return entry{}, false, nil
}

func (s *Store) entries(ctx context.Context) ([]entry, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[domain.TaskID]string)
	entries := make([]entry, 0, len(docs))
	for _, listed := range docs {
		if len(listed.Metadata) == 0 {
			continue // not a task document (README, notes...)
		}
		// List only carries metadata; the title is in the body.
		doc, err := s.Repo.Get(ctx, listed.ID)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // removed since the listing
			}
			return nil, fmt.Errorf("loam get failed for %s: %w", listed.ID, err)
		}
		doc.ID = listed.ID

		meta, err := decodeMetadata(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		if meta.ID == "" {
			meta.ID = trimExtension(doc.ID)
		}

		task := meta.toTask(doc.Content)
		if task.Title == "" {
			continue // an untitled task cannot be shown or edited
		}
		if existing, ok := seen[task.ID]; ok {
			return nil, fmt.Errorf("collision detected: task '%s' is defined in both '%s' and '%s'", task.ID, existing, doc.ID)
		}
		seen[task.ID] = doc.ID
		entries = append(entries, entry{docID: doc.ID, task: task})
	}
	return entries, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
