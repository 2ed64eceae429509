package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/guttosm/fxpulse/internal/dataset"
	"github.com/guttosm/fxpulse/internal/logger"
)

// DatasetStore reads and replaces the single dataset object identified by Name under Parent.
type DatasetStore struct {
	blobs  BlobStore
	name   string
	parent string
}

// NewDatasetStore binds a blob store to one dataset name and parent container.
func NewDatasetStore(blobs BlobStore, name, parent string) *DatasetStore {
	return &DatasetStore{blobs: blobs, name: name, parent: parent}
}

// Name returns the dataset object name.
func (s *DatasetStore) Name() string { return s.name }

// Objects lists the objects currently holding the dataset, newest first.
func (s *DatasetStore) Objects(ctx context.Context) ([]ObjectRef, error) {
	refs, err := s.blobs.List(ctx, s.name, s.parent)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", s.name, err)
	}
	sortNewestFirst(refs)
	return refs, nil
}

// Fetch returns the current dataset.
//
// Behavior:
//   - No matching object yields an empty dataset and a nil error.
//   - With several matches the newest (CreatedAt, then ID) wins and the rest are
//     logged as orphans.
//   - Any list, download or parse failure is returned; callers must not treat
//     it as absence.
func (s *DatasetStore) Fetch(ctx context.Context) (dataset.Dataset, error) {
	refs, err := s.Objects(ctx)
	if err != nil {
		return dataset.Dataset{}, err
	}
	if len(refs) == 0 {
		return dataset.Empty(), nil
	}
	s.logOrphans(refs[1:])

	data, err := s.blobs.Download(ctx, refs[0])
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("download %s: %w", refs[0].ID, err)
	}
	ds, err := dataset.Parse(data)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("decode %s: %w", refs[0].ID, err)
	}
	return ds, nil
}

// Replace stores ds as the new dataset and returns the new object ID.
//
// The new object is uploaded before any old object is removed, so a failed
// upload leaves the prior content in place. Failures deleting old objects are
// logged and leave orphans; the newest-first rule in Fetch still resolves to
// the uploaded object.
func (s *DatasetStore) Replace(ctx context.Context, ds dataset.Dataset) (string, error) {
	olds, err := s.blobs.List(ctx, s.name, s.parent)
	if err != nil {
		return "", fmt.Errorf("list %q: %w", s.name, err)
	}

	ref, err := s.blobs.Upload(ctx, s.name, s.parent, ds.Encode(), dataset.MimeType)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", s.name, err)
	}

	l := logger.With("storage")
	for _, old := range olds {
		if old.ID == ref.ID {
			continue
		}
		if err := s.blobs.Delete(ctx, old); err != nil {
			l.Warn().Err(err).Str("object_id", old.ID).Str("name", s.name).Msg("failed to delete superseded dataset object")
			continue
		}
		l.Debug().Str("object_id", old.ID).Msg("deleted superseded dataset object")
	}
	return ref.ID, nil
}

func (s *DatasetStore) logOrphans(refs []ObjectRef) {
	if len(refs) == 0 {
		return
	}
	l := logger.With("storage")
	for _, r := range refs {
		l.Warn().Str("object_id", r.ID).Time("created_at", r.CreatedAt).Str("name", s.name).Msg("orphan dataset object ignored")
	}
}

func sortNewestFirst(refs []ObjectRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
			return refs[i].CreatedAt.After(refs[j].CreatedAt)
		}
		return refs[i].ID > refs[j].ID
	})
}
