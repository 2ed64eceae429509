package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// objectSep separates the generated object ID prefix from the dataset name in file names.
const objectSep = "__"

// LocalStore is a directory-backed BlobStore for development and tests.
//
// Objects live at <root>/<parent>/<unixnano>-<uuid>__<name>. The prefix is the
// object ID and encodes the creation time.
type LocalStore struct {
	root string
	now  func() time.Time
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &LocalStore{root: root, now: time.Now}, nil
}

func (s *LocalStore) List(ctx context.Context, name, parent string) ([]ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.dir(parent)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var refs []ObjectRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, objName, ok := strings.Cut(e.Name(), objectSep)
		if !ok || objName != name {
			continue
		}
		created, ok := createdFromID(id)
		if !ok {
			continue
		}
		refs = append(refs, ObjectRef{ID: id, Name: name, Parent: parent, CreatedAt: created})
	}
	return refs, nil
}

func (s *LocalStore) Download(ctx context.Context, ref ObjectRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ref.ID, ErrObjectNotFound)
	}
	return b, err
}

func (s *LocalStore) Delete(ctx context.Context, ref ObjectRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", ref.ID, ErrObjectNotFound)
	}
	return err
}

// Upload writes data to a temp file, fsyncs it and renames it into place so a
// crash never exposes a partially written object.
func (s *LocalStore) Upload(ctx context.Context, name, parent string, data []byte, mimeType string) (ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return ObjectRef{}, err
	}
	if err := checkSegment(name); err != nil {
		return ObjectRef{}, err
	}
	dir, err := s.dir(parent)
	if err != nil {
		return ObjectRef{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ObjectRef{}, err
	}

	created := s.now().UTC()
	ref := ObjectRef{
		ID:        fmt.Sprintf("%020d-%s", created.UnixNano(), uuid.NewString()),
		Name:      name,
		Parent:    parent,
		CreatedAt: created,
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return ObjectRef{}, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return ObjectRef{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return ObjectRef{}, err
	}
	if err := tmp.Close(); err != nil {
		return ObjectRef{}, err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, ref.ID+objectSep+name)); err != nil {
		return ObjectRef{}, err
	}
	return ref, nil
}

func (s *LocalStore) dir(parent string) (string, error) {
	if parent == "" {
		return s.root, nil
	}
	if err := checkSegment(parent); err != nil {
		return "", err
	}
	return filepath.Join(s.root, parent), nil
}

func (s *LocalStore) path(ref ObjectRef) (string, error) {
	dir, err := s.dir(ref.Parent)
	if err != nil {
		return "", err
	}
	if err := checkSegment(ref.ID); err != nil {
		return "", err
	}
	return filepath.Join(dir, ref.ID+objectSep+ref.Name), nil
}

func checkSegment(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid path segment %q", s)
	}
	return nil
}

func createdFromID(id string) (time.Time, bool) {
	prefix, _, ok := strings.Cut(id, "-")
	if !ok {
		return time.Time{}, false
	}
	n, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, n).UTC(), true
}
