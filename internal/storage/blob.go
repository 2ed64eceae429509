package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when a referenced object no longer exists.
var ErrObjectNotFound = errors.New("object not found")

// ObjectRef identifies one stored object.
type ObjectRef struct {
	ID        string
	Name      string
	Parent    string
	CreatedAt time.Time
}

// BlobStore is the narrow contract over a remote object store.
//
// List returns every non-trashed object named name directly under parent.
// Upload always creates a new object; it never overwrites.
type BlobStore interface {
	List(ctx context.Context, name, parent string) ([]ObjectRef, error)
	Download(ctx context.Context, ref ObjectRef) ([]byte, error)
	Delete(ctx context.Context, ref ObjectRef) error
	Upload(ctx context.Context, name, parent string, data []byte, mimeType string) (ObjectRef, error)
}
