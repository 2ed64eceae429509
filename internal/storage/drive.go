package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const driveFileFields = "id, name, parents, createdTime"

// DriveStore is a BlobStore over Google Drive v3.
type DriveStore struct {
	srv *drive.Service
}

// NewDriveStore builds a Drive client on top of an authenticated HTTP client.
// Extra options (e.g. option.WithEndpoint) are appended after the client.
func NewDriveStore(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*DriveStore, error) {
	all := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	srv, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &DriveStore{srv: srv}, nil
}

// List pages through every non-trashed file called name under parent.
func (s *DriveStore) List(ctx context.Context, name, parent string) ([]ObjectRef, error) {
	var refs []ObjectRef
	call := s.srv.Files.List().
		Q(listQuery(name, parent)).
		Fields(googleapi.Field("nextPageToken, files(" + driveFileFields + ")")).
		OrderBy("createdTime desc").
		Spaces("drive")

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			refs = append(refs, toRef(f, parent))
		}
		return nil
	})
	if err != nil {
		return nil, mapDriveErr(err)
	}
	return refs, nil
}

func (s *DriveStore) Download(ctx context.Context, ref ObjectRef) ([]byte, error) {
	resp, err := s.srv.Files.Get(ref.ID).Context(ctx).Download()
	if err != nil {
		return nil, mapDriveErr(err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *DriveStore) Delete(ctx context.Context, ref ObjectRef) error {
	return mapDriveErr(s.srv.Files.Delete(ref.ID).Context(ctx).Do())
}

func (s *DriveStore) Upload(ctx context.Context, name, parent string, data []byte, mimeType string) (ObjectRef, error) {
	meta := &drive.File{Name: name, MimeType: mimeType}
	if parent != "" {
		meta.Parents = []string{parent}
	}
	f, err := s.srv.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields(googleapi.Field(driveFileFields)).
		Context(ctx).
		Do()
	if err != nil {
		return ObjectRef{}, mapDriveErr(err)
	}
	return toRef(f, parent), nil
}

// listQuery builds the Drive search expression for one file name in one folder.
func listQuery(name, parent string) string {
	q := fmt.Sprintf("name='%s' and trashed=false", escapeQuery(name))
	if parent != "" {
		q = fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", escapeQuery(name), escapeQuery(parent))
	}
	return q
}

// escapeQuery escapes backslashes and single quotes for Drive query string literals.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func toRef(f *drive.File, parent string) ObjectRef {
	ref := ObjectRef{ID: f.Id, Name: f.Name, Parent: parent}
	if len(f.Parents) > 0 {
		ref.Parent = f.Parents[0]
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		ref.CreatedAt = t
	}
	return ref
}

func mapDriveErr(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("drive: %w: %v", ErrObjectNotFound, err)
	}
	return fmt.Errorf("drive: %w", err)
}
