package storage

import (
	"context"
	"errors"
	"testing"
)

// testBlobStore exercises the BlobStore contract against a backend.
func testBlobStore(t *testing.T, s BlobStore, parent string) {
	t.Helper()
	ctx := context.Background()

	refs, err := s.List(ctx, "data.csv", parent)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected no objects, got %v", refs)
	}

	first, err := s.Upload(ctx, "data.csv", parent, []byte("a\n"), "text/csv")
	if err != nil {
		t.Fatalf("upload first: %v", err)
	}
	second, err := s.Upload(ctx, "data.csv", parent, []byte("a\nb\n"), "text/csv")
	if err != nil {
		t.Fatalf("upload second: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("uploads must create distinct objects: %q %q", first.ID, second.ID)
	}
	if _, err := s.Upload(ctx, "other.csv", parent, []byte("x\n"), "text/csv"); err != nil {
		t.Fatalf("upload other: %v", err)
	}

	refs, err = s.List(ctx, "data.csv", parent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 objects named data.csv, got %d", len(refs))
	}
	sortNewestFirst(refs)
	if refs[0].ID != second.ID {
		t.Fatalf("newest object should sort first: got %q want %q", refs[0].ID, second.ID)
	}

	got, err := s.Download(ctx, second)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(got) != "a\nb\n" {
		t.Fatalf("download content = %q", got)
	}

	if err := s.Delete(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Download(ctx, first); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("download deleted: want ErrObjectNotFound, got %v", err)
	}
	if err := s.Delete(ctx, first); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("delete twice: want ErrObjectNotFound, got %v", err)
	}

	refs, err = s.List(ctx, "data.csv", parent)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(refs) != 1 || refs[0].ID != second.ID {
		t.Fatalf("unexpected objects after delete: %v", refs)
	}
}
