package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore is a BlobStore backed by the dataset_objects table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context, name, parent string) ([]ObjectRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent, created_at
		FROM dataset_objects
		WHERE name = $1 AND parent = $2
		ORDER BY created_at DESC, id DESC
	`, name, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ObjectRef
	for rows.Next() {
		var r ObjectRef
		if err := rows.Scan(&r.ID, &r.Name, &r.Parent, &r.CreatedAt); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *PostgresStore) Download(ctx context.Context, ref ObjectRef) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM dataset_objects WHERE id = $1`, ref.ID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", ref.ID, ErrObjectNotFound)
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ref ObjectRef) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dataset_objects WHERE id = $1`, ref.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", ref.ID, ErrObjectNotFound)
	}
	return nil
}

// Upload inserts a new row; created_at is assigned by the database clock.
func (s *PostgresStore) Upload(ctx context.Context, name, parent string, data []byte, mimeType string) (ObjectRef, error) {
	ref := ObjectRef{ID: uuid.NewString(), Name: name, Parent: parent}
	var created time.Time
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO dataset_objects (id, name, parent, mime_type, content, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, ref.ID, name, parent, mimeType, data, len(data)).Scan(&created)
	if err != nil {
		return ObjectRef{}, err
	}
	ref.CreatedAt = created
	return ref, nil
}
