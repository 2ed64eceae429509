package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errInjected = errors.New("injected")

// memStore is an in-memory BlobStore with per-operation failure injection.
type memStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	seq     int
	clock   time.Time

	listErr     error
	downloadErr error
	uploadErr   error
	deleteErr   error

	deleted []string
}

type memObject struct {
	ref  ObjectRef
	data []byte
}

func newMemStore() *memStore {
	return &memStore{
		objects: map[string]memObject{},
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// put stores an object directly with the given creation time.
func (m *memStore) put(id, name, parent string, created time.Time, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[id] = memObject{
		ref:  ObjectRef{ID: id, Name: name, Parent: parent, CreatedAt: created},
		data: append([]byte(nil), data...),
	}
}

func (m *memStore) List(_ context.Context, name, parent string) ([]ObjectRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []ObjectRef
	for _, o := range m.objects {
		if o.ref.Name == name && o.ref.Parent == parent {
			out = append(out, o.ref)
		}
	}
	return out, nil
}

func (m *memStore) Download(_ context.Context, ref ObjectRef) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	o, ok := m.objects[ref.ID]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), o.data...), nil
}

func (m *memStore) Delete(_ context.Context, ref ObjectRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.objects[ref.ID]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, ref.ID)
	m.deleted = append(m.deleted, ref.ID)
	return nil
}

func (m *memStore) Upload(_ context.Context, name, parent string, data []byte, _ string) (ObjectRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return ObjectRef{}, m.uploadErr
	}
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	ref := ObjectRef{ID: fmt.Sprintf("obj-%03d", m.seq), Name: name, Parent: parent, CreatedAt: m.clock}
	m.objects[ref.ID] = memObject{ref: ref, data: append([]byte(nil), data...)}
	return ref, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
