// Package storage defines the object-store contract artifacts are written through.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get when no blob exists under the name.
var ErrNotFound = errors.New("storage: object not found")

// Sink writes and reads whole blobs by name.
type Sink interface {
	Put(ctx context.Context, name string, payload []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// Object is a blob held by MemorySink.
type Object struct {
	Payload     []byte
	ContentType string
}

// MemorySink keeps blobs in process memory. Used by tests and the memory sink kind.
type MemorySink struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemorySink() *MemorySink {
	return &MemorySink{objects: map[string]Object{}}
}

func (m *MemorySink) Put(ctx context.Context, name string, payload []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = Object{Payload: buf, ContentType: contentType}
	return nil
}

func (m *MemorySink) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(obj.Payload))
	copy(buf, obj.Payload)
	return buf, nil
}

// Object returns the stored blob and whether it exists.
func (m *MemorySink) Object(name string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[name]
	return obj, ok
}

// Names lists stored blob names in sorted order.
func (m *MemorySink) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
