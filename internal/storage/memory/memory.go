// Package memory is an in-process implementation of storage interface.
// It is used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/storage"
)

type record struct {
	seq   uint64
	entry *entities.Entry
}

type mem struct {
	mu   sync.RWMutex
	seq  uint64
	docs map[string]record
}

// New creates new instance of in-memory storage.
func New() storage.Storage {
	return &mem{
		docs: make(map[string]record),
	}
}

func (m *mem) Ping(_ context.Context) error {
	return nil
}

func (m *mem) Create(ctx context.Context, e *entities.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[e.ID]; ok {
		return storage.ErrAlreadyExists
	}

	m.seq++
	m.docs[e.ID] = record{seq: m.seq, entry: e.Clone()}

	return nil
}

func (m *mem) Get(ctx context.Context, id string) (*entities.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return r.entry.Clone(), nil
}

func (m *mem) Replace(ctx context.Context, e *entities.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.docs[e.ID]
	if !ok {
		return storage.ErrNotFound
	}

	r.entry = e.Clone()
	m.docs[e.ID] = r

	return nil
}

func (m *mem) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return storage.ErrNotFound
	}

	delete(m.docs, id)

	return nil
}

func (m *mem) ListByDateDesc(ctx context.Context) ([]*entities.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	records := make([]record, 0, len(m.docs))
	for _, v := range m.docs {
		records = append(records, record{seq: v.seq, entry: v.entry.Clone()})
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].entry.Date != records[j].entry.Date {
			return records[i].entry.Date > records[j].entry.Date
		}
		return records[i].seq < records[j].seq
	})

	out := make([]*entities.Entry, len(records))
	for i, v := range records {
		out[i] = v.entry
	}

	return out, nil
}
