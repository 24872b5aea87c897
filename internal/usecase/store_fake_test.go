package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robtrove/TroveCRM/internal/domain"
)

// memStore is an in-memory EntityStore used across usecase tests.
type memStore[T domain.Record] struct {
	mu        sync.Mutex
	schema    domain.Schema
	records   []T
	seq       int
	listCalls int

	listFn    func(ctx context.Context) ([]T, error)
	createFn  func(ctx context.Context) error
	updateErr error
	deleteErr map[string]error
}

func newMemStore[T domain.Record](schema domain.Schema, seed ...T) *memStore[T] {
	return &memStore[T]{schema: schema, records: append([]T{}, seed...), deleteErr: map[string]error{}}
}

func (m *memStore[T]) List(ctx context.Context) ([]T, error) {
	m.mu.Lock()
	m.listCalls++
	fn := m.listFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T{}, m.records...), nil
}

func (m *memStore[T]) Get(ctx context.Context, id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.RecordID() == id {
			return r, nil
		}
	}
	var zero T
	return zero, domain.NotFoundError{Resource: m.schema.Resource, ID: id}
}

func (m *memStore[T]) Create(ctx context.Context, draft domain.Fields) (T, error) {
	var zero T
	if m.createFn != nil {
		if err := m.createFn(ctx); err != nil {
			return zero, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.schema.CheckCreate(draft); err != nil {
		return zero, err
	}
	f := draft.Clone()
	m.seq++
	f["id"] = fmt.Sprintf("%s-%d", m.schema.Resource, m.seq)
	if _, ok := f["createdAt"]; !ok {
		f["createdAt"] = time.Now().UTC()
	}
	var rec T
	if err := f.Decode(&rec); err != nil {
		return zero, err
	}
	if d, ok := any(&rec).(domain.Defaulter); ok {
		d.ApplyDefaults()
	}
	m.records = append([]T{rec}, m.records...)
	return rec, nil
}

func (m *memStore[T]) Update(ctx context.Context, id string, patch domain.Fields) (T, error) {
	var zero T
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return zero, m.updateErr
	}
	if _, err := m.schema.CheckPatch(patch); err != nil {
		return zero, err
	}
	for i, r := range m.records {
		if r.RecordID() != id {
			continue
		}
		f, err := domain.FieldsOf(r)
		if err != nil {
			return zero, err
		}
		for k, v := range patch {
			f[k] = v
		}
		f["updatedAt"] = time.Now().UTC()
		var rec T
		if err := f.Decode(&rec); err != nil {
			return zero, err
		}
		m.records[i] = rec
		return rec, nil
	}
	return zero, domain.NotFoundError{Resource: m.schema.Resource, ID: id}
}

func (m *memStore[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.deleteErr[id]; ok {
		return err
	}
	for i, r := range m.records {
		if r.RecordID() == id {
			m.records = append(m.records[:i:i], m.records[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: m.schema.Resource, ID: id}
}

func (m *memStore[T]) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

type notes struct {
	mu  sync.Mutex
	all []Notification
}

func (n *notes) add(x Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, x)
}

func (n *notes) errors() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, x := range n.all {
		if x.Level == LevelError {
			out = append(out, x)
		}
	}
	return out
}
