package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message for the operator.
type Notification struct {
	Level   Level
	Message string
	ID      string
	Err     error
}

type Notifier func(Notification)

const DefaultBulkConcurrency = 4

// DeleteOutcome is the per-id result of a bulk delete.
type DeleteOutcome struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

// Controller owns the local view of one collection and reconciles it with the store.
type Controller[T domain.Record] struct {
	store  EntityStore[T]
	schema domain.Schema
	notify Notifier
	log    *zap.Logger
	title  string

	bulkLimit int

	mu         sync.Mutex
	state      State
	records    []T
	lastErr    error
	generation uint64
	closed     bool
}

func NewController[T domain.Record](store EntityStore[T], schema domain.Schema, notify Notifier, log *zap.Logger) *Controller[T] {
	if notify == nil {
		notify = func(Notification) {}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller[T]{
		store:     store,
		schema:    schema,
		notify:    notify,
		log:       log.With(zap.String("collection", schema.Collection)),
		title:     cases.Title(language.English).String(schema.Resource),
		bulkLimit: DefaultBulkConcurrency,
		records:   []T{},
	}
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Records returns a copy of the current collection.
func (c *Controller[T]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller[T]) snapshot() []T {
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Close unmounts the controller. Operations settling afterwards are not applied.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FetchAll loads the collection. Only the latest request is applied; a
// superseded request returns ErrStaleResponse.
func (c *Controller[T]) FetchAll(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrClosed
	}
	c.generation++
	gen := c.generation
	c.state = StateLoading
	c.mu.Unlock()

	records, err := c.store.List(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrClosed
	}
	if gen != c.generation {
		c.mu.Unlock()
		c.log.Debug("discarding stale fetch", zap.Uint64("generation", gen))
		return nil, domain.ErrStaleResponse
	}
	if err != nil {
		c.state = StateError
		c.lastErr = err
		c.mu.Unlock()
		c.fail(fmt.Sprintf("Failed to load %s", c.schema.Collection), "", err)
		return nil, err
	}
	c.state = StateLoaded
	c.lastErr = nil
	c.records = records
	out := c.snapshot()
	c.mu.Unlock()
	return out, nil
}

func (c *Controller[T]) Create(ctx context.Context, draft domain.Fields) (T, error) {
	var zero T
	if c.isClosed() {
		return zero, domain.ErrClosed
	}
	rec, err := c.store.Create(ctx, draft)
	if err != nil {
		c.fail(fmt.Sprintf("Failed to create %s", c.schema.Resource), "", err)
		c.resyncOn(ctx, err)
		return zero, err
	}
	if c.apply(func() {
		c.records = append([]T{rec}, c.records...)
	}) {
		c.succeed(fmt.Sprintf("%s created", c.title), rec.RecordID())
	}
	return rec, nil
}

func (c *Controller[T]) Edit(ctx context.Context, id string, patch domain.Fields) (T, error) {
	var zero T
	if c.isClosed() {
		return zero, domain.ErrClosed
	}
	rec, err := c.store.Update(ctx, id, patch)
	if err != nil {
		c.fail(fmt.Sprintf("Failed to update %s", c.schema.Resource), id, err)
		if errors.Is(err, domain.ErrNotFound) {
			c.apply(func() { c.drop(id) })
		} else {
			c.resyncOn(ctx, err)
		}
		return zero, err
	}
	if c.apply(func() {
		for i := range c.records {
			if c.records[i].RecordID() == id {
				c.records[i] = rec
				return
			}
		}
	}) {
		c.succeed(fmt.Sprintf("%s updated", c.title), id)
	}
	return rec, nil
}

// Remove deletes one record. A NotFoundError drops the stale row and is returned.
func (c *Controller[T]) Remove(ctx context.Context, id string) error {
	if c.isClosed() {
		return domain.ErrClosed
	}
	err := c.store.Delete(ctx, id)
	if err != nil {
		c.fail(fmt.Sprintf("Failed to delete %s", c.schema.Resource), id, err)
		if errors.Is(err, domain.ErrNotFound) {
			c.apply(func() { c.drop(id) })
		} else {
			c.resyncOn(ctx, err)
		}
		return err
	}
	if c.apply(func() { c.drop(id) }) {
		c.succeed(fmt.Sprintf("%s deleted", c.title), id)
	}
	return nil
}

// RemoveMany deletes ids concurrently. Exactly the successful ids leave the
// view; every failure is reported with its id. A persistence failure triggers
// one re-sync after the successes are applied.
func (c *Controller[T]) RemoveMany(ctx context.Context, ids []string) []DeleteOutcome {
	if c.isClosed() {
		out := make([]DeleteOutcome, len(ids))
		for i, id := range ids {
			out[i] = DeleteOutcome{ID: id, Err: domain.ErrClosed}
		}
		return out
	}

	outcomes := DeleteAll(ctx, ids, c.bulkLimit, c.store.Delete)

	deleted := map[string]bool{}
	var resyncErr error
	for _, o := range outcomes {
		if o.Err == nil {
			deleted[o.ID] = true
			continue
		}
		c.fail(fmt.Sprintf("Failed to delete %s %s", c.schema.Resource, o.ID), o.ID, o.Err)
		if resyncErr == nil && errors.Is(o.Err, domain.ErrPersistence) {
			resyncErr = o.Err
		}
	}
	if c.apply(func() {
		kept := c.records[:0:0]
		for _, r := range c.records {
			if !deleted[r.RecordID()] {
				kept = append(kept, r)
			}
		}
		c.records = kept
	}) && len(deleted) > 0 {
		c.succeed(fmt.Sprintf("%d %s deleted", len(deleted), c.schema.Collection), "")
	}
	if resyncErr != nil {
		c.resyncOn(ctx, resyncErr)
	}
	return outcomes
}

// Submit dispatches a form submission to Create or Edit.
func (c *Controller[T]) Submit(ctx context.Context, sub Submission) (T, error) {
	if sub.Mode == ModeEdit {
		return c.Edit(ctx, sub.ID, sub.Draft)
	}
	return c.Create(ctx, sub.Draft)
}

// apply runs fn under the lock unless the controller was closed.
func (c *Controller[T]) apply(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	fn()
	return true
}

func (c *Controller[T]) drop(id string) {
	kept := c.records[:0:0]
	for _, r := range c.records {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}
	c.records = kept
}

func (c *Controller[T]) resyncOn(ctx context.Context, err error) {
	if !errors.Is(err, domain.ErrPersistence) {
		return
	}
	if _, ferr := c.FetchAll(ctx); ferr != nil && !errors.Is(ferr, domain.ErrStaleResponse) {
		c.log.Warn("resync failed", zap.Error(ferr))
	}
}

func (c *Controller[T]) fail(msg, id string, err error) {
	c.log.Info(msg, zap.String("id", id), zap.Error(err))
	if c.isClosed() {
		return
	}
	c.notify(Notification{Level: LevelError, Message: msg, ID: id, Err: err})
}

func (c *Controller[T]) succeed(msg, id string) {
	c.notify(Notification{Level: LevelSuccess, Message: msg, ID: id})
}

// DeleteAll runs del for every id with at most limit calls in flight and
// returns the outcomes in input order.
func DeleteAll(ctx context.Context, ids []string, limit int, del func(context.Context, string) error) []DeleteOutcome {
	outcomes := make([]DeleteOutcome, len(ids))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = DeleteOutcome{ID: id, Err: del(ctx, id)}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
