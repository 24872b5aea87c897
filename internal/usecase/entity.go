package usecase

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/listview"
)

var tracer = otel.Tracer("usecase")

// EntityService is the server-side orchestration of one collection. It
// satisfies EntityStore and publishes a change event after every mutation.
type EntityService[T domain.Record] struct {
	store     EntityStore[T]
	schema    domain.Schema
	publisher Publisher
	log       *zap.Logger
}

func NewEntityService[T domain.Record](store EntityStore[T], schema domain.Schema, publisher Publisher, log *zap.Logger) *EntityService[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntityService[T]{
		store:     store,
		schema:    schema,
		publisher: publisher,
		log:       log.With(zap.String("collection", schema.Collection)),
	}
}

func (s *EntityService[T]) Schema() domain.Schema {
	return s.schema
}

func (s *EntityService[T]) List(ctx context.Context) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Entity.Service.List")
	defer span.End()
	span.SetAttributes(attribute.String("collection", s.schema.Collection))

	return s.store.List(ctx)
}

// Query lists the collection and applies the list-view query.
func (s *EntityService[T]) Query(ctx context.Context, q listview.Query) ([]T, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return listview.Apply(records, q, s.schema), nil
}

func (s *EntityService[T]) Get(ctx context.Context, id string) (T, error) {
	ctx, span := tracer.Start(ctx, "Entity.Service.Get")
	defer span.End()

	return s.store.Get(ctx, id)
}

func (s *EntityService[T]) Create(ctx context.Context, draft domain.Fields) (T, error) {
	ctx, span := tracer.Start(ctx, "Entity.Service.Create")
	defer span.End()
	span.SetAttributes(attribute.String("collection", s.schema.Collection))

	rec, err := s.store.Create(ctx, draft)
	if err != nil {
		span.RecordError(err)
		return rec, err
	}
	s.publish(ctx, domain.ChangeCreated, rec.RecordID(), rec)
	return rec, nil
}

func (s *EntityService[T]) Update(ctx context.Context, id string, patch domain.Fields) (T, error) {
	ctx, span := tracer.Start(ctx, "Entity.Service.Update")
	defer span.End()
	span.SetAttributes(attribute.String("collection", s.schema.Collection), attribute.String("id", id))

	rec, err := s.store.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(err)
		return rec, err
	}
	s.publish(ctx, domain.ChangeUpdated, id, rec)
	return rec, nil
}

func (s *EntityService[T]) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Entity.Service.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("collection", s.schema.Collection), attribute.String("id", id))

	if err := s.store.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.publish(ctx, domain.ChangeDeleted, id, nil)
	return nil
}

// BulkDelete deletes every id independently; one failure does not stop the others.
func (s *EntityService[T]) BulkDelete(ctx context.Context, ids []string) []DeleteOutcome {
	ctx, span := tracer.Start(ctx, "Entity.Service.BulkDelete")
	defer span.End()
	span.SetAttributes(attribute.Int("count", len(ids)))

	return DeleteAll(ctx, ids, DefaultBulkConcurrency, s.Delete)
}

// Export writes the queried view as CSV.
func (s *EntityService[T]) Export(ctx context.Context, q listview.Query, w io.Writer) error {
	records, err := s.Query(ctx, q)
	if err != nil {
		return err
	}
	return listview.WriteCSV(w, s.schema, records)
}

func (s *EntityService[T]) publish(ctx context.Context, kind, id string, record any) {
	if s.publisher == nil {
		return
	}
	actor, _ := ctx.Value(domain.RequesterIdCtxKey).(string)
	event := domain.ChangeEvent{
		Collection: s.schema.Collection,
		Type:       kind,
		ID:         id,
		Record:     record,
		Actor:      actor,
		Time:       time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, domain.ChannelFor(s.schema.Collection), event); err != nil {
		s.log.Warn("publish change event failed", zap.String("id", id), zap.Error(err))
	}
}
