package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/robtrove/TroveCRM/internal/domain"
)

var tracer = otel.Tracer("repository")

// Mapper converts between a domain record and its gorm model.
type Mapper[D domain.Record, M any] struct {
	ToModel   func(D) M
	FromModel func(M) D
}

// EntityStore is the gorm implementation of usecase.EntityStore for one table.
type EntityStore[D domain.Record, M any] struct {
	db     *gorm.DB
	schema domain.Schema
	mapper Mapper[D, M]
	now    func() time.Time
}

func NewEntityStore[D domain.Record, M any](db *gorm.DB, schema domain.Schema, mapper Mapper[D, M]) *EntityStore[D, M] {
	return &EntityStore[D, M]{
		db:     db,
		schema: schema,
		mapper: mapper,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (s *EntityStore[D, M]) List(ctx context.Context) ([]D, error) {
	ctx, span := tracer.Start(ctx, "Entity.Repository.List")
	defer span.End()
	span.SetAttributes(attribute.String("table", s.schema.Collection))

	var rows []M
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, s.translate("list", "", err)
	}
	out := make([]D, 0, len(rows))
	for _, m := range rows {
		out = append(out, s.mapper.FromModel(m))
	}
	return out, nil
}

func (s *EntityStore[D, M]) Get(ctx context.Context, id string) (D, error) {
	ctx, span := tracer.Start(ctx, "Entity.Repository.Get")
	defer span.End()

	return s.get(s.db.WithContext(ctx), id)
}

func (s *EntityStore[D, M]) get(tx *gorm.DB, id string) (D, error) {
	var m M
	if err := tx.Where("id = ?", id).Take(&m).Error; err != nil {
		var zero D
		return zero, s.translate("get", id, err)
	}
	return s.mapper.FromModel(m), nil
}

// Create assigns the identifier and, when absent, the creation timestamp.
func (s *EntityStore[D, M]) Create(ctx context.Context, draft domain.Fields) (D, error) {
	ctx, span := tracer.Start(ctx, "Entity.Repository.Create")
	defer span.End()
	span.SetAttributes(attribute.String("table", s.schema.Collection))

	var zero D
	if err := s.schema.CheckCreate(draft); err != nil {
		return zero, err
	}
	if err := s.schema.CheckRequired(draft); err != nil {
		return zero, err
	}

	f := draft.Clone()
	id := uuid.NewString()
	f["id"] = id
	if v, ok := f["createdAt"]; !ok || v == nil || v == "" {
		f["createdAt"] = s.now()
	}

	rec, err := s.build(f)
	if err != nil {
		return zero, err
	}
	if d, ok := any(&rec).(domain.Defaulter); ok {
		d.ApplyDefaults()
	}
	if err := validate(rec); err != nil {
		return zero, err
	}

	m := s.mapper.ToModel(rec)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		span.RecordError(err)
		return zero, s.translate("create", id, err)
	}
	return s.get(s.db.WithContext(ctx), id)
}

// Update writes only the patched columns plus updated_at and returns the full record.
func (s *EntityStore[D, M]) Update(ctx context.Context, id string, patch domain.Fields) (D, error) {
	ctx, span := tracer.Start(ctx, "Entity.Repository.Update")
	defer span.End()
	span.SetAttributes(attribute.String("table", s.schema.Collection), attribute.String("id", id))

	var zero D
	cols, err := s.schema.CheckPatch(patch)
	if err != nil {
		return zero, err
	}
	cols = append(cols, "updated_at")

	var updated D
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx, id)
		if err != nil {
			return err
		}
		f, err := domain.FieldsOf(current)
		if err != nil {
			return errors.Wrap(err, "encode current record")
		}
		for k, v := range patch {
			f[k] = v
		}
		if err := s.schema.CheckRequired(f); err != nil {
			return err
		}
		f["updatedAt"] = s.now()

		rec, err := s.build(f)
		if err != nil {
			return err
		}
		if err := validate(rec); err != nil {
			return err
		}

		m := s.mapper.ToModel(rec)
		res := tx.Model(new(M)).Where("id = ?", id).Select(cols).Updates(&m)
		if res.Error != nil {
			return s.translate("update", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.NotFoundError{Resource: s.schema.Resource, ID: id}
		}
		updated, err = s.get(tx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	return updated, nil
}

func (s *EntityStore[D, M]) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Entity.Repository.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("table", s.schema.Collection), attribute.String("id", id))

	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(M))
	if res.Error != nil {
		span.RecordError(res.Error)
		return s.translate("delete", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: s.schema.Resource, ID: id}
	}
	return nil
}

func (s *EntityStore[D, M]) build(f domain.Fields) (D, error) {
	var rec D
	if err := f.Decode(&rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func validate(rec any) error {
	if v, ok := rec.(domain.Validator); ok {
		return v.Validate()
	}
	return nil
}

func (s *EntityStore[D, M]) translate(op, id string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: s.schema.Resource, ID: id}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ValidationError{Field: "id", Message: "duplicate key"}
	default:
		return domain.PersistenceError{
			Op:  fmt.Sprintf("%s %s", op, s.schema.Resource),
			Err: errors.Wrap(err, s.schema.Collection),
		}
	}
}
