package repository

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/infra/database/models"
)

const settingsCacheTTL = 5 * 60 // seconds

// SettingsRepository stores settings documents in the database and keeps a
// read-through copy in memcached when one is configured.
type SettingsRepository struct {
	db  *gorm.DB
	mc  *memcache.Client
	log *zap.Logger
}

func NewSettingsRepository(db *gorm.DB, mc *memcache.Client, log *zap.Logger) *SettingsRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsRepository{db: db, mc: mc, log: log}
}

func settingsCacheKey(key string) string {
	return "settings:" + key
}

func (r *SettingsRepository) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Settings.Repository.Get")
	defer span.End()

	if r.mc != nil {
		item, err := r.mc.Get(settingsCacheKey(key))
		if err == nil {
			return item.Value, nil
		}
		if !errors.Is(err, memcache.ErrCacheMiss) {
			r.log.Warn("settings cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	var m models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, domain.PersistenceError{Op: "get setting", Err: err}
	}

	r.fill(key, m.Value)
	return m.Value, nil
}

func (r *SettingsRepository) Put(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "Settings.Repository.Put")
	defer span.End()

	m := models.Setting{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		span.RecordError(err)
		return domain.PersistenceError{Op: "put setting", Err: err}
	}

	r.fill(key, value)
	return nil
}

func (r *SettingsRepository) fill(key string, value []byte) {
	if r.mc == nil {
		return
	}
	err := r.mc.Set(&memcache.Item{Key: settingsCacheKey(key), Value: value, Expiration: settingsCacheTTL})
	if err != nil {
		r.log.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
	}
}
