package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/robtrove/TroveCRM/internal/domain"
)

// SessionRepository keeps sessions in redis under session:<token>.
type SessionRepository struct {
	rdb *redis.Client
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Session.Repository.Save")
	defer span.End()

	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := r.rdb.Set(ctx, sessionKey(session.Token), raw, ttl).Err(); err != nil {
		span.RecordError(err)
		return domain.PersistenceError{Op: "save session", Err: err}
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, token string) (domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Session.Repository.Get")
	defer span.End()

	raw, err := r.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, domain.NotFoundError{Resource: "session"}
		}
		span.RecordError(err)
		return domain.Session{}, domain.PersistenceError{Op: "get session", Err: err}
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, domain.PersistenceError{Op: "decode session", Err: err}
	}
	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "Session.Repository.Delete")
	defer span.End()

	n, err := r.rdb.Del(ctx, sessionKey(token)).Result()
	if err != nil {
		span.RecordError(err)
		return domain.PersistenceError{Op: "delete session", Err: err}
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "session"}
	}
	return nil
}
