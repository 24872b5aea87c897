package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robtrove/TroveCRM/internal/domain"
)

const minPasswordLength = 8

type SessionUsecase struct {
	users    UserRepository
	sessions SessionRepository
	ttl      time.Duration
}

func NewSessionUsecase(users UserRepository, sessions SessionRepository, ttl time.Duration) *SessionUsecase {
	return &SessionUsecase{users: users, sessions: sessions, ttl: ttl}
}

func (uc *SessionUsecase) Login(ctx context.Context, username, password string) (domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Session.Usecase.Login")
	defer span.End()

	user, err := uc.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return domain.Session{}, domain.ErrUnauthorized
		}
		return domain.Session{}, err
	}

	session := domain.Session{
		Token:       uuid.NewString(),
		User:        user,
		Preferences: domain.DefaultPreferences(),
		ExpiresAt:   time.Now().UTC().Add(uc.ttl),
	}
	if err := uc.sessions.Save(ctx, session, uc.ttl); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Resolve returns the live session of token or ErrUnauthorized.
func (uc *SessionUsecase) Resolve(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}
	session, err := uc.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrUnauthorized
		}
		return domain.Session{}, err
	}
	return session, nil
}

func (uc *SessionUsecase) Logout(ctx context.Context, token string) error {
	err := uc.sessions.Delete(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// UpdatePreferences stores new preferences, keeping the session's expiry.
func (uc *SessionUsecase) UpdatePreferences(ctx context.Context, token string, prefs domain.Preferences) (domain.Session, error) {
	prefs, err := prefs.Normalize()
	if err != nil {
		return domain.Session{}, err
	}
	session, err := uc.Resolve(ctx, token)
	if err != nil {
		return domain.Session{}, err
	}
	session.Preferences = prefs
	remaining := time.Until(session.ExpiresAt)
	if remaining <= 0 {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if err := uc.sessions.Save(ctx, session, remaining); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (uc *SessionUsecase) CreateUser(ctx context.Context, user domain.User, password string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Session.Usecase.CreateUser")
	defer span.End()

	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return domain.User{}, domain.ValidationError{Field: "username", Message: "required"}
	}
	if !user.Role.Valid() {
		return domain.User{}, domain.ValidationError{Field: "role", Message: "must be admin, support or sales"}
	}
	if len(password) < minPasswordLength {
		return domain.User{}, domain.ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	return uc.users.Create(ctx, user, password)
}
