package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/infra/database/models"
)

type UserRepository struct {
	db   *gorm.DB
	cost int
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db, cost: bcrypt.DefaultCost}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User, password string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Repository.Create")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return domain.User{}, domain.ValidationError{Field: "password", Message: err.Error()}
	}

	m := models.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(user.Username),
		Name:         user.Name,
		Email:        user.Email,
		Role:         string(user.Role),
		PasswordHash: string(hash),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, domain.ValidationError{Field: "username", Message: "already taken"}
		}
		return domain.User{}, domain.PersistenceError{Op: "create user", Err: err}
	}
	return userFromModel(m), nil
}

// Authenticate returns ErrUnauthorized for both unknown users and bad passwords.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Repository.Authenticate")
	defer span.End()

	var m models.User
	err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		span.RecordError(err)
		return domain.User{}, domain.PersistenceError{Op: "get user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	return userFromModel(m), nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Repository.Get")
	defer span.End()

	var m models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.NotFoundError{Resource: "user", ID: id}
		}
		return domain.User{}, domain.PersistenceError{Op: "get user", Err: err}
	}
	return userFromModel(m), nil
}

func userFromModel(m models.User) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Name:         m.Name,
		Email:        m.Email,
		Role:         domain.Role(m.Role),
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}
