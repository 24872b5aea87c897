package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/policy"
)

var tracer = otel.Tracer("auth")

// SessionResolver resolves an opaque session token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (domain.Session, error)
}

type AuthService struct {
	sessions   SessionResolver
	authorizer *policy.Authorizer
}

func NewAuthService(
	sessions SessionResolver,
	authorizer *policy.Authorizer,
) *AuthService {
	return &AuthService{
		sessions:   sessions,
		authorizer: authorizer,
	}
}

type AuthResult struct {
	UserID  string
	Role    domain.Role
	Session domain.Session
}

func (s *AuthService) AuthToken(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthToken")
	defer span.End()

	if token == "" {
		err := fmt.Errorf("empty session token")
		span.RecordError(err)
		return nil, domain.ErrUnauthorized
	}

	session, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		span.RecordError(errors.Wrap(err, "session resolve failed"))
		return nil, err
	}

	if !session.User.Role.Valid() {
		err := fmt.Errorf("invalid role %q", session.User.Role)
		span.RecordError(err)
		return nil, domain.ErrUnauthorized
	}

	span.SetAttributes(attribute.String("RequesterId", session.User.ID))
	return &AuthResult{
		UserID:  session.User.ID,
		Role:    session.User.Role,
		Session: session,
	}, nil
}

// Authorize checks the requester role stored in ctx against the policy.
func (s *AuthService) Authorize(ctx context.Context, resource, action string) error {
	_, span := tracer.Start(ctx, "Auth.Service.Authorize")
	defer span.End()
	span.SetAttributes(attribute.String("resource", resource), attribute.String("action", action))

	role, ok := ctx.Value(domain.RequesterRoleCtxKey).(domain.Role)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := s.authorizer.Authorize(role, resource, action); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
