package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/interface/rest/presenter"
	"github.com/robtrove/TroveCRM/internal/policy"
	"github.com/robtrove/TroveCRM/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(
	auth *service.AuthService,
) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// Token extracts the session token from a Bearer header, falling back to the
// session cookie.
func Token(r *http.Request) (string, error) {
	authHeader := r.Header.Get("authorization")
	if authHeader != "" {
		split := strings.Split(authHeader, " ")
		if len(split) != 2 {
			return "", fmt.Errorf("invalid authentication header")
		}
		authType, token := split[0], split[1]
		if authType != "Bearer" {
			return "", fmt.Errorf("only Bearer is acceptable")
		}
		return token, nil
	}
	cookie, err := r.Cookie(domain.SessionCookieName)
	if err != nil {
		return "", nil
	}
	return cookie.Value, nil
}

// IdentifyIdentity attaches the requester to the request context when a
// valid session token is presented. Anonymous requests pass through.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		token, err := Token(c.Request())
		if err != nil {
			span.RecordError(err)
			goto skipCheckAuthorization
		}

		if token != "" {
			result, err := s.auth.AuthToken(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthToken failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, result.UserID)
			ctx = context.WithValue(ctx, domain.RequesterRoleCtxKey, result.Role)
			ctx = context.WithValue(ctx, domain.SessionCtxKey, result.Session)
			span.SetAttributes(attribute.String("RequesterId", result.UserID))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireSession rejects requests without an identified requester.
func (s *AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Request().Context().Value(domain.SessionCtxKey).(domain.Session); !ok {
			return presenter.Unauthorized(c)
		}
		return next(c)
	}
}

// Authorize checks the requester role for action on resource.
func (s *AuthMiddleware) Authorize(resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := s.auth.Authorize(c.Request().Context(), resource, action); err != nil {
				return presenter.Error(c, err)
			}
			return next(c)
		}
	}
}

// ActionFor maps an HTTP method onto a policy action.
func ActionFor(method string) string {
	switch method {
	case http.MethodPost:
		return policy.ActionCreate
	case http.MethodPut, http.MethodPatch:
		return policy.ActionUpdate
	case http.MethodDelete:
		return policy.ActionDelete
	}
	return policy.ActionRead
}
