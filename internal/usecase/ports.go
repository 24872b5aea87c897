package usecase

import (
	"context"
	"time"

	"github.com/robtrove/TroveCRM/internal/domain"
)

// EntityStore is the remote persistence boundary of one entity collection.
// List returns an empty non-nil slice when there are no records.
type EntityStore[T domain.Record] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, draft domain.Fields) (T, error)
	Update(ctx context.Context, id string, patch domain.Fields) (T, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository stores operator accounts with hashed credentials.
type UserRepository interface {
	Create(ctx context.Context, user domain.User, password string) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
}

// SessionRepository keeps server sessions keyed by opaque token.
type SessionRepository interface {
	Save(ctx context.Context, session domain.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// SettingsRepository stores raw JSON settings documents by key.
// Get returns nil without error when the key was never saved.
type SettingsRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// BillingGateway encapsulates the external billing provider.
type BillingGateway interface {
	Subscriptions(ctx context.Context, customerRef string) ([]domain.Subscription, error)
	Invoices(ctx context.Context, customerRef string) ([]domain.Invoice, error)
	CheckoutSession(ctx context.Context, planID, customerRef string) (domain.HostedSession, error)
	PortalSession(ctx context.Context, customerRef string) (domain.HostedSession, error)
}

// Publisher fans change events out to realtime listeners.
type Publisher interface {
	Publish(ctx context.Context, channel string, event domain.ChangeEvent) error
}
