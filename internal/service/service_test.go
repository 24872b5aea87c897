package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/policy"
)

type mockResolver struct {
	sessions map[string]domain.Session
}

func (m *mockResolver) Resolve(ctx context.Context, token string) (domain.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrUnauthorized
	}
	return s, nil
}

func newAuthService() *AuthService {
	resolver := &mockResolver{sessions: map[string]domain.Session{
		"tok-support": {Token: "tok-support", User: domain.User{ID: "u1", Role: domain.RoleSupport}},
		"tok-bogus":   {Token: "tok-bogus", User: domain.User{ID: "u2", Role: "intern"}},
	}}
	return NewAuthService(resolver, policy.NewAuthorizer(policy.DefaultPolicy()))
}

func TestAuthToken(t *testing.T) {
	auth := newAuthService()
	ctx := context.Background()

	result, err := auth.AuthToken(ctx, "tok-support")
	require.NoError(t, err)
	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, domain.RoleSupport, result.Role)

	_, err = auth.AuthToken(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = auth.AuthToken(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = auth.AuthToken(ctx, "tok-bogus")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthorize(t *testing.T) {
	auth := newAuthService()

	assert.ErrorIs(t, auth.Authorize(context.Background(), domain.CollectionCustomers, policy.ActionRead), domain.ErrUnauthorized)

	ctx := context.WithValue(context.Background(), domain.RequesterRoleCtxKey, domain.RoleSupport)
	assert.NoError(t, auth.Authorize(ctx, domain.CollectionTickets, policy.ActionUpdate))
	assert.ErrorIs(t, auth.Authorize(ctx, domain.CollectionCustomers, policy.ActionDelete), domain.ErrForbidden)
}

func TestSubscriptionChannels(t *testing.T) {
	got := SubscriptionChannels([]string{"deals", "bogus", "deals", "tickets"})
	assert.Equal(t, []string{"crm:deals", "crm:tickets"}, got)
	assert.Empty(t, SubscriptionChannels(nil))
}

func TestRealtimeRelaysPublishedEvents(t *testing.T) {
	addr := os.Getenv("TROVECRM_TEST_REDIS")
	if addr == "" {
		t.Skip("TROVECRM_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	signal := NewSignalService(rdb, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	input := make(chan []string)
	output := make(chan domain.ChangeEvent)
	done := make(chan struct{})
	go func() {
		signal.Realtime(ctx, input, output)
		close(done)
	}()
	input <- []string{domain.CollectionDeals}

	event := domain.ChangeEvent{Collection: domain.CollectionDeals, Type: domain.ChangeDeleted, ID: "d1", Time: time.Now().UTC()}
	require.Eventually(t, func() bool {
		require.NoError(t, signal.Publish(ctx, domain.ChannelFor(domain.CollectionDeals), event))
		select {
		case got := <-output:
			assert.Equal(t, "d1", got.ID)
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
