package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type mockUserRepo struct {
	users map[string]string
	made  []domain.User
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User, password string) (domain.User, error) {
	user.ID = "u-" + user.Username
	m.made = append(m.made, user)
	return user, nil
}

func (m *mockUserRepo) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	if pw, ok := m.users[username]; ok && pw == password {
		return domain.User{ID: "u-" + username, Username: username, Role: domain.RoleSales}, nil
	}
	return domain.User{}, domain.ErrUnauthorized
}

func (m *mockUserRepo) Get(ctx context.Context, id string) (domain.User, error) {
	return domain.User{}, domain.NotFoundError{Resource: "user", ID: id}
}

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	ttls     map[string]time.Duration
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: map[string]domain.Session{}, ttls: map[string]time.Duration{}}
}

func (m *mockSessionRepo) Save(ctx context.Context, s domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	m.ttls[s.Token] = ttl
	return nil
}

func (m *mockSessionRepo) Get(ctx context.Context, token string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return domain.Session{}, domain.NotFoundError{Resource: "session"}
	}
	return s, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[token]; !ok {
		return domain.NotFoundError{Resource: "session"}
	}
	delete(m.sessions, token)
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	users := &mockUserRepo{users: map[string]string{"sam": "correct horse"}}
	sessions := newMockSessionRepo()
	uc := NewSessionUsecase(users, sessions, time.Hour)
	ctx := context.Background()

	_, err := uc.Login(ctx, "sam", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	s, err := uc.Login(ctx, "sam", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, domain.DefaultPreferences(), s.Preferences)
	assert.Equal(t, time.Hour, sessions.ttls[s.Token])

	updated, err := uc.UpdatePreferences(ctx, s.Token, domain.Preferences{Theme: domain.ThemeDark, Currency: "GBP"})
	require.NoError(t, err)
	assert.Equal(t, "GBP", updated.Preferences.Currency)

	resolved, err := uc.Resolve(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, resolved.Preferences.Theme)

	_, err = uc.UpdatePreferences(ctx, s.Token, domain.Preferences{Currency: "BTC"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, uc.Logout(ctx, s.Token))
	require.NoError(t, uc.Logout(ctx, s.Token))
	_, err = uc.Resolve(ctx, s.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateUserValidation(t *testing.T) {
	users := &mockUserRepo{}
	uc := NewSessionUsecase(users, newMockSessionRepo(), time.Hour)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, domain.User{Username: "kim", Role: "owner"}, "long enough")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.CreateUser(ctx, domain.User{Username: "kim", Role: domain.RoleSupport}, "short")
	assert.ErrorIs(t, err, domain.ErrValidation)

	u, err := uc.CreateUser(ctx, domain.User{Username: " kim ", Role: domain.RoleSupport}, "long enough")
	require.NoError(t, err)
	assert.Equal(t, "kim", u.Username)
	assert.Len(t, users.made, 1)
}
