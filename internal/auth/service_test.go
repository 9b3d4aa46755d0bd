package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mock store ---

type memoryUsers struct {
	mu     sync.Mutex
	byName map[string]domain.User
	err    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byName: map[string]domain.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	if _, ok := m.byName[u.Username]; ok {
		return domain.User{}, domain.ErrConflict
	}
	m.byName[u.Username] = u
	return u, nil
}

func (m *memoryUsers) UserByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memoryUsers) UserByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	u, ok := m.byName[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func newTestService(users UserStore) (*Service, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	svc := NewService(users, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.cost = bcrypt.MinCost
	return svc, metrics
}

// --- tests ---

func TestRegister(t *testing.T) {
	users := newMemoryUsers()
	svc, metrics := newTestService(users)

	u, err := svc.Register(context.Background(), Registration{
		Username: "  nimal ",
		Password: "secret1",
		Email:    "nimal@example.lk",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "nimal", u.Username)
	assert.Equal(t, "nimal@example.lk", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.True(t, CheckPassword(u.PasswordHash, "secret1"))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UsersRegistered), 0)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		reg  Registration
	}{
		{"short username", Registration{Username: "ab", Password: "secret1"}},
		{"username with space", Registration{Username: "ni mal", Password: "secret1"}},
		{"short password", Registration{Username: "nimal", Password: "12345"}},
		{"password over bcrypt limit", Registration{Username: "nimal", Password: string(make([]byte, 73))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(newMemoryUsers())
			_, err := svc.Register(context.Background(), tt.reg)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, metrics := newTestService(newMemoryUsers())
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Username: "nimal", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, Registration{Username: "nimal", Password: "secret2"})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UsersRegistered), 0)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(newMemoryUsers())
	ctx := context.Background()
	registered, err := svc.Register(ctx, Registration{Username: "nimal", Password: "secret1"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "nimal", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	_, err = svc.Authenticate(ctx, "nimal", "wrong-password")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "ghost", "secret1")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_UnknownUserStillComparesHash(t *testing.T) {
	svc, _ := newTestService(newMemoryUsers())
	ctx := context.Background()
	_, err := svc.Register(ctx, Registration{Username: "nimal", Password: "secret1"})
	require.NoError(t, err)

	var hashes []string
	svc.compare = func(hash, password string) bool {
		hashes = append(hashes, hash)
		return CheckPassword(hash, password)
	}

	_, err = svc.Authenticate(ctx, "ghost", "secret1")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "nimal", "wrong-password")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.Len(t, hashes, 2)
	cost, err := bcrypt.Cost([]byte(hashes[0]))
	require.NoError(t, err, "unknown users are checked against a real bcrypt hash")
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.NotEqual(t, hashes[0], hashes[1])
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	users := newMemoryUsers()
	users.err = errors.New("database unreachable")
	svc, _ := newTestService(users)

	_, err := svc.Authenticate(context.Background(), "nimal", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUser(t *testing.T) {
	svc, _ := newTestService(newMemoryUsers())
	ctx := context.Background()
	registered, err := svc.Register(ctx, Registration{Username: "nimal", Password: "secret1"})
	require.NoError(t, err)

	u, err := svc.User(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "nimal", u.Username)

	_, err = svc.User(ctx, "deleted-user")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
	assert.False(t, CheckPassword("not-a-hash", "secret1"))
}
