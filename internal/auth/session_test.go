package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T, settings SessionSettings) *SessionManager {
	t.Helper()
	if settings.Secret == "" {
		settings.Secret = "test-secret"
	}
	if settings.MaxAge == 0 {
		settings.MaxAge = 24 * time.Hour
	}
	m, err := NewSessionManager(settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", SessionCookieName)
	return nil
}

func TestSession_LoginRoundTrip(t *testing.T) {
	m := newTestSessions(t, SessionSettings{})

	rec := httptest.NewRecorder()
	require.NoError(t, m.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), "user-1"))

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	id, ok := m.UserID(req)
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}

func TestSession_NoCookie(t *testing.T) {
	m := newTestSessions(t, SessionSettings{})

	_, ok := m.UserID(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.False(t, ok)
}

func TestSession_TamperedCookie(t *testing.T) {
	m := newTestSessions(t, SessionSettings{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	_, ok := m.UserID(req)
	assert.False(t, ok)
}

func TestSession_OtherSecretRejected(t *testing.T) {
	issuer := newTestSessions(t, SessionSettings{Secret: "secret-a"})
	verifier := newTestSessions(t, SessionSettings{Secret: "secret-b"})

	rec := httptest.NewRecorder()
	require.NoError(t, issuer.Login(rec, httptest.NewRequest(http.MethodPost, "/", nil), "user-1"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rec))
	_, ok := verifier.UserID(req)
	assert.False(t, ok)
}

func TestSession_Logout(t *testing.T) {
	m := newTestSessions(t, SessionSettings{})

	login := httptest.NewRecorder()
	require.NoError(t, m.Login(login, httptest.NewRequest(http.MethodPost, "/", nil), "user-1"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(sessionCookie(t, login))
	rec := httptest.NewRecorder()
	require.NoError(t, m.Logout(rec, req))

	cookie := sessionCookie(t, rec)
	assert.Negative(t, cookie.MaxAge)
}

func TestSession_SecureCookiePolicy(t *testing.T) {
	m := newTestSessions(t, SessionSettings{Secure: true, Domain: "floods.example.lk"})

	rec := httptest.NewRecorder()
	require.NoError(t, m.Login(rec, httptest.NewRequest(http.MethodPost, "/", nil), "user-1"))

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, "floods.example.lk", cookie.Domain)
}

func TestNewSessionManager_EmptySecret(t *testing.T) {
	_, err := NewSessionManager(SessionSettings{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestResolveSameSite(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		value  string
		secure bool
		want   http.SameSite
	}{
		{"", false, http.SameSiteLaxMode},
		{"", true, http.SameSiteNoneMode},
		{"none", true, http.SameSiteNoneMode},
		{"None", false, http.SameSiteLaxMode},
		{"strict", false, http.SameSiteStrictMode},
		{" LAX ", true, http.SameSiteLaxMode},
		{"bogus", false, http.SameSiteLaxMode},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveSameSite(tt.value, tt.secure, logger))
		})
	}
}
