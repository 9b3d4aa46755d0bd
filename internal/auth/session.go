package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
)

// SessionCookieName is the cookie that carries the signed session.
const SessionCookieName = "flood_session"

const userIDKey = "user_id"

// SessionSettings configures the session cookie.
type SessionSettings struct {
	Secret   string
	MaxAge   time.Duration
	Secure   bool
	SameSite string // none, lax, strict; empty picks from Secure
	Domain   string
}

// SessionManager issues and reads signed, encrypted session cookies.
type SessionManager struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

// NewSessionManager derives the cookie signing and encryption keys from the
// secret and resolves the cookie policy.
func NewSessionManager(settings SessionSettings, logger *slog.Logger) (*SessionManager, error) {
	hashKey, blockKey, err := deriveKeys(settings.Secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   strings.TrimSpace(settings.Domain),
		MaxAge:   int(settings.MaxAge / time.Second),
		Secure:   settings.Secure,
		HttpOnly: true,
		SameSite: resolveSameSite(settings.SameSite, settings.Secure, logger),
	}
	store.MaxAge(store.Options.MaxAge)

	logger.Info("session cookie settings resolved",
		"secure", store.Options.Secure,
		"same_site", sameSiteName(store.Options.SameSite),
		"domain", store.Options.Domain,
		"max_age", settings.MaxAge,
	)
	return &SessionManager{store: store, logger: logger}, nil
}

// Login binds the user to the request's session and writes the cookie.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	session, _ := m.store.Get(r, SessionCookieName) // undecodable cookies yield a fresh session
	session.Values[userIDKey] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout expires the session cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionCookieName)
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UserID returns the user bound to the request's session, if any.
func (m *SessionManager) UserID(r *http.Request) (string, bool) {
	session, err := m.store.Get(r, SessionCookieName)
	if err != nil {
		m.logger.Debug("discarding invalid session cookie", "error", err)
		return "", false
	}
	id, ok := session.Values[userIDKey].(string)
	return id, ok && id != ""
}

func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	if secret == "" {
		return nil, nil, errors.New("session secret is required")
	}
	keys := make([]byte, 64)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("flood-watch session cookie"))
	if _, err := io.ReadFull(kdf, keys); err != nil {
		return nil, nil, fmt.Errorf("derive session keys: %w", err)
	}
	return keys[:32], keys[32:], nil
}

// resolveSameSite maps the configured policy. Browsers reject SameSite=None
// without Secure, so that combination falls back to Lax.
func resolveSameSite(v string, secure bool, logger *slog.Logger) http.SameSite {
	var mode http.SameSite
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		mode = http.SameSiteNoneMode
	case "lax":
		mode = http.SameSiteLaxMode
	case "strict":
		mode = http.SameSiteStrictMode
	default:
		if secure {
			mode = http.SameSiteNoneMode
		} else {
			mode = http.SameSiteLaxMode
		}
	}

	if mode == http.SameSiteNoneMode && !secure {
		logger.Warn("SameSite=None requires a secure cookie; forcing SameSite=Lax")
		mode = http.SameSiteLaxMode
	}
	return mode
}

func sameSiteName(mode http.SameSite) string {
	switch mode {
	case http.SameSiteNoneMode:
		return "None"
	case http.SameSiteStrictMode:
		return "Strict"
	default:
		return "Lax"
	}
}
