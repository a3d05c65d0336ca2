package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"inventario/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Flash kinds understood by the page envelope
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-time notification shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Manager orchestrates cookie based sessions backed by Redis. The cookie
// only carries a signed session id; all state lives under session:<id>.
type Manager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session state.
type Session struct {
	ID         string
	principal  *domain.Principal
	flashes    []Flash
	previousID string
	isNew      bool
	dirty      bool
	destroyed  bool
}

type payload struct {
	Principal *domain.Principal `json:"principal,omitempty"`
	Flashes   []Flash           `json:"flashes,omitempty"`
}

// NewManager constructs a Manager.
func NewManager(client *redis.Client, cookieName, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load returns the session referenced by the request cookie. A missing,
// forged, expired or unknown cookie yields a fresh anonymous session.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return m.newSession(), nil
	}

	sid, err := m.parseToken(cookie.Value)
	if err != nil {
		return m.newSession(), nil
	}

	data, err := m.client.Get(ctx, redisKey(sid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return m.newSession(), nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stored payload
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &Session{
		ID:        sid,
		principal: stored.Principal,
		flashes:   stored.Flashes,
	}, nil
}

// Commit persists a modified session and writes the cookie. Untouched
// anonymous sessions are never stored.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		keys := []string{redisKey(sess.ID)}
		if sess.previousID != "" {
			keys = append(keys, redisKey(sess.previousID))
		}
		if err := m.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}

	if !sess.dirty {
		return nil
	}

	data, err := json.Marshal(payload{Principal: sess.principal, Flashes: sess.flashes})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, redisKey(sess.ID), data, m.ttl)
	if sess.previousID != "" {
		pipe.Del(ctx, redisKey(sess.previousID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	token, err := m.signToken(sess.ID, time.Now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.ttl),
	})

	sess.dirty = false
	sess.isNew = false
	sess.previousID = ""
	return nil
}

// Renew moves the session to a fresh id and returns the old one. Called on
// login so a pre-authentication cookie cannot be reused.
func (m *Manager) Renew(sess *Session) string {
	old := sess.ID
	if !sess.isNew {
		sess.previousID = old
	}
	sess.ID = newID()
	sess.dirty = true
	return old
}

// Destroy marks the session for deletion on Commit.
func (m *Manager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// TTL exposes the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) newSession() *Session {
	return &Session{ID: newID(), isNew: true}
}

// Principal returns the authenticated principal or nil for anonymous sessions.
func (s *Session) Principal() *domain.Principal {
	return s.principal
}

// SetPrincipal binds the session to an authenticated user.
func (s *Session) SetPrincipal(p *domain.Principal) {
	s.principal = p
	s.dirty = true
}

// AddFlash queues a flash message.
func (s *Session) AddFlash(kind, message string) {
	s.flashes = append(s.flashes, Flash{Kind: kind, Message: message})
	s.dirty = true
}

// PopFlashes returns and clears every queued flash.
func (s *Session) PopFlashes() []Flash {
	if len(s.flashes) == 0 {
		return []Flash{}
	}
	flashes := s.flashes
	s.flashes = nil
	s.dirty = true
	return flashes
}

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool {
	return s.isNew
}

func redisKey(id string) string {
	return "session:" + id
}

func newID() string {
	return uuid.NewString()
}
