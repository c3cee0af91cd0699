// Package auth provides authentication and session management utilities.
//
// Session keys should be 32 or 64 bytes for HMAC authentication,
// and 16, 24, or 32 bytes for AES encryption. Production deployments
// must use cryptographically random keys generated with:
//
//	openssl rand -base64 32
package auth

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/crm/pkg/config"
)

const (
	sessionKeyPrefix     = "session:"
	defaultSessionMaxAge = 7 * 24 * time.Hour
)

// RedisStore is a sessions.Store backed by Redis.
// Session data is stored server-side in Redis; only an encrypted session ID
// travels in the client cookie (HttpOnly, Secure in production, SameSite Lax).
//
// Redis keys: "session:<id>" with TTL equal to the session MaxAge.
// Values are gob-encoded; register custom types via gob.Register before use.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	options *sessions.Options
}

// SessionConfig holds the cookie keys and lifetime shared by both stores.
type SessionConfig struct {
	AuthKey       []byte        // 32 or 64 bytes, HMAC
	EncryptionKey []byte        // 16, 24 or 32 bytes, AES
	Secure        bool          // HTTPS-only cookies
	MaxAge        time.Duration // zero means defaultSessionMaxAge
}

// SessionConfigFrom builds a SessionConfig from the application config.
// Cookies are Secure in production.
func SessionConfigFrom(cfg *config.Config) SessionConfig {
	return SessionConfig{
		AuthKey:       []byte(cfg.SessionAuthKey),
		EncryptionKey: []byte(cfg.SessionEncryptionKey),
		Secure:        cfg.Environment == config.EnvProduction,
		MaxAge:        cfg.SessionMaxAge,
	}
}

func (c SessionConfig) options() *sessions.Options {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewStore returns the Redis-backed store when client is non-nil and the
// cookie store otherwise.
func NewStore(c SessionConfig, client *redis.Client) sessions.Store {
	if client != nil {
		return NewSessionStore(client, c)
	}
	return NewCookieSessionStore(c)
}

// NewSessionStore creates a Redis-backed session store. Only the encrypted
// session id travels in the cookie.
func NewSessionStore(client *redis.Client, c SessionConfig) *RedisStore {
	return &RedisStore{
		client:  client,
		codecs:  securecookie.CodecsFromPairs(c.AuthKey, c.EncryptionKey),
		options: c.options(),
	}
}

// NewCookieSessionStore is the fallback store used when Redis is disabled.
// Session values travel in the encrypted cookie itself.
func NewCookieSessionStore(c SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore(c.AuthKey, c.EncryptionKey)
	store.Options = c.options()
	return store
}

// Get returns the request-scoped session registered under name.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie. A missing,
// tampered or expired cookie, or a Redis miss, yields a fresh session and
// no error.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	id, ok := s.cookieID(r, name)
	if !ok {
		return session, nil
	}
	session.ID = id
	if err := s.load(r.Context(), session); err != nil {
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

func (s *RedisStore) cookieID(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return "", false
	}
	return id, true
}

// Save writes the session values to Redis and the id to the cookie.
// A negative MaxAge deletes both.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(r.Context(), sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}
	if err := s.save(r.Context(), session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func newSessionID() string {
	raw := base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	return strings.TrimRight(raw, "=")
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (s *RedisStore) save(ctx context.Context, session *sessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	return s.client.Set(ctx, sessionKey(session.ID), buf.Bytes(), ttl).Err()
}

func (s *RedisStore) load(ctx context.Context, session *sessions.Session) error {
	data, err := s.client.Get(ctx, sessionKey(session.ID)).Bytes()
	if err != nil {
		return err
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values)
}
