package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/crm/pkg/httpx"
	"github.com/ghuser/crm/pkg/logger"
)

const (
	sessionName        = "crm_session"
	sessionUserIDKey   = "user_id"
	sessionUserNameKey = "user_name"
)

var errNoSessionUser = errors.New("session has no user")

// SavePrincipal stores p in the session cookie so subsequent requests resolve
// to the same principal. Issuing sessions is left to the identity provider
// that shares the session store; this helper is the write side of that
// contract.
func SavePrincipal(w http.ResponseWriter, r *http.Request, store sessions.Store, p Principal) error {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	session.Values[sessionUserIDKey] = p.UserID.String()
	session.Values[sessionUserNameKey] = p.Name
	return session.Save(r, w)
}

// LoadPrincipal is a chi middleware that attaches the session principal to the
// request context when one is present. Requests without a valid session pass
// through unchanged and are attributed to SystemActor downstream.
func LoadPrincipal(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principalFromSession(store, r)
			if err != nil {
				if !errors.Is(err, errNoSessionUser) {
					log.DebugContext(r.Context(), "ignoring unusable session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAuth is a chi middleware that enforces authentication via session cookies.
// It reads the session cookie, extracts the principal, and injects it into the request context.
// Returns 401 Unauthorized if the session is missing, invalid, or lacks a valid user id.
//
// After this middleware, handlers can safely call auth.PrincipalFromCtx(r.Context()).
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principalFromSession(store, r)
			if err != nil {
				log.WarnContext(r.Context(), "authentication rejected", "error", err)
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func principalFromSession(store sessions.Store, r *http.Request) (Principal, error) {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid session cookie: %w", err)
	}

	idStr, ok := session.Values[sessionUserIDKey].(string)
	if !ok || idStr == "" {
		return Principal{}, errNoSessionUser
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid user_id %q in session: %w", idStr, err)
	}

	name, _ := session.Values[sessionUserNameKey].(string)
	return Principal{UserID: id, Name: name}, nil
}
