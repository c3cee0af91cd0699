package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// SystemActor is recorded as the acting principal when a request carries no
// authenticated user.
const SystemActor = "System"

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const principalKey contextKey = "principal"

// ErrPrincipalNotFound is returned when no Principal exists in the request context.
// Handlers should return 401 when this error occurs on protected routes.
var ErrPrincipalNotFound = errors.New("principal not found in context")

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Name   string
}

// PrincipalFromCtx extracts the authenticated principal from the request context.
// Returns ErrPrincipalNotFound if none is set (unauthenticated request).
func PrincipalFromCtx(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

// WithPrincipal returns a new context with the given Principal attached.
// Used by authentication middleware after validating the session.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// ActorFromCtx returns the display name to stamp on audit records: the
// principal's name, or SystemActor when the request is unauthenticated or the
// name is blank.
func ActorFromCtx(ctx context.Context) string {
	p, err := PrincipalFromCtx(ctx)
	if err != nil || strings.TrimSpace(p.Name) == "" {
		return SystemActor
	}
	return p.Name
}
