// Package auth carries the acting user's identity through request
// contexts. Authentication itself happens upstream in the identity
// provider; this package only transports what it asserted. Requests
// without an identity run unscoped (single-tenant mode).
package auth

import (
	"context"
	"net/http"
	"strconv"
)

// Identity is the acting user as asserted by the identity provider.
type Identity struct {
	ID    uint
	Email string
	Name  string
}

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// UserIDFromContext returns the acting user's id, or zero when the request
// is unscoped.
func UserIDFromContext(ctx context.Context) uint {
	id, _ := FromContext(ctx)
	return id.ID
}

// Middleware lifts the identity headers set by the upstream identity
// provider into the request context. Missing headers are not an error.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("X-User-Id"); v != "" {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				id := Identity{
					ID:    uint(n),
					Email: r.Header.Get("X-User-Email"),
					Name:  r.Header.Get("X-User-Name"),
				}
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
