// Package auth provides authentication utilities for API keys.
package auth

import (
	"context"

	"github.com/briefly/briefly/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity adds the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated identity from the
// context. Returns nil if not present.
func IdentityFromContext(ctx context.Context) *model.Identity {
	id, ok := ctx.Value(identityKey).(*model.Identity)
	if !ok {
		return nil
	}
	return id
}
