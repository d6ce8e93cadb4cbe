package auth

import (
	"context"
	"time"
)

type ctxKey string

const principalKey ctxKey = "principal"

// Principal is the identity recovered from a validated access token.
type Principal struct {
	UserID    string
	TokenID   string
	RefreshID string
	ExpiresAt time.Time
	// Snapshot is non-nil only when the token embedded roles at issuance.
	Snapshot *Snapshot
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func Subject(ctx context.Context) string {
	p, _ := FromContext(ctx)
	return p.UserID
}
