// Package authz decides allow/deny for an authenticated principal by walking
// User -> Role -> Permission. There is no role inheritance and no negative
// permission: a capability is held iff any held role grants it.
package authz

import (
	"context"
	"fmt"
	"sort"

	"todorbac/internal/apperr"
	"todorbac/internal/auth"
	"todorbac/internal/models"
)

type Mode string

const (
	// ModeLive resolves roles from the store on every check.
	ModeLive Mode = "live"
	// ModeToken trusts the snapshot embedded at issuance until the token expires.
	ModeToken Mode = "token"
)

type TokenValidator interface {
	Validate(ctx context.Context, token string) (auth.Principal, error)
}

type RoleSource interface {
	RolesOf(ctx context.Context, userID string) ([]models.Role, error)
}

type Evaluator struct {
	tokens TokenValidator
	roles  RoleSource
	mode   Mode
}

func NewEvaluator(tokens TokenValidator, roles RoleSource, mode Mode) *Evaluator {
	if mode != ModeToken {
		mode = ModeLive
	}
	return &Evaluator{tokens: tokens, roles: roles, mode: mode}
}

func (e *Evaluator) Mode() Mode { return e.mode }

// RequireAuthenticated validates token. Every token failure is reported as
// Unauthenticated; the underlying reason stays in the chain for logging.
func (e *Evaluator) RequireAuthenticated(ctx context.Context, token string) (auth.Principal, error) {
	p, err := e.tokens.Validate(ctx, token)
	if err != nil {
		if apperr.IsAuthentication(err) {
			return auth.Principal{}, apperr.Wrap(apperr.KindUnauthenticated, "authentication required", err)
		}
		return auth.Principal{}, err
	}
	return p, nil
}

func (e *Evaluator) RequireRole(ctx context.Context, p auth.Principal, role string) error {
	ok, err := e.HasRole(ctx, p, role)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.KindForbidden, "role %q required", role)
	}
	return nil
}

func (e *Evaluator) RequireCapability(ctx context.Context, p auth.Principal, permission string) error {
	ok, err := e.HasCapability(ctx, p, permission)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.KindForbidden, "capability %q required", permission)
	}
	return nil
}

func (e *Evaluator) HasRole(ctx context.Context, p auth.Principal, role string) (bool, error) {
	snap, err := e.view(ctx, p)
	if err != nil {
		return false, err
	}
	return contains(snap.Roles, role), nil
}

func (e *Evaluator) HasCapability(ctx context.Context, p auth.Principal, permission string) (bool, error) {
	snap, err := e.view(ctx, p)
	if err != nil {
		return false, err
	}
	return contains(snap.Permissions, permission), nil
}

// SnapshotFor returns what to embed in a new access token: the user's current
// roles in token mode, nil in live mode.
func (e *Evaluator) SnapshotFor(ctx context.Context, userID string) (*auth.Snapshot, error) {
	if e.mode != ModeToken {
		return nil, nil
	}
	roles, err := e.roles.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return SnapshotOf(roles), nil
}

// view picks the role set to evaluate against. A token without a snapshot
// falls back to live data even in token mode.
func (e *Evaluator) view(ctx context.Context, p auth.Principal) (*auth.Snapshot, error) {
	if p.UserID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if e.mode == ModeToken && p.Snapshot != nil {
		return p.Snapshot, nil
	}
	roles, err := e.roles.RolesOf(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	return SnapshotOf(roles), nil
}

// SnapshotOf flattens roles into sorted, de-duplicated role and permission names.
func SnapshotOf(roles []models.Role) *auth.Snapshot {
	roleSet := map[string]struct{}{}
	permSet := map[string]struct{}{}
	for _, r := range roles {
		roleSet[r.Name] = struct{}{}
		for _, p := range r.Permissions {
			permSet[p.Name] = struct{}{}
		}
	}
	return &auth.Snapshot{Roles: sortedKeys(roleSet), Permissions: sortedKeys(permSet)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
