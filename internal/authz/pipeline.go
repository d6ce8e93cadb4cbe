package authz

import (
	"context"
	"sort"

	"todorbac/internal/auth"
)

type stage int

const (
	stageRole stage = iota + 1
	stageCapability
)

// Check is one step of an authorization pipeline.
type Check struct {
	Name  string
	stage stage
	run   func(ctx context.Context, e *Evaluator, p auth.Principal) error
}

func Role(name string) Check {
	return Check{Name: "role:" + name, stage: stageRole, run: func(ctx context.Context, e *Evaluator, p auth.Principal) error {
		return e.RequireRole(ctx, p, name)
	}}
}

func Capability(name string) Check {
	return Check{Name: "capability:" + name, stage: stageCapability, run: func(ctx context.Context, e *Evaluator, p auth.Principal) error {
		return e.RequireCapability(ctx, p, name)
	}}
}

// Authorize authenticates token, then runs role checks before capability
// checks regardless of argument order. The first failure is returned and no
// later check runs.
func (e *Evaluator) Authorize(ctx context.Context, token string, checks ...Check) (auth.Principal, error) {
	p, err := e.RequireAuthenticated(ctx, token)
	if err != nil {
		return auth.Principal{}, err
	}
	if err := e.Check(ctx, p, checks...); err != nil {
		return auth.Principal{}, err
	}
	return p, nil
}

// Check runs checks against an already authenticated principal.
func (e *Evaluator) Check(ctx context.Context, p auth.Principal, checks ...Check) error {
	ordered := append([]Check(nil), checks...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].stage < ordered[j].stage })
	for _, c := range ordered {
		if err := c.run(ctx, e, p); err != nil {
			return err
		}
	}
	return nil
}
