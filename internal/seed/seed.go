// Package seed installs the bootstrap roles and permissions. Every step is
// idempotent so it runs on each start.
package seed

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"todorbac/internal/apperr"
	"todorbac/internal/models"
	"todorbac/internal/rbac"
	"todorbac/internal/todos"
	"todorbac/internal/users"
)

const demoPassword = "123456"

type Options struct {
	AdminRole string
	UserRole  string
	DemoUsers bool
}

type demoUser struct {
	name, email string
	admin       bool
}

var demoUsers = []demoUser{
	{name: "user", email: "user@user.fr"},
	{name: "admin", email: "admin@admin.fr", admin: true},
}

func Run(ctx context.Context, graph *rbac.Service, accounts *users.Service, opts Options, lg *zap.SugaredLogger) error {
	if opts.AdminRole == "" {
		opts.AdminRole = "ADMIN"
	}
	if opts.UserRole == "" {
		opts.UserRole = "USER"
	}
	userRole, err := ensureRole(ctx, graph, opts.UserRole)
	if err != nil {
		return err
	}
	adminRole, err := ensureRole(ctx, graph, opts.AdminRole)
	if err != nil {
		return err
	}
	perm, err := ensurePermission(ctx, graph, todos.DeleteAnyCapability)
	if err != nil {
		return err
	}
	if err := ignore(graph.GrantPermissionToRole(ctx, adminRole.ID, perm.ID), apperr.ErrAlreadyGranted); err != nil {
		return err
	}
	lg.Infow("seeded roles", "roles", []string{userRole.Name, adminRole.Name}, "permission", perm.Name)

	if !opts.DemoUsers {
		return nil
	}
	for _, d := range demoUsers {
		u, err := ensureUser(ctx, accounts, d)
		if err != nil {
			return err
		}
		role := userRole
		if d.admin {
			role = adminRole
		}
		if err := ignore(graph.AssignRoleToUser(ctx, u.ID, role.ID), apperr.ErrAlreadyAssigned); err != nil {
			return err
		}
		lg.Infow("seeded demo user", "email", u.Email, "role", role.Name)
	}
	return nil
}

func ensureRole(ctx context.Context, graph *rbac.Service, name string) (models.Role, error) {
	if _, err := graph.CreateRole(ctx, name); err != nil && !errors.Is(err, apperr.ErrDuplicateName) {
		return models.Role{}, err
	}
	return graph.RoleByName(ctx, name)
}

func ensurePermission(ctx context.Context, graph *rbac.Service, name string) (models.Permission, error) {
	if _, err := graph.CreatePermission(ctx, name); err != nil && !errors.Is(err, apperr.ErrDuplicateName) {
		return models.Permission{}, err
	}
	return graph.PermissionByName(ctx, name)
}

func ensureUser(ctx context.Context, accounts *users.Service, d demoUser) (models.User, error) {
	u, err := accounts.Register(ctx, d.name, d.email, demoPassword)
	if errors.Is(err, apperr.ErrDuplicateEmail) {
		return accounts.FindByEmail(ctx, d.email)
	}
	return u, err
}

func ignore(err, benign error) error {
	if errors.Is(err, benign) {
		return nil
	}
	return err
}
