package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todorbac/internal/database/databasetest"
	"todorbac/internal/rbac"
	"todorbac/internal/users"
)

func TestRunIsIdempotent(t *testing.T) {
	db := databasetest.Open(t)
	graph := rbac.NewService(db, nil)
	accounts := users.NewService(db, nil)
	ctx := context.Background()
	lg := zap.NewNop().Sugar()

	opts := Options{DemoUsers: true}
	require.NoError(t, Run(ctx, graph, accounts, opts, lg))
	require.NoError(t, Run(ctx, graph, accounts, opts, lg))

	roles, err := graph.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "USER", roles[0].Name)
	assert.Empty(t, roles[0].Permissions)
	assert.Equal(t, "ADMIN", roles[1].Name)
	require.Len(t, roles[1].Permissions, 1)
	assert.Equal(t, "delete:todos", roles[1].Permissions[0].Name)

	admin, err := accounts.Verify(ctx, "admin@admin.fr", "123456")
	require.NoError(t, err)
	adminRoles, err := graph.RolesOf(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, adminRoles, 1)
	assert.Equal(t, "ADMIN", adminRoles[0].Name)

	user, err := accounts.Verify(ctx, "user@user.fr", "123456")
	require.NoError(t, err)
	userRoles, err := graph.RolesOf(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, userRoles, 1)
	assert.Equal(t, "USER", userRoles[0].Name)
}

func TestRunWithoutDemoUsers(t *testing.T) {
	db := databasetest.Open(t)
	graph := rbac.NewService(db, nil)
	accounts := users.NewService(db, nil)
	ctx := context.Background()

	require.NoError(t, Run(ctx, graph, accounts, Options{AdminRole: "Administrator"}, zap.NewNop().Sugar()))

	_, err := graph.RoleByName(ctx, "Administrator")
	assert.NoError(t, err)
	all, err := accounts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
