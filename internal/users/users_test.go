package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todorbac/internal/apperr"
	"todorbac/internal/database/databasetest"
	"todorbac/internal/models"
)

func newService(t *testing.T) *Service {
	return NewService(databasetest.Open(t), nil)
}

func TestRegisterThenVerify(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		email := fmt.Sprintf("user%d@x.com", i)
		u, err := svc.Register(ctx, "user", email, "secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.NotEqual(t, "secret1", u.PasswordHash)

		got, err := svc.Verify(ctx, email, "secret1")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = svc.Verify(ctx, email, "secret2")
		assert.ErrorIs(t, err, apperr.ErrInvalidSecret)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "  Alice@X.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", u.Email)

	_, err = svc.Verify(ctx, "ALICE@x.com", "secret1")
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "bob@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice again", "alice@x.com", "another")
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)
}

func TestRegisterDuplicateEmailRaceIsClassified(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "x", "race@x.com", "secret1")
	require.NoError(t, err)

	// the insert that loses the race past the existence check
	err = insert(svc.db.WithContext(ctx), &models.User{Name: "y", Email: "race@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []struct{ name, email, secret string }{
		{"", "a@x.com", "secret1"},
		{"   ", "a@x.com", "secret1"},
		{"a", "", "secret1"},
		{"a", "not-an-email", "secret1"},
		{"a", "a@localhost", "secret1"},
		{"a", "Alice <a@x.com>", "secret1"},
		{"a", "a@x.com", "12345"},
	}
	for _, c := range cases {
		_, err := svc.Register(ctx, c.name, c.email, c.secret)
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", c)
	}
}

func TestVerifyUnknownEmail(t *testing.T) {
	svc := newService(t)
	_, err := svc.Verify(context.Background(), "ghost@x.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMeAndList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	role := models.Role{Name: "ADMIN", Permissions: []models.Permission{{Name: "delete:todos"}}}
	require.NoError(t, svc.db.Create(&role).Error)
	u, err := svc.Register(ctx, "alice", "alice@x.com", "secret1", role.ID)
	require.NoError(t, err)
	require.NoError(t, svc.db.Create(&models.Todo{Title: "buy milk", Status: models.StatusPending, UserID: u.ID}).Error)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, me.Todos, 1)
	assert.Equal(t, "buy milk", me.Todos[0].Title)
	require.Len(t, me.Roles, 1)
	require.Len(t, me.Roles[0].Permissions, 1)
	assert.Equal(t, "delete:todos", me.Roles[0].Permissions[0].Name)

	_, err = svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterWithRoleIsAtomic(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	role := models.Role{Name: "USER"}
	require.NoError(t, svc.db.Create(&role).Error)

	u, err := svc.Register(ctx, "alice", "alice@x.com", "secret1", role.ID)
	require.NoError(t, err)
	var assigned int64
	require.NoError(t, svc.db.Table(models.TableUserRoles).Where("user_id = ?", u.ID).Count(&assigned).Error)
	assert.EqualValues(t, 1, assigned)

	require.NoError(t, svc.db.Migrator().DropTable(models.TableUserRoles))
	_, err = svc.Register(ctx, "dave", "dave@x.com", "secret1", role.ID)
	assert.ErrorIs(t, err, apperr.ErrInternal)

	var users int64
	require.NoError(t, svc.db.Model(&models.User{}).Where("email = ?", "dave@x.com").Count(&users).Error)
	assert.Zero(t, users, "no user row survives a failed role assignment")

	_, err = svc.Verify(ctx, "dave@x.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
