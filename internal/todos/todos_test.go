package todos

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todorbac/internal/apperr"
	"todorbac/internal/database/databasetest"
	"todorbac/internal/models"
)

func setup(t *testing.T) (*Service, *gorm.DB) {
	db := databasetest.Open(t)
	return NewService(db, nil), db
}

func newUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@x.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestCreateAndListInCreationOrder(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, alice.ID, fmt.Sprintf("task %d", i), "")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, bob.ID, "bob's", "DONE")
	require.NoError(t, err)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, td := range list {
		assert.Equal(t, fmt.Sprintf("task %d", i), td.Title)
		assert.Equal(t, models.StatusPending, td.Status)
		assert.False(t, td.Completed)
		assert.Equal(t, alice.ID, td.UserID)
	}

	empty, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCreateValidation(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice")

	_, err := svc.Create(ctx, alice.ID, "  ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, alice.ID, "x", "LATER")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	td, err := svc.Create(ctx, alice.ID, "x", "in_progress")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, td.Status)

	_, err = svc.Create(ctx, "ghost", "x", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateTitleOwnerOnly(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")
	td, err := svc.Create(ctx, alice.ID, "buy milk", "")
	require.NoError(t, err)

	got, err := svc.Update(ctx, td.ID, alice.ID, "buy oat milk")
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", got.Title)

	_, err = svc.Update(ctx, td.ID, bob.ID, "stolen")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Update(ctx, td.ID, alice.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", list[0].Title)
}

func TestToggleCompletionPair(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice")
	td, err := svc.Create(ctx, alice.ID, "buy milk", "")
	require.NoError(t, err)

	once, err := svc.ToggleCompletion(ctx, td.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, once.Completed)

	twice, err := svc.ToggleCompletion(ctx, td.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, twice.Completed)

	_, err = svc.ToggleCompletion(ctx, td.ID+100, alice.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice")

	for _, from := range models.TodoStatuses() {
		for _, to := range models.TodoStatuses() {
			td, err := svc.Create(ctx, alice.ID, "t", string(from))
			require.NoError(t, err)

			got, err := svc.UpdateStatus(ctx, td.ID, alice.ID, string(to))
			if from == to {
				assert.ErrorIs(t, err, apperr.ErrNoOpTransition, "%s -> %s", from, to)
				continue
			}
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, got.Status)
		}
	}

	td, err := svc.Create(ctx, alice.ID, "t", "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, td.ID, alice.ID, "FINISHED")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateStatus(ctx, 9999, alice.ID, "DONE")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	a1, err := svc.Create(ctx, alice.ID, "a1", "")
	require.NoError(t, err)
	a2, err := svc.Create(ctx, alice.ID, "a2", "")
	require.NoError(t, err)

	// not owner, no capability
	err = svc.Delete(ctx, a1.ID, bob.ID, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, a1.ID, alice.ID, false))
	assert.ErrorIs(t, svc.Delete(ctx, a1.ID, alice.ID, false), apperr.ErrNotFound)

	// capability holder may delete someone else's todo
	require.NoError(t, svc.Delete(ctx, a2.ID, bob.ID, true))
	assert.ErrorIs(t, svc.Delete(ctx, a2.ID, bob.ID, true), apperr.ErrNotFound)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
