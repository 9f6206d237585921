package memory

import (
	"context"
	"testing"

	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/geocoder89/bankly/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *UsersRepo, usernames ...string) {
	t.Helper()
	for _, name := range usernames {
		_, err := r.Insert(context.Background(), user.User{
			Username:  name,
			FirstName: "first-" + name,
			LastName:  "last-" + name,
			Email:     name + "@example.com",
			Phone:     "555",
		})
		require.NoError(t, err)
	}
}

func TestUsersRepo_InsertAndFind(t *testing.T) {
	r := NewUsersRepo()
	seed(t, r, "u1")

	got, err := r.FindByUsername(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "first-u1", got.FirstName)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = r.FindByUsername(context.Background(), "nope")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_InsertDuplicate(t *testing.T) {
	r := NewUsersRepo()
	seed(t, r, "u1")

	_, err := r.Insert(context.Background(), user.User{Username: "u1"})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestUsersRepo_ListSorted(t *testing.T) {
	r := NewUsersRepo()
	seed(t, r, "charlie", "alice", "bob")

	users, err := r.List(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"alice", "bob", "charlie"}, names)
}

func TestUsersRepo_UpdateFields(t *testing.T) {
	r := NewUsersRepo()
	seed(t, r, "u1")

	upd, err := utils.BuildPartialUpdate(map[string]any{"first_name": "new", "phone": "999"}, user.UpdatableColumns)
	require.NoError(t, err)

	got, err := r.UpdateFields(context.Background(), "u1", upd)
	require.NoError(t, err)
	assert.Equal(t, "new", got.FirstName)
	assert.Equal(t, "999", got.Phone)
	assert.Equal(t, "last-u1", got.LastName)

	stored, _ := r.FindByUsername(context.Background(), "u1")
	assert.Equal(t, got, stored)
}

func TestUsersRepo_UpdateFieldsMissingUser(t *testing.T) {
	r := NewUsersRepo()

	upd, err := utils.BuildPartialUpdate(map[string]any{"first_name": "x"}, user.UpdatableColumns)
	require.NoError(t, err)

	_, err = r.UpdateFields(context.Background(), "ghost", upd)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_UpdateFieldsRejectsBadValueAtomically(t *testing.T) {
	r := NewUsersRepo()
	seed(t, r, "u1")

	upd := utils.PartialUpdate{
		Columns: []string{"first_name", "phone"},
		Args:    []any{"changed", 42},
	}

	_, err := r.UpdateFields(context.Background(), "u1", upd)
	require.Error(t, err)

	stored, _ := r.FindByUsername(context.Background(), "u1")
	assert.Equal(t, "first-u1", stored.FirstName)
}

func TestUsersRepo_UpdateFieldsEmpty(t *testing.T) {
	r := NewUsersRepo()
	seed(t, r, "u1")

	_, err := r.UpdateFields(context.Background(), "u1", utils.PartialUpdate{})
	assert.ErrorIs(t, err, utils.ErrEmptyUpdate)
}

func TestUsersRepo_Delete(t *testing.T) {
	r := NewUsersRepo()
	seed(t, r, "u1")

	removed, err := r.Delete(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.Delete(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = r.FindByUsername(context.Background(), "u1")
	assert.ErrorIs(t, err, user.ErrNotFound)
}
