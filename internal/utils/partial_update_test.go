package utils_test

import (
	"errors"
	"testing"

	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/geocoder89/bankly/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPartialUpdate_Empty(t *testing.T) {
	allowLists := []map[string]string{
		user.UpdatableColumns,
		{"bar": "bar_col"},
	}

	for _, allow := range allowLists {
		_, err := utils.BuildPartialUpdate(map[string]any{}, allow)
		assert.ErrorIs(t, err, utils.ErrEmptyUpdate)

		_, err = utils.BuildPartialUpdate(nil, allow)
		assert.ErrorIs(t, err, utils.ErrEmptyUpdate)
	}
}

func TestBuildPartialUpdate_UnknownField(t *testing.T) {
	_, err := utils.BuildPartialUpdate(map[string]any{"foo": 1}, map[string]string{"bar": "bar_col"})

	require.ErrorIs(t, err, utils.ErrUnknownField)

	var unknown *utils.UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "foo", unknown.Field)
}

func TestBuildPartialUpdate_TwoFields(t *testing.T) {
	upd, err := utils.BuildPartialUpdate(
		map[string]any{"phone": "y", "first_name": "x"},
		user.UpdatableColumns,
	)
	require.NoError(t, err)

	assert.Equal(t, "first_name=$1, phone=$2", upd.SetClause)
	assert.Equal(t, []any{"x", "y"}, upd.Args)
	assert.Equal(t, []string{"first_name", "phone"}, upd.Columns)
	assert.Equal(t, 3, upd.NextPlaceholder())
}

func TestBuildPartialUpdate_MapsFieldToColumn(t *testing.T) {
	upd, err := utils.BuildPartialUpdate(
		map[string]any{"firstName": "x"},
		map[string]string{"firstName": "first_name"},
	)
	require.NoError(t, err)

	assert.Equal(t, "first_name=$1", upd.SetClause)
}

func TestBuildPartialUpdate_ProtectedFieldsRejected(t *testing.T) {
	for _, field := range []string{"username", "is_admin", "admin", "password", "password_hash"} {
		t.Run(field, func(t *testing.T) {
			_, err := utils.BuildPartialUpdate(
				map[string]any{"first_name": "ok", field: true},
				user.UpdatableColumns,
			)
			var unknown *utils.UnknownFieldError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, field, unknown.Field)
		})
	}
}

func TestBuildPartialUpdate_ValuesNeverInterpolated(t *testing.T) {
	evil := "x'; DROP TABLE users; --"

	upd, err := utils.BuildPartialUpdate(map[string]any{"email": evil}, user.UpdatableColumns)
	require.NoError(t, err)

	assert.NotContains(t, upd.SetClause, evil)
	assert.Equal(t, []any{evil}, upd.Args)
}

func TestBuildPartialUpdate_Deterministic(t *testing.T) {
	in := map[string]any{"last_name": "l", "email": "e@x.io", "phone": "p", "first_name": "f"}

	first, err := utils.BuildPartialUpdate(in, user.UpdatableColumns)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := utils.BuildPartialUpdate(in, user.UpdatableColumns)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "email=$1, first_name=$2, last_name=$3, phone=$4", first.SetClause)
}

func TestBuildPartialUpdate_DuplicateColumnRejected(t *testing.T) {
	_, err := utils.BuildPartialUpdate(
		map[string]any{"a": 1, "b": 2},
		map[string]string{"a": "col", "b": "col"},
	)
	assert.ErrorIs(t, err, utils.ErrUnknownField)
}
