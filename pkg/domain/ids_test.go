package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agristack/pkg/domain-errors"
)

func TestParseOperatorID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseOperatorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseOperatorID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRecordID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseOperatorID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, OperatorID(valid), id)
	})
}

func TestPrincipalCapabilities(t *testing.T) {
	op := OperatorID(uuid.New())

	assert.False(t, Anonymous.IsAuthenticated())
	assert.False(t, Anonymous.CanRead())

	viewer := Principal{OperatorID: op, Role: RoleViewer}
	assert.True(t, viewer.CanRead())
	assert.False(t, viewer.CanWrite())
	assert.False(t, viewer.IsAdmin())

	inspector := Principal{OperatorID: op, Role: RoleInspector}
	assert.True(t, inspector.CanWrite())
	assert.False(t, inspector.IsAdmin())

	admin := Principal{OperatorID: op, Role: RoleAdmin}
	assert.True(t, admin.CanWrite())
	assert.True(t, admin.IsAdmin())

	// A role claim without an identity grants nothing.
	assert.False(t, Principal{Role: RoleAdmin}.IsAdmin())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleInspector, ParseRole("inspector"))
	assert.Equal(t, RoleViewer, ParseRole("superuser"))
	assert.Equal(t, RoleViewer, ParseRole(""))
}
