package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "opsdesk/pkg/domain-errors"
)

// TestParseRegistrationID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseRegistrationID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRegistrationID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRegistrationID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRegistrationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseRegistrationID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, RegistrationID(valid), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	regID := RegistrationID(uuid.New())
	custID := CustomerID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ RegistrationID = custID   // compile error
	// var _ CustomerID = regID        // compile error

	assert.NotEqual(t, uuid.UUID(regID), uuid.UUID(custID))
}

func TestRoleKnown(t *testing.T) {
	assert.True(t, RoleAdmin.Known())
	assert.True(t, RoleCustomerService.Known())
	assert.False(t, Role("intern").Known())
	assert.False(t, Role("").Known())
}
