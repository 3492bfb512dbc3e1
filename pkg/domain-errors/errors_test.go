package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeConflict, "registration moved")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		inner := New(CodeValidation, "rejection_reason is required")
		outer := fmt.Errorf("apply transition: %w", inner)
		assert.True(t, HasCode(outer, CodeValidation))
	})

	t.Run("outermost code wins for double-coded chains", func(t *testing.T) {
		inner := New(CodeNotFound, "registration not found")
		outer := Wrap(inner, CodeProvisioningFailed, "provisioning aborted")
		assert.True(t, HasCode(outer, CodeProvisioningFailed))
		assert.False(t, HasCode(outer, CodeNotFound))
	})

	t.Run("uncoded errors match nothing", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeTimeout, CodeOf(New(CodeTimeout, "context cancelled")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("raw failure")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to persist registration")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to persist registration")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "survey_result must be feasible or infeasible",
		MessageOf(New(CodeValidation, "survey_result must be feasible or infeasible")))
	assert.Equal(t, "internal error", MessageOf(errors.New("pq: deadlock detected")))
}
