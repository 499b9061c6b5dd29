package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	nf := fmt.Errorf("load: %w", NewNotFoundError("partner", "Acme"))
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.False(t, errors.Is(nf, ErrDuplicate))
	assert.Equal(t, `load: partner "Acme" not found`, nf.Error())

	dup := NewDuplicateError("category", "unique_category_name")
	assert.True(t, errors.Is(dup, ErrDuplicate))
	assert.Contains(t, dup.Error(), "unique_category_name")

	v := NewValidationError("invite", "no invite code")
	assert.True(t, errors.Is(v, ErrInvalidInput))
	assert.Equal(t, "invite: no invite code", v.Error())
}
