package platform_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"

	"github.com/partnerbot/backend/internal/platform"
)

func TestErrorIs(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		err := platform.NewError(platform.KindNotFound, "delete message", errors.New("404"))
		assert.True(t, errors.Is(err, platform.ErrNotFound))
		assert.False(t, errors.Is(err, platform.ErrForbidden))
		assert.Equal(t, "delete message: not_found: 404", err.Error())
	})

	t.Run("forbidden wrapped", func(t *testing.T) {
		err := fmt.Errorf("sync: %w", platform.NewError(platform.KindForbidden, "add role", nil))
		assert.True(t, errors.Is(err, platform.ErrForbidden))
		assert.Equal(t, platform.KindForbidden, platform.KindOf(err))
	})

	t.Run("other keeps cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := platform.NewError(platform.KindOther, "edit message", cause)
		assert.ErrorIs(t, err, cause)
		assert.False(t, errors.Is(err, platform.ErrNotFound))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, platform.KindOther, platform.KindOf(errors.New("boom")))
	assert.Equal(t, platform.KindNotFound, platform.KindOf(platform.ErrNotFound))
	assert.Equal(t, platform.KindForbidden, platform.KindOf(fmt.Errorf("x: %w", platform.ErrForbidden)))
}

func TestMemberHasRole(t *testing.T) {
	m := platform.Member{UserID: 1, Roles: []snowflake.ID{5, 7}}
	assert.True(t, m.HasRole(7))
	assert.False(t, m.HasRole(6))
}
