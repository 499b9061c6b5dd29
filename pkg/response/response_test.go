package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/partnerbot/backend/pkg/errors"
)

func TestErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperrors.NewValidationError("name", "required"), http.StatusBadRequest, "name: required"},
		{apperrors.NewNotFoundError("partner", "Acme"), http.StatusNotFound, `partner "Acme" not found`},
		{fmt.Errorf("create: %w", apperrors.NewDuplicateError("category", "")), http.StatusConflict, "create: category already exists"},
		{apperrors.ErrCategoryInUse, http.StatusConflict, "category in use"},
		{apperrors.ErrNotSetUp, http.StatusConflict, "organization not set up"},
		{fmt.Errorf("dial tcp: refused"), http.StatusInternalServerError, "failed"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, tc.err, "failed")

		assert.Equal(t, tc.status, w.Code)
		var body Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.body, body.Error)
	}
}
