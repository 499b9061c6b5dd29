package partners

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerbot/backend/internal/middleware"
	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/response"
)

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	g := r.Group("/organizations/:guild", middleware.Organization())
	g.GET("/partners", h.List)
	g.POST("/partners", h.Create)
	g.PATCH("/partners/:name", h.Update)
	g.DELETE("/partners/:name", h.Delete)
	g.GET("/partners/:name/reps", h.ListReps)
	g.POST("/partners/:name/reps", h.AddRep)
	g.DELETE("/partners/:name/reps/:user", h.RemoveRep)
	g.GET("/users/:user/partners", h.ForUser)
	return r
}

func call(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var out response.Body
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestPartnerEndpoints(t *testing.T) {
	svc, store, deps := newService()
	r := newRouter(svc)

	w, _ := call(r, http.MethodPost, "/organizations/42/partners", `{"category":"General"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(r, http.MethodPost, "/organizations/42/partners",
		`{"category":"General","invite_link":"https://discord.gg/rust","display_name":"Rust"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, store.partners, "Rust")

	w, _ = call(r, http.MethodPost, "/organizations/42/partners",
		`{"category":"General","invite_link":"https://discord.gg/rust","display_name":"Rust"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	deps.refreshErr = errors.New("channel gone")
	w, body := call(r, http.MethodPatch, "/organizations/42/partners/Rust", `{"display_name":"Rust Lang"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body.Warnings, 1)
	assert.Contains(t, store.partners, "Rust Lang")

	w, _ = call(r, http.MethodPatch, "/organizations/42/partners/Rust%20Lang", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(r, http.MethodGet, "/organizations/42/partners", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(r, http.MethodDelete, "/organizations/42/partners/Nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRepresentativeEndpoints(t *testing.T) {
	svc, store, deps := newService()
	r := newRouter(svc)
	p := &models.Partner{DisplayName: "Rust", CategoryID: generalID}
	require.NoError(t, store.Create(context.Background(), p))

	w, _ := call(r, http.MethodPost, "/organizations/42/partners/Rust/reps?direction=sideways", `{"user_id":"5"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(r, http.MethodPost, "/organizations/42/partners/Rust/reps?direction=self", `{"user_id":"5"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []snowflake.ID{5}, deps.synced)
	assert.Equal(t, models.DirectionSelf, store.reps[p.ID][5])

	w, _ = call(r, http.MethodGet, "/organizations/42/partners/Rust/reps?direction=self", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"5"`)

	w, _ = call(r, http.MethodDelete, "/organizations/42/partners/Rust/reps/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(r, http.MethodDelete, "/organizations/42/partners/Rust/reps/5?direction=self", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []snowflake.ID{5, 5}, deps.synced)

	w, _ = call(r, http.MethodGet, "/organizations/42/users/5/partners", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
