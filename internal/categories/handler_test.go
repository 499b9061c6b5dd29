package categories

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/partnerbot/backend/internal/middleware"
	"github.com/partnerbot/backend/internal/models"
	apperrors "github.com/partnerbot/backend/pkg/errors"
)

type memStore struct {
	setUp  bool
	byName map[string]models.PartnerCategory
	inUse  map[string]bool
}

func (m *memStore) Create(_ context.Context, org snowflake.ID, name string) (*models.PartnerCategory, error) {
	if !m.setUp {
		return nil, apperrors.ErrNotSetUp
	}
	if _, ok := m.byName[name]; ok {
		return nil, apperrors.NewDuplicateError("category", "unique_category_name")
	}
	c := models.PartnerCategory{ID: uuid.New(), OrganizationID: org, Name: name}
	m.byName[name] = c
	return &c, nil
}

func (m *memStore) List(context.Context, snowflake.ID) ([]models.PartnerCategory, error) {
	var list []models.PartnerCategory
	for _, c := range m.byName {
		list = append(list, c)
	}
	return list, nil
}

func (m *memStore) Delete(_ context.Context, _ snowflake.ID, name string) error {
	if _, ok := m.byName[name]; !ok {
		return apperrors.NewNotFoundError("category", name)
	}
	if m.inUse[name] {
		return fmt.Errorf("delete category %q: %w", name, apperrors.ErrCategoryInUse)
	}
	delete(m.byName, name)
	return nil
}

func TestCategoryEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &memStore{byName: map[string]models.PartnerCategory{}, inUse: map[string]bool{"Art": true}}
	h := NewHandler(store)
	r := gin.New()
	g := r.Group("/organizations/:guild", middleware.Organization())
	g.GET("/categories", h.List)
	g.POST("/categories", h.Create)
	g.DELETE("/categories/:name", h.Delete)

	send := func(method, path, body string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusConflict, send(http.MethodPost, "/organizations/42/categories", `{"name":"Art"}`))
	store.setUp = true
	assert.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/organizations/42/categories", `{"name":"  "}`))
	assert.Equal(t, http.StatusCreated, send(http.MethodPost, "/organizations/42/categories", `{"name":"Art"}`))
	assert.Equal(t, http.StatusCreated, send(http.MethodPost, "/organizations/42/categories", `{"name":"Music"}`))
	assert.Equal(t, http.StatusConflict, send(http.MethodPost, "/organizations/42/categories", `{"name":"Music"}`))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/organizations/42/categories", ""))

	assert.Equal(t, http.StatusConflict, send(http.MethodDelete, "/organizations/42/categories/Art", ""))
	assert.Equal(t, http.StatusNoContent, send(http.MethodDelete, "/organizations/42/categories/Music", ""))
	assert.Equal(t, http.StatusNotFound, send(http.MethodDelete, "/organizations/42/categories/Music", ""))
}
