package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/partnerbot/backend/internal/auth"
)

func newRouter(t *testing.T, jwtSvc *auth.JWTService) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(CORS("https://ops.example"), Logger(zap.New(core)))
	g := r.Group("/organizations/:guild", JWT(jwtSvc), Organization(), AdminOnMutation(auth.RoleAdmin))
	handler := func(c *gin.Context) {
		c.String(http.StatusOK, OrganizationID(c).String())
	}
	g.GET("/settings", handler)
	g.POST("/display/refresh", handler)
	return r, logs
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", "https://ops.example")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestProtectedRoutes(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	r, logs := newRouter(t, jwtSvc)
	admin, err := jwtSvc.Generate("ops", auth.RoleAdmin)
	require.NoError(t, err)
	viewer, err := jwtSvc.Generate("audit", auth.RoleViewer)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/organizations/42/settings", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/organizations/42/settings", "garbage").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/organizations/abc/settings", admin).Code)

	w := do(r, http.MethodGet, "/organizations/42/settings", viewer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
	assert.Equal(t, "https://ops.example", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/organizations/42/display/refresh", viewer).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/organizations/42/display/refresh", admin).Code)

	entries := logs.FilterMessage("request").All()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1].ContextMap()
	assert.Equal(t, "42", last["organization_id"])
	assert.Equal(t, "ops", last["username"])
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newRouter(t, auth.NewJWTService("secret", 1))
	w := do(r, http.MethodOptions, "/organizations/42/settings", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOrganizationIDType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ContextOrganizationID, snowflake.ID(7))
	assert.Equal(t, snowflake.ID(7), OrganizationID(c))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("https://ops.example, https://audit.example"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://audit.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://audit.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"Bearer   ":    "",
		"":             "",
	}
	for header, want := range cases {
		got, ok := bearerToken(header)
		assert.Equal(t, want != "", ok, header)
		assert.Equal(t, want, got, header)
	}
}
