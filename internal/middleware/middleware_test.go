package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myPromoGame/pkg/utils"
)

func serve(t *testing.T, h echo.HandlerFunc, mw []echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/", h, mw...)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	utils.InitJWT("test-secret")

	ok := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"user_id": c.Get(ContextUserID), "role": c.Get(ContextRole)})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(t, ok, []echo.MiddlewareFunc{AuthMiddleware()}, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, serve(t, ok, []echo.MiddlewareFunc{AuthMiddleware()}, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, serve(t, ok, []echo.MiddlewareFunc{AuthMiddleware()}, req).Code)

	token, err := utils.GenerateJWT("42", "USER", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(t, ok, []echo.MiddlewareFunc{AuthMiddleware()}, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"USER"}`, rec.Body.String())
}

func TestAdminOnly(t *testing.T) {
	utils.InitJWT("test-secret")
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	chain := []echo.MiddlewareFunc{AuthMiddleware(), AdminOnly()}

	user, err := utils.GenerateJWT("1", "USER", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+user)
	assert.Equal(t, http.StatusForbidden, serve(t, ok, chain, req).Code)

	admin, err := utils.GenerateJWT("1", "admin", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	assert.Equal(t, http.StatusNoContent, serve(t, ok, chain, req).Code)
}

func TestTraceID(t *testing.T) {
	var seen string
	h := func(c echo.Context) error {
		seen = utils.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderTraceID, "abc-123")
	rec := serve(t, h, []echo.MiddlewareFunc{TraceID()}, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderTraceID))

	rec = serve(t, h, []echo.MiddlewareFunc{TraceID()}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderTraceID))
}
