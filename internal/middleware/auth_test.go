package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doAuthRequest(t *testing.T, token, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.POST("/tick", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, BearerAuth(token))

	req := httptest.NewRequest(http.MethodPost, "/tick", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBearerAuthDisabledWhenNoToken(t *testing.T) {
	rec := doAuthRequest(t, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuthAcceptsValidToken(t *testing.T) {
	rec := doAuthRequest(t, "secret", "Bearer secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestBearerAuthRejectsMissingHeader(t *testing.T) {
	rec := doAuthRequest(t, "secret", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthRejectsMalformedHeader(t *testing.T) {
	rec := doAuthRequest(t, "secret", "Token secret")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthRejectsWrongToken(t *testing.T) {
	rec := doAuthRequest(t, "secret", "Bearer nope")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
