package middleware_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/delivery/http/middleware"
	domainerrors "atrium/internal/domain/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func handleError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	middleware.NewErrorMiddleware(testLogger()).HandleHTTPError(err, c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec.Code, body
}

func TestHandleHTTPError_AppError(t *testing.T) {
	code, body := handleError(t, errors.WithStack(domainerrors.ErrInvalidCredentials))

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	errInfo, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", errInfo["code"])
	assert.NotContains(t, errInfo, "expired")
}

func TestHandleHTTPError_ExpiredTokenFlag(t *testing.T) {
	code, body := handleError(t, errors.WithStack(domainerrors.ErrTokenExpired))

	assert.Equal(t, http.StatusBadRequest, code)

	errInfo, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_EXPIRED", errInfo["code"])
	assert.Equal(t, true, errInfo["expired"])
}

func TestHandleHTTPError_Fallback(t *testing.T) {
	code, body := handleError(t, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, code)
	errInfo, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_ERROR", errInfo["code"])
}
