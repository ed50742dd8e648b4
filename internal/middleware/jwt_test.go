package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/utils"
)

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	mw := JWTAuth(secret)

	at, err := utils.NewAccessToken(secret, 42, "User", 15)
	require.NoError(t, err)

	run := func(authHeader string) (*httptest.ResponseRecorder, echo.Context) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, h(c))
		return rec, c
	}

	rec, c := run("Bearer " + at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(42), c.Get("user_id"), "numeric claims decode as float64")
	assert.Equal(t, "User", c.Get("role"))

	rec, _ = run("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = run("Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wrong, err := utils.NewAccessToken("other-secret", 42, "User", 15)
	require.NoError(t, err)
	rec, _ = run("Bearer " + wrong.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
