package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/clipzipship/czs-admin/internal/auth"
	"github.com/clipzipship/czs-admin/internal/models"
	"github.com/clipzipship/czs-admin/internal/users"
)

func NewTestWebHandler(t *testing.T) *WebHandler {
	svc := NewTestAuthService(t)
	return &WebHandler{
		Auth:      svc,
		Dir:       &users.Directory{DB: svc.DB},
		AccessTTL: svc.AccessTTL,
	}
}

func TestWebLoginSetsCookie(t *testing.T) {
	h := NewTestWebHandler(t)
	SeedUser(t, h.Auth.DB, "test_user", "password", models.RoleLevelUser)

	c, rec := JSONContext(t, http.MethodPost, "/web/login", map[string]string{
		"username": "test_user",
		"password": "password",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, auth.CookieName, cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestWebLogoutClearsCookie(t *testing.T) {
	h := NewTestWebHandler(t)
	SeedUser(t, h.Auth.DB, "test_user", "password", models.RoleLevelUser)

	pair, err := h.Auth.Login("test_user", "password")
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/web/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusFound, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, auth.CookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.True(t, cookies[0].Expires.Before(time.Now()))
}

func TestWebProfileAnonymous(t *testing.T) {
	h := NewTestWebHandler(t)

	c, rec := JSONContext(t, http.MethodGet, "/web/profile", nil)
	require.NoError(t, h.Profile(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user":null}`, rec.Body.String())
}
