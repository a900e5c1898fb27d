package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clipzipship/czs-admin/internal/auth"
	"github.com/clipzipship/czs-admin/internal/usererr"
	"github.com/clipzipship/czs-admin/internal/users"
)

// WebHandler is the cookie-based variant of the auth surface used by the
// web UI. The template rendering itself lives outside this service; these
// endpoints serve the UI's session handling and data needs.
type WebHandler struct {
	Auth      *auth.Service
	Dir       *users.Directory
	AccessTTL time.Duration
}

func (h *WebHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		return usererr.ParametersInvalid()
	}

	pair, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(auth.CreateCookie(auth.CookieName, pair.AccessToken, "/", time.Now().Add(h.AccessTTL)))
	return c.JSON(http.StatusOK, pair)
}

func (h *WebHandler) Logout(c echo.Context) error {
	ok, err := h.Auth.Logout(c)
	if err != nil {
		return err
	}
	c.SetCookie(auth.DeleteCookie(auth.CookieName, "/"))
	if !ok {
		return usererr.New(http.StatusInternalServerError,
			"Failed to logout from the API completely",
			"La tentative de déconnexion de l'API ne s'est pas bien terminée")
	}
	return c.Redirect(http.StatusFound, "/")
}

// Profile backs the profile page with the current user, or nothing when
// the visitor is anonymous.
func (h *WebHandler) Profile(c echo.Context) error {
	user := h.Auth.CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusOK, echo.Map{"user": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// AdminUsers backs the user management page.
func (h *WebHandler) AdminUsers(c echo.Context) error {
	infos, err := h.Dir.List()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, infos)
}
