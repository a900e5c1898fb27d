package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipzipship/czs-admin/internal/auth"
	"github.com/clipzipship/czs-admin/internal/usererr"
)

type AuthHandler struct {
	Auth *auth.Service
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		return usererr.ParametersInvalid()
	}

	pair, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return usererr.ParametersInvalid()
	}

	pair, err := h.Auth.Refresh(req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ok, err := h.Auth.Logout(c)
	if err != nil {
		return err
	}
	if !ok {
		return usererr.New(http.StatusInternalServerError,
			"Failed to logout from the API completely",
			"La tentative de déconnexion de l'API ne s'est pas bien terminée")
	}
	return c.NoContent(http.StatusNoContent)
}
