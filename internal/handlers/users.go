package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipzipship/czs-admin/internal/usererr"
	"github.com/clipzipship/czs-admin/internal/users"
)

type UserHandler struct {
	Dir *users.Directory
}

func (h *UserHandler) List(c echo.Context) error {
	infos, err := h.Dir.List()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, infos)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return usererr.ParametersInvalid()
	}

	if err := h.Dir.Create(req.Username, req.Password); err != nil {
		return err
	}
	return c.String(http.StatusCreated, "")
}

func (h *UserHandler) Patch(c echo.Context) error {
	var ops []users.PatchOp
	if err := c.Bind(&ops); err != nil {
		ops = nil
	}

	if err := h.Dir.Update(c.Param("username"), ops); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.Dir.Delete(c.Param("username")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
