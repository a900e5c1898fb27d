package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipzipship/czs-admin/internal/metadata"
)

type MetadataHandler struct {
	Client *metadata.Client
}

func (h *MetadataHandler) Get(c echo.Context) error {
	record, err := h.Client.Get(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}
