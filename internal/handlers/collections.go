package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clipzipship/czs-admin/internal/catalog"
	"github.com/clipzipship/czs-admin/internal/usererr"
)

type CollectionHandler struct {
	Registry *catalog.Registry
}

func (h *CollectionHandler) Create(c echo.Context) error {
	var data catalog.Collection
	if err := c.Bind(&data); err != nil {
		return usererr.ParametersInvalid()
	}

	if err := h.Registry.AddCollection(c.Request().Context(), data); err != nil {
		return err
	}
	return c.String(http.StatusCreated, "")
}

func (h *CollectionHandler) Patch(c echo.Context) error {
	name := c.Param("name")

	var patch map[string]interface{}
	if err := c.Bind(&patch); err != nil {
		return usererr.ParametersInvalid()
	}

	if err := h.Registry.UpdateCollection(c.Request().Context(), name, patch); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CollectionHandler) Delete(c echo.Context) error {
	deleted, err := h.Registry.DeleteCollection(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	if !deleted {
		return usererr.NotFound()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CollectionHandler) GetParents(c echo.Context) error {
	groups, err := h.Registry.GetParents()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *CollectionHandler) AddParent(c echo.Context) error {
	var payload catalog.ParentPayload
	if err := c.Bind(&payload); err != nil {
		return usererr.ParametersInvalid()
	}

	parentUUID, err := h.Registry.AddParent(payload)
	if err != nil {
		return err
	}
	return c.String(http.StatusCreated, parentUUID)
}

func (h *CollectionHandler) DeleteParent(c echo.Context) error {
	deleted, err := h.Registry.DeleteParent(c.Param("uuid"))
	if err != nil {
		return err
	}
	if !deleted {
		return usererr.NotFound()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CollectionHandler) GetExtent(c echo.Context) error {
	outCRS, err := strconv.Atoi(c.Param("crs"))
	if err != nil {
		return usererr.ParametersInvalid()
	}

	var creds catalog.RemoteDB
	if err := c.Bind(&creds); err != nil {
		return usererr.ParametersInvalid()
	}

	extent, err := h.Registry.GetExtent(c.Request().Context(),
		c.Param("schema"), c.Param("table"), outCRS, creds)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, extent)
}
