package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/careerdesk/internal/capability"
)

// ToolsHandler exposes the sealed tool catalog the handlers call into.
type ToolsHandler struct {
	Catalog *capability.Registry
}

func (h *ToolsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:name", h.get)
}

func (h *ToolsHandler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.List())
}

func (h *ToolsHandler) get(c echo.Context) error {
	tc, ok := h.Catalog.Tool(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "tool not found")
	}
	return c.JSON(http.StatusOK, tc)
}
