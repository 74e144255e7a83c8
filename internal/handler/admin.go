package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/animecon/program-sync/internal/service"
)

// AdminHandler exposes operations reserved for the authenticated admin.
type AdminHandler struct {
	Importer *service.Importer
}

func NewAdminHandler(imp *service.Importer) *AdminHandler {
	return &AdminHandler{Importer: imp}
}

// TriggerImport runs one import cycle immediately, outside the cron
// schedule, and returns the comparison against the previous snapshot.
// The upstream API plus MySQL round-trips can take a while, hence the
// generous timeout.
func (h *AdminHandler) TriggerImport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	cmp, err := h.Importer.Run(ctx)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"additions": cmp.Additions,
		"removals":  cmp.Removals,
		"updates":   cmp.Updates,
	})
}
