// Package handler exposes the HTTP handlers of the listing API.  This file
// holds the public endpoints: the home page model, the raw ordered list,
// the per-showtime detail and the weekly calendar.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtimes/internal/catalog"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
)

// PublicHandler serves the read-only listing API.
type PublicHandler struct {
	Catalog *catalog.Service
}

func NewPublicHandler(cat *catalog.Service) *PublicHandler {
	return &PublicHandler{Catalog: cat}
}

// Home returns the complete listing page model.
func (h *PublicHandler) Home(c echo.Context) error {
	page, err := h.Catalog.HomePage(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Showtimes returns every stored showtime in catalog order with its
// current status and ticket link.
func (h *PublicHandler) Showtimes(c echo.Context) error {
	list, err := h.Catalog.Load(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": h.Catalog.Cards(list)})
}

// Showtime returns the detail view of one showtime.
func (h *PublicHandler) Showtime(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	detail, err := h.Catalog.ShowtimeDetail(c.Request().Context(), id)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Calendar returns the seven days of the current week.
func (h *PublicHandler) Calendar(c echo.Context) error {
	days, err := h.Catalog.Calendar(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": days})
}

// catalogError maps catalog failures to status codes.
func catalogError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		c.Response().Header().Set("Retry-After", "30")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "catalog unavailable, try again shortly"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
