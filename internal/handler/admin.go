package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-showtimes/internal/catalog"
	"github.com/iliyamo/cinema-showtimes/internal/importer"
	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
)

// ShowtimeStore is the write side of the catalog.  *repository.ShowtimeRepo
// implements it.
type ShowtimeStore interface {
	ListOrdered(ctx context.Context) ([]model.Showtime, error)
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	Create(ctx context.Context, s *model.Showtime) error
	CreateBulk(ctx context.Context, list []model.Showtime) error
	Update(ctx context.Context, s *model.Showtime) error
	SetSoldOut(ctx context.Context, id uint64, soldOut bool) error
	SetAnnotation(ctx context.Context, id uint64, annotation *string) error
	DeleteByID(ctx context.Context, id uint64) error
	DeletePast(ctx context.Context, now time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Notifier announces catalog changes so cached pages get dropped.
type Notifier interface {
	CatalogChanged(ctx context.Context, reason string, affected int64)
}

// AdminHandler serves the showtime management API.
type AdminHandler struct {
	Repo    ShowtimeStore
	Catalog *catalog.Service
	Notify  Notifier
	Log     zerolog.Logger
}

func NewAdminHandler(repo ShowtimeStore, cat *catalog.Service, notify Notifier, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{Repo: repo, Catalog: cat, Notify: notify, Log: log}
}

// flexString accepts a JSON string or number.  Sheets exported to JSON
// often carry film ids as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// showtimeReq is the body of create and update calls.  Pointer fields let
// PATCH tell "absent" from "empty".
type showtimeReq struct {
	ScreeningDate    *string     `json:"screening_date"`
	FilmExternalID   *flexString `json:"film_external_id"`
	StartTime        *string     `json:"start_time"`
	EndTime          *string     `json:"end_time"`
	Language         *string     `json:"language"`
	SubtitleLanguage *string     `json:"subtitle_language"`
	BookingReference *string     `json:"booking_reference"`
	SoldOut          *bool       `json:"sold_out"`
	Title            *string     `json:"title"`
	Annotation       *string     `json:"annotation"`
}

// apply copies every present field onto s.
func (r showtimeReq) apply(s *model.Showtime) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.ScreeningDate, r.ScreeningDate)
	if r.FilmExternalID != nil {
		s.FilmExternalID = string(*r.FilmExternalID)
	}
	set(&s.StartTime, r.StartTime)
	set(&s.EndTime, r.EndTime)
	set(&s.Language, r.Language)
	if r.SubtitleLanguage != nil {
		s.SubtitleLanguage = r.SubtitleLanguage
	}
	set(&s.BookingReference, r.BookingReference)
	if r.SoldOut != nil {
		s.SoldOut = *r.SoldOut
	}
	set(&s.Title, r.Title)
	if r.Annotation != nil {
		s.Annotation = r.Annotation
	}
}

func invalid(c echo.Context, problems []importer.Problem) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "problems": problems})
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// storeError maps repository failures to status codes.
func (h *AdminHandler) storeError(c echo.Context, err error, op string) error {
	if errors.Is(err, repository.ErrShowtimeNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	}
	h.Log.Error().Err(err).Str("op", op).Msg("showtime store failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

func (h *AdminHandler) changed(c echo.Context, reason string, n int64) {
	if h.Notify != nil {
		h.Notify.CatalogChanged(c.Request().Context(), reason, n)
	}
}

// List returns every stored showtime in catalog order.
func (h *AdminHandler) List(c echo.Context) error {
	list, err := h.Repo.ListOrdered(c.Request().Context())
	if err != nil {
		return h.storeError(c, err, "list")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// Create stores one showtime.  Every problem is reported before anything
// is written.
func (h *AdminHandler) Create(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var s model.Showtime
	req.apply(&s)
	if probs := importer.Clean(&s); len(probs) > 0 {
		return invalid(c, probs)
	}
	if err := h.Repo.Create(c.Request().Context(), &s); err != nil {
		return h.storeError(c, err, "create")
	}
	h.changed(c, "create", 1)
	return c.JSON(http.StatusCreated, s)
}

// Replace overwrites a showtime with the body (PUT).
func (h *AdminHandler) Replace(c echo.Context) error {
	return h.update(c, false)
}

// Patch changes only the fields present in the body (PATCH).
func (h *AdminHandler) Patch(c echo.Context) error {
	return h.update(c, true)
}

func (h *AdminHandler) update(c echo.Context, partial bool) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	s := model.Showtime{ID: id}
	if partial {
		cur, err := h.Repo.GetByID(ctx, id)
		if err != nil {
			return h.storeError(c, err, "get")
		}
		s = *cur
	}
	req.apply(&s)
	if probs := importer.Clean(&s); len(probs) > 0 {
		return invalid(c, probs)
	}

	err := h.Repo.Update(ctx, &s)
	switch {
	case errors.Is(err, repository.ErrNoChange):
		return c.JSON(http.StatusOK, echo.Map{"showtime": s, "changed": false})
	case err != nil:
		return h.storeError(c, err, "update")
	}
	h.changed(c, "update", 1)
	return c.JSON(http.StatusOK, echo.Map{"showtime": s, "changed": true})
}

// Delete removes one showtime.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.DeleteByID(c.Request().Context(), id); err != nil {
		return h.storeError(c, err, "delete")
	}
	h.changed(c, "delete", 1)
	return c.NoContent(http.StatusNoContent)
}

// ToggleSoldOut flips the sold-out flag of one showtime.
func (h *AdminHandler) ToggleSoldOut(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	cur, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		return h.storeError(c, err, "get")
	}
	if err := h.Repo.SetSoldOut(ctx, id, !cur.SoldOut); err != nil {
		return h.storeError(c, err, "sold-out")
	}
	h.changed(c, "sold-out", 1)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "sold_out": !cur.SoldOut})
}

// SetAnnotation stores or clears the operator note of one showtime.  A
// blank or null annotation clears it.
func (h *AdminHandler) SetAnnotation(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Annotation *string `json:"annotation"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	note := body.Annotation
	if note != nil {
		v := strings.TrimSpace(*note)
		note = &v
		if v == "" {
			note = nil
		}
	}
	err := h.Repo.SetAnnotation(c.Request().Context(), id, note)
	switch {
	case errors.Is(err, repository.ErrNoChange):
		return c.JSON(http.StatusOK, echo.Map{"id": id, "annotation": note, "changed": false})
	case err != nil:
		return h.storeError(c, err, "annotation")
	}
	h.changed(c, "annotation", 1)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "annotation": note, "changed": true})
}

// readUpload parses a multipart "file" field or, failing that, a JSON
// array body.
func readUpload(c echo.Context) (importer.Result, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return importer.Result{}, err
		}
		defer f.Close()
		return importer.Parse(fh.Filename, f)
	}
	return importer.Parse("body.json", c.Request().Body)
}

func uploadError(c echo.Context, err error) error {
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}

// Import stores every row of an upload in one transaction.  Nothing is
// written when any row is invalid.
func (h *AdminHandler) Import(c echo.Context) error {
	res, err := readUpload(c)
	if err != nil {
		return uploadError(c, err)
	}
	if !res.Valid() {
		return invalid(c, res.Problems)
	}
	if err := h.Repo.CreateBulk(c.Request().Context(), res.Showtimes); err != nil {
		return h.storeError(c, err, "import")
	}
	n := int64(len(res.Showtimes))
	h.changed(c, "import", n)
	h.Log.Info().Int64("rows", n).Msg("showtimes imported")
	return c.JSON(http.StatusCreated, echo.Map{"imported": n, "items": res.Showtimes})
}

// ImportPreview parses and validates an upload without storing it.
func (h *AdminHandler) ImportPreview(c echo.Context) error {
	res, err := readUpload(c)
	if err != nil {
		return uploadError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": res.Valid(), "items": res.Showtimes, "problems": res.Problems})
}

// DeletePast removes every showtime that has already ended.
func (h *AdminHandler) DeletePast(c echo.Context) error {
	n, err := h.Repo.DeletePast(c.Request().Context(), h.Catalog.Now())
	if err != nil {
		return h.storeError(c, err, "delete-past")
	}
	if n > 0 {
		h.changed(c, "delete-past", n)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// DeleteAll empties the catalog.
func (h *AdminHandler) DeleteAll(c echo.Context) error {
	n, err := h.Repo.DeleteAll(c.Request().Context())
	if err != nil {
		return h.storeError(c, err, "delete-all")
	}
	h.changed(c, "delete-all", n)
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// Featured reports the pinned hero film.
func (h *AdminHandler) Featured(c echo.Context) error {
	sel := h.Catalog.Selection()
	if id, film, ok := sel.Current(); ok {
		title := ""
		if film.Details != nil {
			title = film.Details.Title
		}
		return c.JSON(http.StatusOK, echo.Map{"film_external_id": id, "status": "ready", "title": title})
	}
	if id, ok := sel.Pending(); ok {
		return c.JSON(http.StatusOK, echo.Map{"film_external_id": id, "status": "pending"})
	}
	if id, ok := sel.Failed(); ok {
		return c.JSON(http.StatusOK, echo.Map{"film_external_id": id, "status": "failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"film_external_id": nil, "status": "none"})
}

// PinFeatured pins a film to the hero slot.  Its metadata is fetched in
// the background; only the most recent pin is ever applied.
func (h *AdminHandler) PinFeatured(c echo.Context) error {
	var body struct {
		FilmExternalID flexString `json:"film_external_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	id := strings.TrimSpace(string(body.FilmExternalID))
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return invalid(c, []importer.Problem{{Field: "film_external_id", Message: "must be numeric"}})
	}
	_, done := h.Catalog.PinFeatured(id)
	go func() {
		// c is recycled once the handler returns.
		if <-done && h.Notify != nil {
			h.Notify.CatalogChanged(context.Background(), "featured", 0)
		}
	}()
	return c.JSON(http.StatusAccepted, echo.Map{"film_external_id": id, "status": "pending"})
}

// ClearFeatured drops the pin; the hero falls back to the next screening.
func (h *AdminHandler) ClearFeatured(c echo.Context) error {
	h.Catalog.Selection().Clear()
	h.changed(c, "featured", 0)
	return c.NoContent(http.StatusNoContent)
}
