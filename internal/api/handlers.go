// Package api exposes the hybrid repository over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/models"
	"github.com/dmitrijs2005/millkeeper/internal/repository"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

// Repository is what the handlers need from the hybrid repository.
type Repository interface {
	FetchDay(ctx context.Context, d timex.Date) ([]models.Record, repository.Source, error)
	UpdatePayment(ctx context.Context, id, method string, origin models.Origin) error
	DeleteRecord(ctx context.Context, id string, origin models.Origin) error
	MirrorAndCleanup(ctx context.Context) (repository.SyncResult, error)
}

// Handler serves the JSON API.
type Handler struct {
	repo      Repository
	cal       *timex.Calendar
	euroPerKg float64
	logger    logging.Logger
}

// NewHandler builds a Handler.
func NewHandler(repo Repository, cal *timex.Calendar, euroPerKg float64, logger logging.Logger) *Handler {
	return &Handler{
		repo:      repo,
		cal:       cal,
		euroPerKg: euroPerKg,
		logger:    logger.With("component", "api"),
	}
}

// Routes returns the router with middleware applied.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(RequestLogger(h.logger))

	r.Get("/health/live", h.healthLive)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/days/{date}", h.getDay)
		r.Patch("/records/{id}/payment", h.updatePayment)
		r.Delete("/records/{id}", h.deleteRecord)
		r.Post("/sync", h.sync)
	})
	return r
}

type recordView struct {
	models.Record
	Clock  string  `json:"clock"`
	Amount float64 `json:"amount"`
}

type dayResponse struct {
	Date    string            `json:"date"`
	Source  repository.Source `json:"source"`
	Records []recordView      `json:"records"`
	Summary models.DaySummary `json:"summary"`
}

type paymentRequest struct {
	Payment string `json:"payment"`
	Origin  string `json:"origin"`
}

func (h *Handler) healthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// parseDay accepts YYYY-MM-DD or "today".
func (h *Handler) parseDay(raw string) (timex.Date, error) {
	if raw == "today" {
		return h.cal.Today(), nil
	}
	d, err := timex.ParseDate(raw)
	if err != nil {
		return timex.Date{}, fmt.Errorf("%w: bad date %q", common.ErrValidation, raw)
	}
	return d, nil
}

func (h *Handler) getDay(w http.ResponseWriter, r *http.Request) {
	d, err := h.parseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, err)
		return
	}

	records, src, err := h.repo.FetchDay(r.Context(), d)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{
			Record: rec,
			Clock:  h.cal.FormatClock(rec.EventTimeMs),
			Amount: rec.Amount(h.euroPerKg),
		})
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Date:    d.String(),
		Source:  src,
		Records: views,
		Summary: models.Summarize(records, h.euroPerKg),
	})
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid body: %v", common.ErrValidation, err))
		return
	}
	origin, err := models.ParseOrigin(req.Origin)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.UpdatePayment(r.Context(), chi.URLParam(r, "id"), req.Payment, origin); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	origin, err := models.ParseOrigin(r.URL.Query().Get("origin"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.DeleteRecord(r.Context(), chi.URLParam(r, "id"), origin); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.MirrorAndCleanup(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
