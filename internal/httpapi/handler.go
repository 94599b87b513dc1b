// Package httpapi exposes tracking and monitoring operations over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/reconcile"
	"github.com/nhle/juscheck/internal/scheduler"
	"github.com/nhle/juscheck/internal/store"
	"github.com/nhle/juscheck/internal/tracking"
)

// Service defines the tracking operations served by the API.
type Service interface {
	List(ctx context.Context) ([]model.ProcessSummary, error)
	Get(ctx context.Context, id int64) (*model.TrackedProcess, error)
	Register(ctx context.Context, req tracking.RegisterRequest) (*tracking.RegisterResult, error)
	RegisterMany(ctx context.Context, reqs []tracking.RegisterRequest) []tracking.RegisterResult
	UpdateMetadata(ctx context.Context, id int64, upd store.MetadataUpdate) error
	SetFavorite(ctx context.Context, id int64, favorite bool) error
	Remove(ctx context.Context, ids []int64) (int64, error)
	Check(ctx context.Context, id int64, firstCheck bool) (reconcile.Result, error)
	ResendConfirmation(ctx context.Context, id int64) error
	History(ctx context.Context, id int64) ([]model.MovementRecord, error)
	Notifications(ctx context.Context, id int64) ([]model.NotificationEvent, error)
	Lookup(ctx context.Context, number string) (*tracking.LookupResult, error)
	Dashboard(ctx context.Context, days int) (*model.DashboardMetrics, error)
}

// Monitor runs batch reconciliations.
type Monitor interface {
	ReconcileAll(ctx context.Context) ([]reconcile.Result, error)
	ReconcileMany(ctx context.Context, ids []int64) []reconcile.Result
}

// Background runs detached work that outlives the request.
type Background interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context))
}

// StatusReporter exposes the state of the periodic sweep. When the
// Background passed to New implements it, GET /api/monitor/status is served.
type StatusReporter interface {
	Status() scheduler.SweepStatus
}

// Handler serves the JSON API.
type Handler struct {
	svc        Service
	monitor    Monitor
	background Background
	metrics    http.Handler
	logger     *slog.Logger
}

// New creates a Handler. metrics may be nil.
func New(
	svc Service,
	monitor Monitor,
	background Background,
	metrics http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		svc:        svc,
		monitor:    monitor,
		background: background,
		metrics:    metrics,
		logger:     logger,
	}
}

// Routes builds the complete router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	h.Register(r)
	return r
}

// Register registers the API routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/processes", func(r chi.Router) {
			r.Get("/", h.handleList)
			r.Post("/", h.handleRegister)
			r.Delete("/", h.handleRemove)
			r.Post("/bulk", h.handleRegisterMany)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", h.handleUpdate)
				r.Put("/favorite", h.handleFavorite)
				r.Post("/check", h.handleCheck)
				r.Post("/resend-confirmation", h.handleResendConfirmation)
				r.Get("/movements", h.handleMovements)
				r.Get("/notifications", h.handleNotifications)
			})
		})

		r.Post("/monitor/check-all", h.handleCheckAll)
		r.Post("/monitor/check-bulk", h.handleCheckBulk)
		if sr, ok := h.background.(StatusReporter); ok {
			r.Get("/monitor/status", h.handleStatus(sr))
		}
		r.Get("/lookup", h.handleLookup)
		r.Get("/dashboard", h.handleDashboard)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Tracked processes ===

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	processes, err := h.svc.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processes)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req tracking.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type bulkRegisterRequest struct {
	Items []tracking.RegisterRequest `json:"items"`
}

type bulkRegisterResponse struct {
	Succeeded int                       `json:"succeeded"`
	Failed    int                       `json:"failed"`
	Results   []tracking.RegisterResult `json:"results"`
}

func (h *Handler) handleRegisterMany(w http.ResponseWriter, r *http.Request) {
	var req bulkRegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "items must not be empty")
		return
	}

	results := h.svc.RegisterMany(r.Context(), req.Items)
	resp := bulkRegisterResponse{Results: results}
	for _, res := range results {
		if res.Error == "" {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateRequest struct {
	Email    *string `json:"email"`
	Label    *string `json:"label"`
	Priority *string `json:"priority"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.svc.UpdateMetadata(r.Context(), id, store.MetadataUpdate{
		Email:    req.Email,
		Label:    req.Label,
		Priority: req.Priority,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

func (h *Handler) handleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req favoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetFavorite(r.Context(), id, req.Favorite); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	n, err := h.svc.Remove(r.Context(), ids)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	first := r.URL.Query().Get("first") == "true"

	res, err := h.svc.Check(r.Context(), id, first)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, store.ErrNotFound):
		h.writeServiceError(w, r, err)
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, res)
	default:
		// The result body carries the failure; the pass itself did run.
		h.logger.WarnContext(r.Context(), "check failed", "process_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, res)
	}
}

func (h *Handler) handleResendConfirmation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResendConfirmation(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	records, err := h.svc.History(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	events, err := h.svc.Notifications(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// === Monitoring ===

func (h *Handler) handleCheckAll(w http.ResponseWriter, r *http.Request) {
	h.background.Go(r.Context(), "check-all", func(ctx context.Context) {
		if _, err := h.monitor.ReconcileAll(ctx); err != nil {
			h.logger.ErrorContext(ctx, "check-all failed", "error", err)
		}
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type sweepStatusResponse struct {
	State     string            `json:"state"`
	RunID     string            `json:"run_id,omitempty"`
	LastSweep *time.Time        `json:"last_sweep,omitempty"`
	Summary   reconcile.Summary `json:"summary"`
	Error     string            `json:"error,omitempty"`
}

func (h *Handler) handleStatus(sr StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := sr.Status()
		resp := sweepStatusResponse{
			State:   st.State.String(),
			RunID:   st.RunID,
			Summary: st.Summary,
		}
		if !st.LastSweep.IsZero() {
			resp.LastSweep = &st.LastSweep
		}
		if st.Error != nil {
			resp.Error = st.Error.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type checkBulkRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *Handler) handleCheckBulk(w http.ResponseWriter, r *http.Request) {
	var req checkBulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "ids must not be empty")
		return
	}

	ids := req.IDs
	h.background.Go(r.Context(), "check-bulk", func(ctx context.Context) {
		h.monitor.ReconcileMany(ctx, ids)
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "count": len(ids)})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "number is required")
		return
	}
	res, err := h.svc.Lookup(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "days must be a number")
			return
		}
		days = n
	}
	m, err := h.svc.Dashboard(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// === Helpers ===

var errInvalidIDs = errors.New("ids must be a comma-separated list of positive integers")

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid process id")
		return 0, false
	}
	return id, true
}

func parseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errInvalidIDs
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return nil, errInvalidIDs
		}
		ids = append(ids, id)
	}
	return ids, nil
}
