package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
	"github.com/akmatori/alertrelay/internal/api"
	"github.com/akmatori/alertrelay/internal/database"
	"github.com/akmatori/alertrelay/internal/middleware"
	"github.com/akmatori/alertrelay/internal/services"
)

// ReadinessChecker reports whether the store has finished migrating
type ReadinessChecker interface {
	Ready() <-chan struct{}
	IsReady() bool
}

// HTTPHandler handles HTTP endpoints
type HTTPHandler struct {
	alertService *services.AlertService
	readiness    ReadinessChecker
}

// NewHTTPHandler creates a new HTTP handler. readiness may be nil, in which
// case requests are served immediately.
func NewHTTPHandler(alertService *services.AlertService, readiness ReadinessChecker) *HTTPHandler {
	return &HTTPHandler{
		alertService: alertService,
		readiness:    readiness,
	}
}

// SetupRoutes configures all HTTP routes
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("POST /api/alert", h.handleCreateAlert)
	mux.HandleFunc("GET /api/alerts", h.handleListAlerts)
	mux.HandleFunc("GET /api/alerts/{id}", h.handleGetAlert)
	mux.HandleFunc("GET /api/stats", h.handleStats)
}

// ServerOptions configures the middleware chain around the routes
type ServerOptions struct {
	APISecret      string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Wrap applies request ID, CORS, bearer auth and the request timeout, outermost first.
// /health is reachable without a token.
func Wrap(next http.Handler, opts ServerOptions) http.Handler {
	if opts.RequestTimeout > 0 {
		next = http.TimeoutHandler(next, opts.RequestTimeout, `{"success":false,"error":"request timed out"}`)
	}
	auth := middleware.NewAuthMiddleware(&middleware.AuthConfig{
		Secret:    opts.APISecret,
		SkipPaths: []string{"/health"},
	})
	next = auth.Wrap(next)
	next = middleware.NewCORSMiddleware(opts.AllowedOrigins...).Wrap(next)
	return middleware.RequestIDMiddleware(next)
}

// handleHealth reports 200 once the store is migrated and 503 before
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.readiness != nil && !h.readiness.IsReady() {
		api.RespondJSON(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "starting"})
		return
	}
	api.RespondJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// waitReady blocks until the store is ready or the request is abandoned
func (h *HTTPHandler) waitReady(w http.ResponseWriter, r *http.Request) bool {
	if h.readiness == nil {
		return true
	}
	select {
	case <-h.readiness.Ready():
		return true
	case <-r.Context().Done():
		api.RespondErrorWithCode(w, http.StatusServiceUnavailable, api.CodeUnavailable, "Service is starting, try again shortly")
		return false
	}
}

// handleCreateAlert accepts one webhook payload in any supported format
func (h *HTTPHandler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	if !h.waitReady(w, r) {
		return
	}

	payload, err := api.DecodeJSONObject(r)
	if err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeInvalidJSON, err.Error())
		return
	}

	result, err := h.alertService.Ingest(r.Context(), payload)
	if err != nil {
		if errors.Is(err, alerts.ErrUnrecognizedFormat) {
			var fields map[string]string
			var validationErr *alerts.ValidationError
			if errors.As(err, &validationErr) {
				fields = validationErr.Fields
			}
			log.Printf("Rejected webhook payload [%s]: %v", middleware.GetRequestID(r.Context()), err)
			api.RespondInvalidAlert(w, "Unrecognized alert format", fields)
			return
		}
		log.Printf("Failed to ingest alert [%s]: %v", middleware.GetRequestID(r.Context()), err)
		api.RespondErrorWithCode(w, http.StatusInternalServerError, api.CodeStorage, "Failed to store alert")
		return
	}

	api.RespondJSON(w, http.StatusCreated, api.CreateAlertResponse{
		Success:  true,
		Alert:    api.AlertToSummary(result.Alert),
		Notified: result.Notified,
		Format:   string(result.Kind),
	})
}

func (h *HTTPHandler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if !h.waitReady(w, r) {
		return
	}

	query := api.ParseListAlertsQuery(r)
	if errs := api.Validate(query); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}
	page := api.ParsePagination(r)

	items, total, err := h.alertService.List(r.Context(), query.Filter(), page.Offset(), page.PerPage)
	if err != nil {
		log.Printf("Failed to list alerts: %v", err)
		api.RespondErrorWithCode(w, http.StatusInternalServerError, api.CodeStorage, "Failed to list alerts")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.AlertListResponse{
		Alerts:     api.AlertsToResponses(items),
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages(total),
	})
}

func (h *HTTPHandler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	if !h.waitReady(w, r) {
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		api.RespondValidationError(w, map[string]string{"id": "must be a positive integer"})
		return
	}

	alert, err := h.alertService.Get(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, database.ErrAlertNotFound) {
			api.RespondErrorWithCode(w, http.StatusNotFound, api.CodeNotFound, "Alert not found")
			return
		}
		log.Printf("Failed to load alert %d: %v", id, err)
		api.RespondErrorWithCode(w, http.StatusInternalServerError, api.CodeStorage, "Failed to load alert")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.AlertToResponse(alert))
}

func (h *HTTPHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if !h.waitReady(w, r) {
		return
	}

	stats, err := h.alertService.Stats(r.Context())
	if err != nil {
		log.Printf("Failed to compute stats: %v", err)
		api.RespondErrorWithCode(w, http.StatusInternalServerError, api.CodeStorage, "Failed to compute stats")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.StatsResponse{
		Unacknowledged:   stats.Unacknowledged,
		Weekly:           stats.Weekly,
		TopAcknowledgers: nonNilCounts(stats.TopAcknowledgers),
		TopResolvers:     nonNilCounts(stats.TopResolvers),
	})
}

// nonNilCounts keeps empty leaderboards serialized as [] instead of null
func nonNilCounts(counts []database.ActorCount) []database.ActorCount {
	if counts == nil {
		return []database.ActorCount{}
	}
	return counts
}
