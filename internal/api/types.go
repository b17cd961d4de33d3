package api

import (
	"net/http"

	"github.com/akmatori/alertrelay/internal/database"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeValidation   = "validation_error"
	CodeInvalidAlert = "invalid_alert"
	CodeInvalidJSON  = "invalid_json"
	CodeStorage      = "storage_error"
	CodeNotFound     = "not_found"
	CodeUnavailable  = "unavailable"
)

// ========== Webhook Types ==========

// AlertSummary is the compact alert echoed back to webhook senders.
type AlertSummary struct {
	ID        uint                   `json:"id"`
	Title     string                 `json:"title"`
	Source    string                 `json:"source"`
	Severity  database.AlertSeverity `json:"severity"`
	Timestamp int64                  `json:"timestamp"`
}

// CreateAlertResponse is the 201 body of POST /api/alert.
type CreateAlertResponse struct {
	Success  bool         `json:"success"`
	Alert    AlertSummary `json:"alert"`
	Notified bool         `json:"notified"`
	Format   string       `json:"format"`
}

// ========== Alert Query Types ==========

// AlertResponse is a stored alert with its derived lifecycle state.
type AlertResponse struct {
	database.Alert
	State string `json:"state"`
}

// AlertListResponse is the body of GET /api/alerts.
type AlertListResponse struct {
	Alerts     []AlertResponse `json:"alerts"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}

// ListAlertsQuery holds the filters accepted by GET /api/alerts.
type ListAlertsQuery struct {
	Severity string `validate:"omitempty,oneof=critical warning info"`
	State    string `validate:"omitempty,oneof=new acknowledged resolved"`
}

// ParseListAlertsQuery reads the list filters from the query string.
func ParseListAlertsQuery(r *http.Request) ListAlertsQuery {
	q := r.URL.Query()
	return ListAlertsQuery{
		Severity: q.Get("severity"),
		State:    q.Get("state"),
	}
}

// Filter converts the query into a repository filter.
func (q ListAlertsQuery) Filter() database.AlertFilter {
	return database.AlertFilter{
		Severity: database.AlertSeverity(q.Severity),
		State:    q.State,
	}
}

// ========== Stats Types ==========

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Unacknowledged   int64                  `json:"unacknowledged"`
	Weekly           database.WeeklySummary `json:"weekly"`
	TopAcknowledgers []database.ActorCount  `json:"top_acknowledgers"`
	TopResolvers     []database.ActorCount  `json:"top_resolvers"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
