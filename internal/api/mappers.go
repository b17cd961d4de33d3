package api

import "github.com/akmatori/alertrelay/internal/database"

// AlertToSummary converts a stored alert into the webhook echo.
func AlertToSummary(a *database.Alert) AlertSummary {
	return AlertSummary{
		ID:        a.ID,
		Title:     a.Title,
		Source:    a.Source,
		Severity:  a.Severity,
		Timestamp: a.Timestamp,
	}
}

// AlertToResponse converts a stored alert into its API representation.
func AlertToResponse(a *database.Alert) AlertResponse {
	return AlertResponse{
		Alert: *a,
		State: a.State(),
	}
}

// AlertsToResponses converts a slice of alerts.
func AlertsToResponses(alerts []database.Alert) []AlertResponse {
	items := make([]AlertResponse, len(alerts))
	for i := range alerts {
		items[i] = AlertToResponse(&alerts[i])
	}
	return items
}
