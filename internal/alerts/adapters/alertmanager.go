package adapters

import (
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
)

// AlertmanagerAdapter handles Prometheus Alertmanager webhooks
type AlertmanagerAdapter struct {
	alerts.BaseAdapter
}

// NewAlertmanagerAdapter creates a new Alertmanager adapter
func NewAlertmanagerAdapter() *AlertmanagerAdapter {
	return &AlertmanagerAdapter{
		BaseAdapter: alerts.BaseAdapter{SourceType: alerts.SourcePrometheus},
	}
}

// Matches requires a non-empty alerts array and a groupKey field
func (a *AlertmanagerAdapter) Matches(payload map[string]interface{}) bool {
	return hasAlertsArray(payload) && alerts.HasKey(payload, "groupKey")
}

// Normalize maps the first alert of an Alertmanager payload. The payload
// status wins; the element's own status is used when it is absent.
func (a *AlertmanagerAdapter) Normalize(payload map[string]interface{}, receivedAt time.Time) alerts.AlertInput {
	element := firstAlert(payload)
	status := alerts.FirstNonEmpty(
		alerts.ExtractString(payload, "status"),
		alerts.ExtractString(element, "status"),
	)

	input := normalizePromAlert(payload, element, status, a.SourceType, promAlertDefaults{
		title:  "Prometheus Alert",
		source: "Alertmanager",
	}, receivedAt)

	if generatorURL := alerts.ExtractString(element, "generatorURL"); generatorURL != "" {
		input.Metadata.URLs = map[string]string{"source": generatorURL}
	}
	return input
}
