package adapters

import (
	"fmt"
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
	"github.com/akmatori/alertrelay/internal/database"
)

// promAlertDefaults holds the literals used when a Grafana or Alertmanager
// payload leaves a field empty
type promAlertDefaults struct {
	title  string
	source string
}

// hasAlertsArray reports whether payload carries a non-empty "alerts" array
func hasAlertsArray(payload map[string]interface{}) bool {
	return len(alerts.ExtractArray(payload, "alerts")) > 0
}

// firstAlert returns the first element of the "alerts" array as an object
func firstAlert(payload map[string]interface{}) map[string]interface{} {
	list := alerts.ExtractArray(payload, "alerts")
	if len(list) == 0 {
		return map[string]interface{}{}
	}
	if element, ok := list[0].(map[string]interface{}); ok {
		return element
	}
	return map[string]interface{}{}
}

// normalizePromAlert derives the fields shared by Grafana and Alertmanager
// payloads from the first alert element
func normalizePromAlert(payload, element map[string]interface{}, status string, kind alerts.SourceKind, defaults promAlertDefaults, receivedAt time.Time) alerts.AlertInput {
	labels := alerts.ExtractMap(element, "labels")
	annotations := alerts.ExtractMap(element, "annotations")

	alertName := alerts.ExtractString(labels, "alertname")
	summary := alerts.FirstNonEmpty(
		alerts.ExtractString(annotations, "summary"),
		alerts.ExtractString(payload, "commonAnnotations.summary"),
	)

	title := alerts.FirstNonEmpty(summary, alertName, defaults.title)
	source := alerts.FirstNonEmpty(
		alerts.ExtractString(labels, "instance"),
		alerts.ExtractString(labels, "job"),
		alerts.ExtractString(payload, "receiver"),
		defaults.source,
	)
	message := alerts.FirstNonEmpty(
		alerts.ExtractString(annotations, "description"),
		summary,
		synthesizeMessage(alertName, defaults.title, status),
	)

	return alerts.AlertInput{
		Title:     title,
		Source:    source,
		Severity:  alerts.MapSeverity(alerts.ExtractString(labels, "severity"), status, kind),
		Message:   message,
		Timestamp: alerts.ParseTimestamp(alerts.ExtractString(element, "startsAt"), receivedAt),
		Metadata: &database.AlertMetadata{
			Status:      status,
			Labels:      labels,
			Annotations: alerts.StringMap(annotations),
			Values:      alerts.ExtractMap(element, "values"),
		},
	}
}

func synthesizeMessage(alertName, fallback, status string) string {
	name := alerts.FirstNonEmpty(alertName, fallback)
	if status == "" {
		status = "firing"
	}
	return fmt.Sprintf("Alert %s is %s", name, status)
}
