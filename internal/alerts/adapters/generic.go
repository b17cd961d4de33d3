package adapters

import (
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
	"github.com/akmatori/alertrelay/internal/database"
)

// genericReservedKeys are consumed by the mapping itself; every other
// top-level key is passed through as a label
var genericReservedKeys = map[string]bool{
	"title":     true,
	"source":    true,
	"severity":  true,
	"message":   true,
	"timestamp": true,
	"status":    true,
	"level":     true,
	"priority":  true,
}

// GenericAdapter handles loosely structured webhooks with a message and a
// status, level or priority
type GenericAdapter struct {
	alerts.BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{
		BaseAdapter: alerts.BaseAdapter{SourceType: alerts.SourceGeneric},
	}
}

// Matches requires a message field and at least one of status, level or priority
func (a *GenericAdapter) Matches(payload map[string]interface{}) bool {
	if !alerts.HasKey(payload, "message") {
		return false
	}
	return alerts.HasKey(payload, "status") || alerts.HasKey(payload, "level") || alerts.HasKey(payload, "priority")
}

// Normalize maps a generic payload
func (a *GenericAdapter) Normalize(payload map[string]interface{}, receivedAt time.Time) alerts.AlertInput {
	title := alerts.FirstNonEmpty(
		alerts.ExtractString(payload, "title"),
		alerts.ExtractString(payload, "subject"),
		alerts.ExtractString(payload, "alert"),
		"Generic Alert",
	)

	rawSeverity := alerts.FirstNonEmpty(
		alerts.ExtractString(payload, "severity"),
		alerts.ExtractString(payload, "level"),
		alerts.ExtractString(payload, "priority"),
	)
	status := alerts.ExtractString(payload, "status")

	var labels map[string]interface{}
	for k, v := range payload {
		if genericReservedKeys[k] {
			continue
		}
		if labels == nil {
			labels = make(map[string]interface{})
		}
		labels[k] = v
	}

	return alerts.AlertInput{
		Title: title,
		Source: alerts.FirstNonEmpty(
			alerts.ExtractString(payload, "source"),
			alerts.ExtractString(payload, "service"),
			alerts.ExtractString(payload, "host"),
			"Webhook",
		),
		Severity:  alerts.MapSeverity(rawSeverity, status, a.SourceType),
		Message:   alerts.FirstNonEmpty(alerts.ExtractString(payload, "message"), title),
		Timestamp: genericTimestamp(payload["timestamp"], receivedAt),
		Metadata: &database.AlertMetadata{
			Status: status,
			Labels: labels,
		},
	}
}

// genericTimestamp accepts epoch millis or an RFC 3339 string
func genericTimestamp(value interface{}, receivedAt time.Time) int64 {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int64(v)
		}
	case string:
		return alerts.ParseTimestamp(v, receivedAt)
	}
	return receivedAt.UnixMilli()
}
