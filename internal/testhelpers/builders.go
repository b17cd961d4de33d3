package testhelpers

import (
	"github.com/akmatori/alertrelay/internal/database"
)

// ========================================
// Alert Builder
// ========================================

// AlertBuilder builds database.Alert rows for testing
type AlertBuilder struct {
	alert database.Alert
}

// NewAlertBuilder creates a new alert builder with defaults
func NewAlertBuilder() *AlertBuilder {
	return &AlertBuilder{
		alert: database.Alert{
			Title:     "Test Alert",
			Source:    "test-service",
			Severity:  database.AlertSeverityWarning,
			Message:   "Test alert message",
			Timestamp: 1705314600000,
		},
	}
}

// WithTitle sets the title
func (b *AlertBuilder) WithTitle(title string) *AlertBuilder {
	b.alert.Title = title
	return b
}

// WithSource sets the source
func (b *AlertBuilder) WithSource(source string) *AlertBuilder {
	b.alert.Source = source
	return b
}

// WithSeverity sets the severity
func (b *AlertBuilder) WithSeverity(severity database.AlertSeverity) *AlertBuilder {
	b.alert.Severity = severity
	return b
}

// WithMessage sets the message
func (b *AlertBuilder) WithMessage(message string) *AlertBuilder {
	b.alert.Message = message
	return b
}

// WithTimestamp sets the event time in epoch millis
func (b *AlertBuilder) WithTimestamp(millis int64) *AlertBuilder {
	b.alert.Timestamp = millis
	return b
}

// WithURL adds a metadata link
func (b *AlertBuilder) WithURL(kind, url string) *AlertBuilder {
	if b.alert.Metadata == nil {
		b.alert.Metadata = &database.AlertMetadata{}
	}
	if b.alert.Metadata.URLs == nil {
		b.alert.Metadata.URLs = map[string]string{}
	}
	b.alert.Metadata.URLs[kind] = url
	return b
}

// WithNotification sets where the alert was delivered
func (b *AlertBuilder) WithNotification(channelID, messageID string) *AlertBuilder {
	b.alert.NotificationChannelID = channelID
	b.alert.NotificationMessageID = messageID
	return b
}

// AcknowledgedBy marks the alert acknowledged at epoch second at
func (b *AlertBuilder) AcknowledgedBy(actor database.Actor, at int64) *AlertBuilder {
	b.alert.Acknowledged = true
	b.alert.AcknowledgedBy = actor.Handle
	b.alert.AcknowledgedByID = actor.ID
	b.alert.AcknowledgedByName = actor.Name
	b.alert.AcknowledgedAt = &at
	return b
}

// ResolvedBy marks the alert resolved at epoch second at. The alert must
// already be acknowledged.
func (b *AlertBuilder) ResolvedBy(actor database.Actor, at int64) *AlertBuilder {
	b.alert.Resolved = true
	b.alert.ResolvedBy = actor.Handle
	b.alert.ResolvedByID = actor.ID
	b.alert.ResolvedByName = actor.Name
	b.alert.ResolvedAt = &at
	return b
}

// Build returns the constructed alert
func (b *AlertBuilder) Build() database.Alert {
	alert := b.alert
	if b.alert.Metadata != nil {
		meta := *b.alert.Metadata
		if meta.URLs != nil {
			meta.URLs = make(map[string]string, len(b.alert.Metadata.URLs))
			for k, v := range b.alert.Metadata.URLs {
				meta.URLs[k] = v
			}
		}
		alert.Metadata = &meta
	}
	return alert
}

// ========================================
// Payload Builder
// ========================================

// PayloadBuilder builds canonical webhook payloads as decoded JSON objects
type PayloadBuilder struct {
	payload map[string]interface{}
}

// NewCanonicalPayload creates a valid canonical payload
func NewCanonicalPayload() *PayloadBuilder {
	return &PayloadBuilder{
		payload: map[string]interface{}{
			"title":    "Database connection lost",
			"source":   "orders-api",
			"severity": "critical",
			"message":  "Connection pool exhausted after 30s",
		},
	}
}

// With sets a field; numbers must be float64 to match decoded JSON
func (b *PayloadBuilder) With(key string, value interface{}) *PayloadBuilder {
	b.payload[key] = value
	return b
}

// Without removes a field
func (b *PayloadBuilder) Without(key string) *PayloadBuilder {
	delete(b.payload, key)
	return b
}

// Build returns a copy of the payload
func (b *PayloadBuilder) Build() map[string]interface{} {
	out := make(map[string]interface{}, len(b.payload))
	for k, v := range b.payload {
		out[k] = v
	}
	return out
}
