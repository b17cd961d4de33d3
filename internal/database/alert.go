package database

import (
	"encoding/json"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// AlertSeverity represents normalized severity levels
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityInfo     AlertSeverity = "info"
)

// IsValid reports whether s is one of the three canonical severities
func (s AlertSeverity) IsValid() bool {
	switch s {
	case AlertSeverityCritical, AlertSeverityWarning, AlertSeverityInfo:
		return true
	}
	return false
}

// GetSeverityEmoji returns an emoji for the alert severity
func GetSeverityEmoji(severity AlertSeverity) string {
	switch severity {
	case AlertSeverityCritical:
		return "🔴"
	case AlertSeverityWarning:
		return "🟡"
	default:
		return "🔵"
	}
}

// AlertMetadata is the optional structured payload attached to an alert.
// It is stored as an opaque JSON blob and only used for display.
type AlertMetadata struct {
	Status      string                 `json:"status,omitempty"`
	Labels      map[string]interface{} `json:"labels,omitempty"`
	Annotations map[string]string      `json:"annotations,omitempty"`
	Values      map[string]interface{} `json:"values,omitempty"`
	URLs        map[string]string      `json:"urls,omitempty"`
}

// Actor identifies the chat user performing a lifecycle transition
type Actor struct {
	Handle string `json:"handle"`
	ID     string `json:"id"`
	Name   string `json:"name"`
}

// Display returns the best human-readable form of the actor
func (a Actor) Display() string {
	switch {
	case a.Handle != "" && a.Name != "" && a.Name != a.Handle:
		return fmt.Sprintf("@%s (%s)", a.Handle, a.Name)
	case a.Handle != "":
		return "@" + a.Handle
	case a.Name != "":
		return a.Name
	default:
		return a.ID
	}
}

// Alert is one persisted monitoring event with its delivery and lifecycle state.
// Title, Source, Severity, Message, Timestamp, CreatedAt and Metadata never change
// after creation; lifecycle fields are only written by AlertRepository's conditional
// updates.
type Alert struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Title     string        `gorm:"type:varchar(200);not null" json:"title"`
	Source    string        `gorm:"type:varchar(255);not null" json:"source"`
	Severity  AlertSeverity `gorm:"type:varchar(10);not null;index;check:chk_alerts_severity,severity IN ('critical','warning','info')" json:"severity"`
	Message   string        `gorm:"type:text;not null" json:"message"`
	// Timestamp is the event time in epoch millis, CreatedAt the receipt time in epoch seconds.
	Timestamp int64         `gorm:"not null" json:"timestamp"`
	CreatedAt int64         `gorm:"not null;index;autoCreateTime:false" json:"created_at"`

	MetadataRaw *string        `gorm:"column:metadata;type:text" json:"-"`
	Metadata    *AlertMetadata `gorm:"-" json:"metadata,omitempty"`

	NotificationMessageID string `gorm:"type:varchar(64)" json:"notification_message_id,omitempty"`
	NotificationChannelID string `gorm:"type:varchar(64)" json:"notification_channel_id,omitempty"`

	Acknowledged       bool   `gorm:"not null;default:false;index" json:"acknowledged"`
	AcknowledgedBy     string `gorm:"type:varchar(255)" json:"acknowledged_by,omitempty"`
	AcknowledgedByID   string `gorm:"type:varchar(64)" json:"acknowledged_by_id,omitempty"`
	AcknowledgedByName string `gorm:"type:varchar(255)" json:"acknowledged_by_name,omitempty"`
	AcknowledgedAt     *int64 `json:"acknowledged_at,omitempty"`

	Resolved       bool   `gorm:"not null;default:false;index" json:"resolved"`
	ResolvedBy     string `gorm:"type:varchar(255)" json:"resolved_by,omitempty"`
	ResolvedByID   string `gorm:"type:varchar(64)" json:"resolved_by_id,omitempty"`
	ResolvedByName string `gorm:"type:varchar(255)" json:"resolved_by_name,omitempty"`
	ResolvedAt     *int64 `json:"resolved_at,omitempty"`
}

func (Alert) TableName() string {
	return "alerts"
}

// Lifecycle states derived from the acknowledged/resolved flags
const (
	AlertStateNew          = "new"
	AlertStateAcknowledged = "acknowledged"
	AlertStateResolved     = "resolved"
)

// State returns the lifecycle state name
func (a *Alert) State() string {
	switch {
	case a.Resolved:
		return AlertStateResolved
	case a.Acknowledged:
		return AlertStateAcknowledged
	default:
		return AlertStateNew
	}
}

// AcknowledgedActor returns the recorded acknowledger
func (a *Alert) AcknowledgedActor() Actor {
	return Actor{Handle: a.AcknowledgedBy, ID: a.AcknowledgedByID, Name: a.AcknowledgedByName}
}

// ResolvedActor returns the recorded resolver
func (a *Alert) ResolvedActor() Actor {
	return Actor{Handle: a.ResolvedBy, ID: a.ResolvedByID, Name: a.ResolvedByName}
}

// BeforeCreate serializes Metadata into the metadata column
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.Metadata == nil {
		a.MetadataRaw = nil
		return nil
	}
	data, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode alert metadata: %w", err)
	}
	raw := string(data)
	a.MetadataRaw = &raw
	return nil
}

// AfterFind decodes the metadata column. A corrupt blob is logged and dropped
// rather than failing the lookup.
func (a *Alert) AfterFind(tx *gorm.DB) error {
	a.Metadata = nil
	if a.MetadataRaw == nil || *a.MetadataRaw == "" {
		return nil
	}
	var meta AlertMetadata
	if err := json.Unmarshal([]byte(*a.MetadataRaw), &meta); err != nil {
		log.Printf("Warning: alert %d has unreadable metadata, ignoring: %v", a.ID, err)
		return nil
	}
	a.Metadata = &meta
	return nil
}
