package alerts

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akmatori/alertrelay/internal/database"
)

// SourceKind identifies which payload shape a webhook matched
type SourceKind string

const (
	SourceCanonical  SourceKind = "canonical"
	SourceGrafana    SourceKind = "grafana"
	SourcePrometheus SourceKind = "prometheus"
	SourceZabbix     SourceKind = "zabbix"
	SourceGeneric    SourceKind = "generic"
)

// Field limits of the canonical format
const (
	MaxTitleLength   = 200
	MaxMessageLength = 2000
)

// AlertInput is the canonical alert every payload is normalized into
type AlertInput struct {
	Title     string
	Source    string
	Severity  database.AlertSeverity
	Message   string
	Timestamp int64 // epoch millis
	Metadata  *database.AlertMetadata
}

// ToAlert converts the input into a database row ready for creation
func (in AlertInput) ToAlert() *database.Alert {
	return &database.Alert{
		Title:     in.Title,
		Source:    in.Source,
		Severity:  in.Severity,
		Message:   in.Message,
		Timestamp: in.Timestamp,
		Metadata:  in.Metadata,
	}
}

// AlertAdapter defines the interface for source-specific payload detection and mapping
type AlertAdapter interface {
	// GetSourceType returns the source kind this adapter recognizes
	GetSourceType() SourceKind

	// Matches reports whether the payload structurally has this source's shape
	Matches(payload map[string]interface{}) bool

	// Normalize maps a matching payload onto the canonical input. It never fails:
	// missing fields fall back to defaults.
	Normalize(payload map[string]interface{}, receivedAt time.Time) AlertInput
}

// BaseAdapter provides common functionality for all adapters
type BaseAdapter struct {
	SourceType SourceKind
}

// GetSourceType returns the source kind
func (b *BaseAdapter) GetSourceType() SourceKind {
	return b.SourceType
}

// ExtractNestedValue extracts a value using dot notation (e.g., "labels.alertname")
func ExtractNestedValue(data map[string]interface{}, path string) interface{} {
	if path == "" {
		return nil
	}

	parts := strings.Split(path, ".")
	current := interface{}(data)

	for _, part := range parts {
		switch v := current.(type) {
		case map[string]interface{}:
			current = v[part]
		case map[string]string:
			current = v[part]
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}

	return current
}

// ExtractString extracts a string value using dot notation. Numbers and booleans
// are rendered in their JSON form; anything else yields "".
func ExtractString(data map[string]interface{}, path string) string {
	return Stringify(ExtractNestedValue(data, path))
}

// ExtractMap extracts an object using dot notation
func ExtractMap(data map[string]interface{}, path string) map[string]interface{} {
	if m, ok := ExtractNestedValue(data, path).(map[string]interface{}); ok {
		return m
	}
	return nil
}

// ExtractArray extracts an array using dot notation
func ExtractArray(data map[string]interface{}, path string) []interface{} {
	if a, ok := ExtractNestedValue(data, path).([]interface{}); ok {
		return a
	}
	return nil
}

// HasKey reports whether the top-level key is present, whatever its value
func HasKey(data map[string]interface{}, key string) bool {
	_, ok := data[key]
	return ok
}

// Stringify renders scalar JSON values as strings
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// StringMap converts a JSON object into a map of its string-rendered scalar values
func StringMap(m map[string]interface{}) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s := Stringify(v); s != "" {
			out[k] = s
		}
	}
	return out
}

// FirstNonEmpty returns the first argument that is not blank
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Truncate shortens s to at most max runes
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// Finalize trims fields and enforces the canonical length limits on a
// transformed input
func Finalize(in AlertInput) AlertInput {
	in.Title = Truncate(strings.TrimSpace(in.Title), MaxTitleLength)
	in.Source = strings.TrimSpace(in.Source)
	in.Message = Truncate(strings.TrimSpace(in.Message), MaxMessageLength)
	return in
}

// ParseTimestamp parses an RFC 3339 date into epoch millis, falling back to receivedAt
func ParseTimestamp(value string, receivedAt time.Time) int64 {
	if value != "" {
		if t, err := time.Parse(time.RFC3339Nano, value); err == nil && !t.IsZero() && t.Year() > 1 {
			return t.UnixMilli()
		}
	}
	return receivedAt.UnixMilli()
}

// ParseEpochSeconds converts epoch seconds (string or number) into millis,
// falling back to receivedAt
func ParseEpochSeconds(value interface{}, receivedAt time.Time) int64 {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int64(v) * 1000
		}
	case string:
		if secs, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && secs > 0 {
			return secs * 1000
		}
	}
	return receivedAt.UnixMilli()
}
