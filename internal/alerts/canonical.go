package alerts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akmatori/alertrelay/internal/database"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CanonicalPayload is the relay's own alert format
type CanonicalPayload struct {
	Title     string `json:"title" validate:"required,max=200"`
	Source    string `json:"source" validate:"required"`
	Severity  string `json:"severity" validate:"required,oneof=critical warning info"`
	Message   string `json:"message" validate:"required,max=2000"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// ValidationError lists every field that kept a payload from being canonical.
// Fields maps the JSON field name to a human-readable reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid alert payload: " + strings.Join(parts, "; ")
}

// ParseCanonical checks payload against the canonical format. On success the
// returned input has trimmed fields and a lower-cased severity; the timestamp
// defaults to receivedAt.
func ParseCanonical(payload map[string]interface{}, receivedAt time.Time) (AlertInput, error) {
	fields := make(map[string]string)

	canonical := CanonicalPayload{
		Title:    canonicalString(payload, "title", fields),
		Source:   canonicalString(payload, "source", fields),
		Severity: strings.ToLower(canonicalString(payload, "severity", fields)),
		Message:  canonicalString(payload, "message", fields),
	}

	if raw, ok := payload["timestamp"]; ok && raw != nil {
		if ts, ok := raw.(float64); ok && ts >= 0 {
			millis := int64(ts)
			canonical.Timestamp = &millis
		} else {
			fields["timestamp"] = "must be a number of epoch milliseconds"
		}
	}

	for field, msg := range validateCanonical(canonical) {
		if _, exists := fields[field]; !exists {
			fields[field] = msg
		}
	}

	if len(fields) > 0 {
		return AlertInput{}, &ValidationError{Fields: fields}
	}

	input := AlertInput{
		Title:     canonical.Title,
		Source:    canonical.Source,
		Severity:  database.AlertSeverity(canonical.Severity),
		Message:   canonical.Message,
		Timestamp: receivedAt.UnixMilli(),
	}
	if canonical.Timestamp != nil && *canonical.Timestamp > 0 {
		input.Timestamp = *canonical.Timestamp
	}
	return input, nil
}

// canonicalString returns the trimmed string at key, recording a type error
// for non-string values
func canonicalString(payload map[string]interface{}, key string, fields map[string]string) string {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		fields[key] = "must be a string"
		return ""
	}
	return strings.TrimSpace(s)
}

// validateCanonical runs the struct tags and returns json-field → message
func validateCanonical(p CanonicalPayload) map[string]string {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errs := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		errs[strings.ToLower(fe.Field())] = validationMessage(fe)
	}
	return errs
}

// validationMessage returns a human-readable message for a validation error.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
