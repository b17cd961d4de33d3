package alerts

import (
	"strings"

	"github.com/akmatori/alertrelay/internal/database"
)

// grafanaSeverityMapping covers Grafana and Alertmanager status tokens.
// Unknown tokens map to warning.
var grafanaSeverityMapping = map[string]database.AlertSeverity{
	"firing":   database.AlertSeverityWarning,
	"resolved": database.AlertSeverityInfo,
	"pending":  database.AlertSeverityInfo,
}

// zabbixSeverityMapping covers numeric trigger priorities and their names.
// Unknown tokens map to warning.
var zabbixSeverityMapping = map[string]database.AlertSeverity{
	"5":              database.AlertSeverityCritical,
	"4":              database.AlertSeverityCritical,
	"3":              database.AlertSeverityWarning,
	"2":              database.AlertSeverityWarning,
	"1":              database.AlertSeverityInfo,
	"0":              database.AlertSeverityInfo,
	"disaster":       database.AlertSeverityCritical,
	"high":           database.AlertSeverityCritical,
	"average":        database.AlertSeverityWarning,
	"warning":        database.AlertSeverityWarning,
	"information":    database.AlertSeverityInfo,
	"not_classified": database.AlertSeverityInfo,
}

// genericSeverityMapping is the synonym table for every other source.
// Unknown tokens map to info.
var genericSeverityMapping = map[string]database.AlertSeverity{
	"error":     database.AlertSeverityCritical,
	"fatal":     database.AlertSeverityCritical,
	"emergency": database.AlertSeverityCritical,
	"alert":     database.AlertSeverityCritical,
	"high":      database.AlertSeverityCritical,
	"urgent":    database.AlertSeverityCritical,

	"warn":     database.AlertSeverityWarning,
	"warning":  database.AlertSeverityWarning,
	"medium":   database.AlertSeverityWarning,
	"moderate": database.AlertSeverityWarning,

	"info":        database.AlertSeverityInfo,
	"information": database.AlertSeverityInfo,
	"notice":      database.AlertSeverityInfo,
	"low":         database.AlertSeverityInfo,
	"debug":       database.AlertSeverityInfo,
	"trace":       database.AlertSeverityInfo,
}

// MapSeverity maps a source-specific severity or status token onto one of the
// canonical severities. rawSeverity wins over rawStatus; blank values count as
// absent. The function is total: it always returns a valid severity.
func MapSeverity(rawSeverity, rawStatus string, kind SourceKind) database.AlertSeverity {
	token := strings.ToLower(strings.TrimSpace(rawSeverity))
	if token == "" {
		token = strings.ToLower(strings.TrimSpace(rawStatus))
	}
	if token == "" {
		return database.AlertSeverityInfo
	}

	if sev := database.AlertSeverity(token); sev.IsValid() {
		return sev
	}

	switch kind {
	case SourceGrafana, SourcePrometheus:
		return lookupSeverity(grafanaSeverityMapping, token, database.AlertSeverityWarning)
	case SourceZabbix:
		return lookupSeverity(zabbixSeverityMapping, token, database.AlertSeverityWarning)
	default:
		return lookupSeverity(genericSeverityMapping, token, database.AlertSeverityInfo)
	}
}

func lookupSeverity(mapping map[string]database.AlertSeverity, token string, fallback database.AlertSeverity) database.AlertSeverity {
	if sev, ok := mapping[token]; ok {
		return sev
	}
	return fallback
}
