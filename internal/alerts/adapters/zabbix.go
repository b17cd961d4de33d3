package adapters

import (
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
	"github.com/akmatori/alertrelay/internal/database"
)

// ZabbixAdapter handles Zabbix webhooks carrying trigger and event objects
type ZabbixAdapter struct {
	alerts.BaseAdapter
}

// NewZabbixAdapter creates a new Zabbix adapter
func NewZabbixAdapter() *ZabbixAdapter {
	return &ZabbixAdapter{
		BaseAdapter: alerts.BaseAdapter{SourceType: alerts.SourceZabbix},
	}
}

// Matches requires a trigger object plus an event or problem object
func (a *ZabbixAdapter) Matches(payload map[string]interface{}) bool {
	if alerts.ExtractMap(payload, "trigger") == nil {
		return false
	}
	return alerts.ExtractMap(payload, "event") != nil || alerts.ExtractMap(payload, "problem") != nil
}

// Normalize maps a Zabbix trigger/event payload
func (a *ZabbixAdapter) Normalize(payload map[string]interface{}, receivedAt time.Time) alerts.AlertInput {
	trigger := alerts.ExtractMap(payload, "trigger")
	event := alerts.ExtractMap(payload, "event")
	if event == nil {
		event = alerts.ExtractMap(payload, "problem")
	}

	status := "OK"
	if alerts.ExtractString(event, "value") == "1" {
		status = "Problem"
	}

	rawSeverity := alerts.FirstNonEmpty(
		alerts.ExtractString(trigger, "priority"),
		alerts.ExtractString(trigger, "severity"),
		alerts.ExtractString(event, "severity"),
	)

	host := zabbixHost(payload)

	input := alerts.AlertInput{
		Title: alerts.FirstNonEmpty(
			alerts.ExtractString(trigger, "name"),
			alerts.ExtractString(event, "name"),
			"Zabbix Alert",
		),
		Source: alerts.FirstNonEmpty(
			host,
			alerts.ExtractString(trigger, "host"),
			"Zabbix",
		),
		Severity: alerts.MapSeverity(rawSeverity, status, a.SourceType),
		Message: alerts.FirstNonEmpty(
			alerts.ExtractString(trigger, "description"),
			alerts.ExtractString(event, "description"),
			"Zabbix trigger activated",
		),
		Timestamp: alerts.ParseEpochSeconds(event["clock"], receivedAt),
		Metadata: &database.AlertMetadata{
			Status: status,
			Labels: a.labels(trigger, event, host),
		},
	}

	if triggerURL := alerts.ExtractString(trigger, "url"); triggerURL != "" {
		input.Metadata.URLs = map[string]string{"source": triggerURL}
	}
	return input
}

func (a *ZabbixAdapter) labels(trigger, event map[string]interface{}, host string) map[string]interface{} {
	labels := make(map[string]interface{})
	if id := alerts.ExtractString(trigger, "id"); id != "" {
		labels["trigger_id"] = id
	}
	if id := alerts.FirstNonEmpty(alerts.ExtractString(event, "id"), alerts.ExtractString(event, "eventid")); id != "" {
		labels["event_id"] = id
	}
	if host != "" {
		labels["host"] = host
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

// zabbixHost reads "host" as either an object with name/host keys or a plain string
func zabbixHost(payload map[string]interface{}) string {
	switch h := payload["host"].(type) {
	case string:
		return h
	case map[string]interface{}:
		return alerts.FirstNonEmpty(alerts.ExtractString(h, "name"), alerts.ExtractString(h, "host"))
	default:
		return ""
	}
}
