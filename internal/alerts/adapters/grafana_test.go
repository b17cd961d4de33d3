package adapters

import (
	"strings"
	"testing"
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
	"github.com/akmatori/alertrelay/internal/database"
)

const grafanaFiringPayload = `{
	"receiver": "relay",
	"status": "firing",
	"externalURL": "http://grafana:3000/",
	"commonAnnotations": {"summary": "Common summary"},
	"alerts": [
		{
			"status": "firing",
			"labels": {
				"alertname": "DiskSpaceLow",
				"severity": "critical",
				"instance": "storage-01:9100",
				"job": "node-exporter"
			},
			"annotations": {
				"summary": "Disk space is below 10%",
				"description": "Storage server has low disk space"
			},
			"values": {"B": 7.5},
			"startsAt": "2024-01-15T10:30:00Z",
			"generatorURL": "http://grafana:3000/alerting/grafana/abc/view",
			"dashboardURL": "http://grafana:3000/d/xyz",
			"panelURL": "http://grafana:3000/d/xyz?viewPanel=2"
		}
	]
}`

func TestNewGrafanaAdapter(t *testing.T) {
	adapter := NewGrafanaAdapter()
	if adapter == nil {
		t.Fatal("Expected adapter to not be nil")
	}
	if adapter.GetSourceType() != alerts.SourceGrafana {
		t.Errorf("Expected source type 'grafana', got '%s'", adapter.GetSourceType())
	}
}

func TestGrafanaAdapter_Matches(t *testing.T) {
	adapter := NewGrafanaAdapter()

	tests := []struct {
		name     string
		body     string
		expected bool
	}{
		{"alerts and receiver", `{"receiver": "r", "alerts": [{}]}`, true},
		{"empty alerts", `{"receiver": "r", "alerts": []}`, false},
		{"alerts not an array", `{"receiver": "r", "alerts": {"a": 1}}`, false},
		{"missing receiver", `{"groupKey": "g", "alerts": [{}]}`, false},
		{"missing alerts", `{"receiver": "r"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.Matches(decodePayload(t, tt.body)); got != tt.expected {
				t.Errorf("Matches = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestGrafanaAdapter_Normalize_Firing(t *testing.T) {
	adapter := NewGrafanaAdapter()
	input := adapter.Normalize(decodePayload(t, grafanaFiringPayload), receivedAt)

	if input.Title != "Disk space is below 10%" {
		t.Errorf("Expected Title 'Disk space is below 10%%', got '%s'", input.Title)
	}
	if input.Source != "storage-01:9100" {
		t.Errorf("Expected Source 'storage-01:9100', got '%s'", input.Source)
	}
	if input.Message != "Storage server has low disk space" {
		t.Errorf("Expected Message from description, got '%s'", input.Message)
	}
	if input.Severity != database.AlertSeverityCritical {
		t.Errorf("Expected Severity 'critical', got '%s'", input.Severity)
	}

	expectedTS := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixMilli()
	if input.Timestamp != expectedTS {
		t.Errorf("Expected Timestamp %d, got %d", expectedTS, input.Timestamp)
	}

	if input.Metadata == nil {
		t.Fatal("Expected metadata")
	}
	if input.Metadata.Status != "firing" {
		t.Errorf("Expected Status 'firing', got '%s'", input.Metadata.Status)
	}
	if input.Metadata.Labels["job"] != "node-exporter" {
		t.Errorf("Expected labels to be copied, got %v", input.Metadata.Labels)
	}
	if input.Metadata.Annotations["summary"] != "Disk space is below 10%" {
		t.Errorf("Expected annotations to be copied, got %v", input.Metadata.Annotations)
	}
	if input.Metadata.Values["B"] != 7.5 {
		t.Errorf("Expected values to be copied, got %v", input.Metadata.Values)
	}

	urls := input.Metadata.URLs
	expectedSilence := "http://grafana:3000/alerting/silence/new?" +
		"matcher=alertname%3DDiskSpaceLow&" +
		"matcher=instance%3Dstorage-01%3A9100&" +
		"matcher=job%3Dnode-exporter&" +
		"matcher=severity%3Dcritical"
	if urls["silence"] != expectedSilence {
		t.Errorf("Expected silence URL\n  %s\ngot\n  %s", expectedSilence, urls["silence"])
	}
	if urls["source"] != "http://grafana:3000/alerting/grafana/abc/view" {
		t.Errorf("Expected source URL from generatorURL, got '%s'", urls["source"])
	}
	if urls["dashboard"] != "http://grafana:3000/d/xyz" {
		t.Errorf("Expected dashboard URL, got '%s'", urls["dashboard"])
	}
	if urls["panel"] != "http://grafana:3000/d/xyz?viewPanel=2" {
		t.Errorf("Expected panel URL, got '%s'", urls["panel"])
	}
}

func TestGrafanaAdapter_Normalize_Fallbacks(t *testing.T) {
	adapter := NewGrafanaAdapter()

	tests := []struct {
		name            string
		body            string
		expectedTitle   string
		expectedSource  string
		expectedMessage string
	}{
		{
			name:            "common annotation summary",
			body:            `{"receiver": "team", "commonAnnotations": {"summary": "Common"}, "alerts": [{"labels": {"alertname": "A", "job": "api"}}]}`,
			expectedTitle:   "Common",
			expectedSource:  "api",
			expectedMessage: "Common",
		},
		{
			name:            "alertname only",
			body:            `{"receiver": "team", "status": "firing", "alerts": [{"labels": {"alertname": "HighCPU"}}]}`,
			expectedTitle:   "HighCPU",
			expectedSource:  "team",
			expectedMessage: "Alert HighCPU is firing",
		},
		{
			name:            "nothing at all",
			body:            `{"receiver": "", "alerts": [{}]}`,
			expectedTitle:   "Grafana Alert",
			expectedSource:  "Grafana",
			expectedMessage: "Alert Grafana Alert is firing",
		},
		{
			name:            "element not an object",
			body:            `{"receiver": "r", "alerts": ["oops"]}`,
			expectedTitle:   "Grafana Alert",
			expectedSource:  "r",
			expectedMessage: "Alert Grafana Alert is firing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := adapter.Normalize(decodePayload(t, tt.body), receivedAt)
			if input.Title != tt.expectedTitle {
				t.Errorf("Expected Title '%s', got '%s'", tt.expectedTitle, input.Title)
			}
			if input.Source != tt.expectedSource {
				t.Errorf("Expected Source '%s', got '%s'", tt.expectedSource, input.Source)
			}
			if input.Message != tt.expectedMessage {
				t.Errorf("Expected Message '%s', got '%s'", tt.expectedMessage, input.Message)
			}
			if input.Timestamp != receivedAt.UnixMilli() {
				t.Errorf("Expected Timestamp to default to receipt time, got %d", input.Timestamp)
			}
			if !input.Severity.IsValid() {
				t.Errorf("Expected a valid severity, got '%s'", input.Severity)
			}
		})
	}
}

func TestGrafanaAdapter_Normalize_StatusSeverity(t *testing.T) {
	adapter := NewGrafanaAdapter()

	tests := []struct {
		status   string
		expected database.AlertSeverity
	}{
		{"firing", database.AlertSeverityWarning},
		{"resolved", database.AlertSeverityInfo},
		{"pending", database.AlertSeverityInfo},
		{"weird", database.AlertSeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			body := `{"receiver": "r", "status": "` + tt.status + `", "alerts": [{"labels": {"alertname": "A"}}]}`
			input := adapter.Normalize(decodePayload(t, body), receivedAt)
			if input.Severity != tt.expected {
				t.Errorf("Expected Severity '%s', got '%s'", tt.expected, input.Severity)
			}
		})
	}
}

func TestGrafanaAdapter_Normalize_NoExternalURL(t *testing.T) {
	adapter := NewGrafanaAdapter()
	input := adapter.Normalize(decodePayload(t, `{
		"receiver": "r",
		"alerts": [{"labels": {"alertname": "A"}, "silenceURL": "http://grafana/silence?x=1"}]
	}`), receivedAt)

	if input.Metadata.URLs["silence"] != "http://grafana/silence?x=1" {
		t.Errorf("Expected silence URL sent by Grafana, got %v", input.Metadata.URLs)
	}
	if _, ok := input.Metadata.URLs["source"]; ok {
		t.Errorf("Expected no source URL, got %v", input.Metadata.URLs)
	}
}

func TestSilenceURL(t *testing.T) {
	got := SilenceURL("https://grafana.example.com/", map[string]interface{}{
		"b":    "x y",
		"a":    "1&2",
		"port": float64(9100),
	})

	if !strings.HasPrefix(got, "https://grafana.example.com/alerting/silence/new?") {
		t.Fatalf("Unexpected prefix: %s", got)
	}
	query := strings.TrimPrefix(got, "https://grafana.example.com/alerting/silence/new?")
	expected := "matcher=a%3D1%262&matcher=b%3Dx+y&matcher=port%3D9100"
	if query != expected {
		t.Errorf("Expected query '%s', got '%s'", expected, query)
	}
}
