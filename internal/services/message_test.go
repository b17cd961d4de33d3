package services

import (
	"strings"
	"testing"

	"github.com/akmatori/alertrelay/internal/database"
)

func int64Ptr(v int64) *int64 { return &v }

func newRenderAlert() *database.Alert {
	return &database.Alert{
		ID:        7,
		Title:     "Disk <full>",
		Source:    "db-01 & replica",
		Severity:  database.AlertSeverityCritical,
		Message:   "No space left",
		Timestamp: 1705314600000,
		CreatedAt: 1705314600,
	}
}

func TestCallbackToken(t *testing.T) {
	if got := CallbackToken(ActionAcknowledge, 12); got != "ack_12" {
		t.Errorf("Expected 'ack_12', got %q", got)
	}
	if got := CallbackToken(ActionResolve, 12); got != "resolve_12" {
		t.Errorf("Expected 'resolve_12', got %q", got)
	}
}

func TestMessageHandle_IsZero(t *testing.T) {
	if !(MessageHandle{}).IsZero() {
		t.Error("Expected empty handle to be zero")
	}
	if (MessageHandle{ChannelID: "C1"}).IsZero() {
		t.Error("Expected handle with channel not to be zero")
	}
}

func TestRenderAlert_New(t *testing.T) {
	text := RenderAlert(newRenderAlert())

	expected := []string{
		"🔴 *CRITICAL: Disk &lt;full&gt;*",
		"*Source:* db-01 &amp; replica",
		"*Time:* 2024-01-15 10:30:00 UTC",
		"No space left",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}
	for _, unwanted := range []string{"Acknowledged by", "Resolved by", "*Status:*"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("Did not expect %q in:\n%s", unwanted, text)
		}
	}
}

func TestRenderAlert_MetadataLinks(t *testing.T) {
	alert := newRenderAlert()
	alert.Metadata = &database.AlertMetadata{
		Status: "firing",
		URLs: map[string]string{
			"silence": "http://g/silence",
			"source":  "http://g/source",
		},
	}
	text := RenderAlert(alert)

	if !strings.Contains(text, "*Status:* firing") {
		t.Errorf("Expected status line in:\n%s", text)
	}
	if !strings.Contains(text, "<http://g/source|View source> | <http://g/silence|Silence>") {
		t.Errorf("Expected ordered links in:\n%s", text)
	}
}

func TestRenderAlert_Attribution(t *testing.T) {
	alert := newRenderAlert()
	alert.Acknowledged = true
	alert.AcknowledgedBy = "alice"
	alert.AcknowledgedByName = "Alice A"
	alert.AcknowledgedAt = int64Ptr(1705314660)
	alert.Resolved = true
	alert.ResolvedBy = "bob"
	alert.ResolvedAt = int64Ptr(1705318200)

	text := RenderAlert(alert)
	if !strings.Contains(text, "Acknowledged by @alice (Alice A) at 2024-01-15 10:31:00 UTC") {
		t.Errorf("Expected acknowledge attribution in:\n%s", text)
	}
	if !strings.Contains(text, "Resolved by @bob at 2024-01-15 11:30:00 UTC (open 1h)") {
		t.Errorf("Expected resolve attribution in:\n%s", text)
	}
	if strings.Index(text, "Acknowledged by") > strings.Index(text, "Resolved by") {
		t.Error("Expected acknowledge line before resolve line")
	}
}

func TestControlsFor(t *testing.T) {
	alert := newRenderAlert()

	controls := ControlsFor(alert)
	if len(controls) != 2 {
		t.Fatalf("Expected two controls for a new alert, got %+v", controls)
	}
	if controls[0].Token != "ack_7" || controls[0].Style != ControlStylePrimary {
		t.Errorf("Unexpected acknowledge control %+v", controls[0])
	}
	if controls[1].Token != "resolve_7" || controls[1].Style != ControlStyleDanger {
		t.Errorf("Unexpected resolve control %+v", controls[1])
	}

	alert.Acknowledged = true
	controls = ControlsFor(alert)
	if len(controls) != 1 || controls[0].Token != "resolve_7" {
		t.Errorf("Expected only resolve after acknowledge, got %+v", controls)
	}

	alert.Resolved = true
	if controls := ControlsFor(alert); controls != nil {
		t.Errorf("Expected no controls after resolve, got %+v", controls)
	}
}

func TestRenderStats(t *testing.T) {
	text := RenderStats(&Stats{
		Unacknowledged: 1234,
		Weekly: database.WeeklySummary{
			Total: 10, Acknowledged: 6, Resolved: 4, Unacknowledged: 4,
			Critical: 2, Warning: 3, Info: 5,
		},
		TopAcknowledgers: []database.ActorCount{
			{ActorID: "U1", Handle: "alice", Name: "Alice", Total: 4},
			{ActorID: "U2", Handle: "bob", Total: 2},
		},
	})

	expected := []string{
		"*Unacknowledged alerts:* 1,234",
		"Total: 10 | Acknowledged: 6 | Resolved: 4 | Open: 4",
		"🔴 2 critical",
		"*Top acknowledgers*",
		"1. @alice (Alice): 4",
		"2. @bob: 2",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Top resolvers") {
		t.Errorf("Expected empty leaderboard to be omitted:\n%s", text)
	}
}
