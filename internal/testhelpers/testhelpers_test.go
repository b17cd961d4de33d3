package testhelpers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akmatori/alertrelay/internal/database"
)

func TestHTTPTestContext_NewAndExecute(t *testing.T) {
	ctx := NewHTTPTestContext(t, http.MethodGet, "/test", nil)

	if ctx.T == nil || ctx.Recorder == nil || ctx.Request == nil {
		t.Fatal("context should be fully initialized")
	}
	if ctx.Request.Method != http.MethodGet {
		t.Errorf("expected method GET, got %s", ctx.Request.Method)
	}

	ctx.Execute(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hello"))
	}))

	ctx.AssertStatus(http.StatusTeapot).AssertHeader("X-Test", "yes").AssertBodyContains("hell")
}

func TestHTTPTestContext_WithBearerToken(t *testing.T) {
	ctx := NewHTTPTestContext(t, http.MethodGet, "/test", nil)
	ctx.WithBearerToken("my-token")

	expected := "Bearer my-token"
	if ctx.Request.Header.Get("Authorization") != expected {
		t.Errorf("expected %q, got %q", expected, ctx.Request.Header.Get("Authorization"))
	}
}

func TestHTTPTestContext_WithJSONBodyKeepsHeaders(t *testing.T) {
	ctx := NewHTTPTestContext(t, http.MethodPost, "/test", nil).
		WithBearerToken("secret").
		WithJSONBody(map[string]string{"key": "value"})

	if got := ctx.Request.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", got)
	}
	if got := ctx.Request.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("expected the bearer header to survive, got %q", got)
	}

	var decoded map[string]string
	if err := json.NewDecoder(ctx.Request.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
	if decoded["key"] != "value" {
		t.Errorf("unexpected body %v", decoded)
	}
}

func TestHTTPTestContext_DecodeJSON(t *testing.T) {
	ctx := NewHTTPTestContext(t, http.MethodGet, "/test", nil)

	ctx.Execute(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
	}))

	var result map[string]string
	ctx.DecodeJSON(&result)

	if result["result"] != "ok" {
		t.Errorf("expected result 'ok', got %q", result["result"])
	}
}

func TestNewTestStore(t *testing.T) {
	store := NewTestStore(t)

	if !store.IsReady() {
		t.Error("test store should be ready")
	}

	repo := database.NewAlertRepository(store.DB())
	inserted := InsertAlerts(t, repo,
		NewAlertBuilder().WithTitle("first").Build(),
		NewAlertBuilder().WithTitle("second").WithURL("source", "https://example.com").Build(),
	)
	if inserted[0].ID == 0 || inserted[1].ID <= inserted[0].ID {
		t.Errorf("expected increasing ids, got %d and %d", inserted[0].ID, inserted[1].ID)
	}

	got, err := repo.Get(context.Background(), inserted[1].ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Metadata == nil || got.Metadata.URLs["source"] != "https://example.com" {
		t.Errorf("expected metadata to round trip, got %+v", got.Metadata)
	}
}

func TestNewTestDB_Isolated(t *testing.T) {
	first := database.NewAlertRepository(NewTestDB(t))
	second := database.NewAlertRepository(NewTestDB(t))

	InsertAlerts(t, first, NewAlertBuilder().Build())

	count, err := second.UnacknowledgedCount(context.Background())
	if err != nil {
		t.Fatalf("UnacknowledgedCount returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected an empty second database, got %d alerts", count)
	}
}

func TestAlertBuilder(t *testing.T) {
	alice := database.Actor{Handle: "alice", ID: "U001", Name: "Alice"}
	alert := NewAlertBuilder().
		WithTitle("Disk full").
		WithSource("db-01").
		WithSeverity(database.AlertSeverityCritical).
		WithMessage("95% used").
		WithTimestamp(42).
		WithNotification("C1", "1.2").
		AcknowledgedBy(alice, 100).
		ResolvedBy(alice, 200).
		Build()

	if alert.Title != "Disk full" || alert.Source != "db-01" || alert.Message != "95% used" || alert.Timestamp != 42 {
		t.Errorf("unexpected fields %+v", alert)
	}
	if alert.State() != database.AlertStateResolved {
		t.Errorf("expected resolved state, got %s", alert.State())
	}
	if alert.AcknowledgedActor() != alice || *alert.ResolvedAt != 200 {
		t.Errorf("unexpected lifecycle fields %+v", alert)
	}
}

func TestAlertBuilder_BuildCopiesMetadata(t *testing.T) {
	builder := NewAlertBuilder().WithURL("source", "https://a")
	first := builder.Build()
	builder.WithURL("dashboard", "https://b")

	if _, ok := first.Metadata.URLs["dashboard"]; ok {
		t.Error("each Build should return its own metadata")
	}
}

func TestPayloadBuilder(t *testing.T) {
	builder := NewCanonicalPayload()
	payload := builder.With("timestamp", float64(1700000000000)).Without("message").Build()

	if _, ok := payload["message"]; ok {
		t.Error("message should be removed")
	}
	if payload["timestamp"] != float64(1700000000000) {
		t.Errorf("unexpected timestamp %v", payload["timestamp"])
	}

	payload["title"] = "changed"
	if builder.Build()["title"] == "changed" {
		t.Error("Build should return a copy")
	}
}

func TestFakeNotifier(t *testing.T) {
	notifier := NewFakeNotifier()
	ctx := context.Background()

	first, err := notifier.Send(ctx, "one", nil)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	second, _ := notifier.Send(ctx, "two", nil)
	if first == second {
		t.Error("each send should return a distinct handle")
	}

	if err := notifier.Edit(ctx, first, "edited", nil); err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if err := notifier.Ephemeral(ctx, "C1", "U1", "notice"); err != nil {
		t.Fatalf("Ephemeral returned error: %v", err)
	}

	AssertSliceLen(t, notifier.Sent(), 2, "sent")
	AssertSliceLen(t, notifier.Edits(), 1, "edits")
	AssertSliceLen(t, notifier.Notices(), 1, "notices")
	if notifier.Edits()[0].Handle != first {
		t.Errorf("edit recorded the wrong handle %+v", notifier.Edits()[0].Handle)
	}

	notifier.SendErr = errors.New("boom")
	if _, err := notifier.Send(ctx, "three", nil); err == nil {
		t.Error("expected the configured send error")
	}
	AssertSliceLen(t, notifier.Sent(), 2, "sent after failure")
}

func TestMustCompleteWithin_Success(t *testing.T) {
	MustCompleteWithin(t, time.Second, func() {})
}

func TestConcurrentTest(t *testing.T) {
	var counter int64
	ConcurrentTestWithTimeout(t, 5*time.Second, 20, func(workerID int) {
		atomic.AddInt64(&counter, 1)
	})

	if counter != 20 {
		t.Errorf("expected 20 runs, got %d", counter)
	}
}

func TestAssertJSONHelpers(t *testing.T) {
	jsonStr := `{"name": "test", "count": 5}`

	mockT := &testing.T{}
	AssertJSONContainsKey(mockT, jsonStr, "name", "key should exist")
	AssertJSONKeyValue(mockT, jsonStr, "count", 5, "count should match")

	if mockT.Failed() {
		t.Error("JSON assertions should not have failed")
	}
}
