// Package testhelpers provides reusable testing utilities for the alert relay.
//
// This package contains:
// - HTTP test helpers (requests, recorders, assertions)
// - An in-memory store and repository
// - A recording fake notifier
// - Alert and payload builders
package testhelpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/akmatori/alertrelay/internal/database"
	"github.com/akmatori/alertrelay/internal/services"
)

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	return ctx.WithRawBody(string(body))
}

// WithRawBody replaces the request body verbatim
func (ctx *HTTPTestContext) WithRawBody(body string) *HTTPTestContext {
	header := ctx.Request.Header.Clone()
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader([]byte(body)))
	ctx.Request.Header = header
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// WithBearerToken adds Authorization Bearer header
func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// WithContext replaces the request context
func (ctx *HTTPTestContext) WithContext(c context.Context) *HTTPTestContext {
	ctx.Request = ctx.Request.WithContext(c)
	return ctx
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !strings.Contains(body, substr) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// AssertHeader checks response header value
func (ctx *HTTPTestContext) AssertHeader(key, expected string) *HTTPTestContext {
	ctx.T.Helper()
	got := ctx.Recorder.Header().Get(key)
	if got != expected {
		ctx.T.Errorf("expected header %s=%q, got %q", key, expected, got)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}

// ========================================
// Storage Helpers
// ========================================

// NewTestDB opens a private in-memory SQLite database with the alerts schema
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	// Each new connection to :memory: is a fresh empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&database.Alert{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// NewTestStore returns a migrated, ready store backed by NewTestDB
func NewTestStore(t *testing.T) *database.Store {
	t.Helper()
	store := database.NewStore(NewTestDB(t))
	store.MarkReady()
	return store
}

// InsertAlerts stores the given alerts in order and returns them with ids set
func InsertAlerts(t *testing.T, repo *database.AlertRepository, alerts ...database.Alert) []database.Alert {
	t.Helper()
	for i := range alerts {
		if err := repo.Create(context.Background(), &alerts[i]); err != nil {
			t.Fatalf("failed to insert alert %q: %v", alerts[i].Title, err)
		}
	}
	return alerts
}

// ========================================
// Fake Notifier
// ========================================

// SentMessage is one notification recorded by FakeNotifier
type SentMessage struct {
	Handle   services.MessageHandle
	Text     string
	Controls []services.Control
}

// Notice is one ephemeral message recorded by FakeNotifier
type Notice struct {
	ChannelID string
	UserID    string
	Text      string
}

// FakeNotifier records every Send, Edit and Ephemeral call. It satisfies
// services.Notifier and the Slack handler's message editor.
type FakeNotifier struct {
	mu      sync.Mutex
	sent    []SentMessage
	edits   []SentMessage
	notices []Notice

	SendErr      error
	EditErr      error
	EphemeralErr error
}

// NewFakeNotifier creates a fake notifier that succeeds by default
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// Send records the notification and returns a handle numbered by send order
func (f *FakeNotifier) Send(ctx context.Context, text string, controls []services.Control) (services.MessageHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return services.MessageHandle{}, f.SendErr
	}
	handle := services.MessageHandle{
		ChannelID: "C0TEST00001",
		MessageID: fmt.Sprintf("1700000000.%06d", len(f.sent)+1),
	}
	f.sent = append(f.sent, SentMessage{Handle: handle, Text: text, Controls: controls})
	return handle, nil
}

// Edit records the edit
func (f *FakeNotifier) Edit(ctx context.Context, handle services.MessageHandle, text string, controls []services.Control) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EditErr != nil {
		return f.EditErr
	}
	f.edits = append(f.edits, SentMessage{Handle: handle, Text: text, Controls: controls})
	return nil
}

// Ephemeral records the notice
func (f *FakeNotifier) Ephemeral(ctx context.Context, channelID, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EphemeralErr != nil {
		return f.EphemeralErr
	}
	f.notices = append(f.notices, Notice{ChannelID: channelID, UserID: userID, Text: text})
	return nil
}

// Sent returns a copy of the recorded notifications
func (f *FakeNotifier) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.sent...)
}

// Edits returns a copy of the recorded edits
func (f *FakeNotifier) Edits() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.edits...)
}

// Notices returns a copy of the recorded ephemeral notices
func (f *FakeNotifier) Notices() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notice(nil), f.notices...)
}

// ========================================
// Timing Helpers
// ========================================

// MustCompleteWithin fails the test if the function takes longer than the timeout
func MustCompleteWithin(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(timeout):
		t.Fatalf("function did not complete within %v", timeout)
	}
}
