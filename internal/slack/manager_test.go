package slack

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// --- Settings ---

func TestSettings_IsActive(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		active   bool
		socket   bool
	}{
		{"empty", Settings{}, false, false},
		{"bot token only", Settings{BotToken: "xoxb-1"}, false, false},
		{"bot token and channel", Settings{BotToken: "xoxb-1", AlertsChannel: "#alerts"}, true, false},
		{"everything", Settings{BotToken: "xoxb-1", AppToken: "xapp-1", AlertsChannel: "C0123456789"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
			if got := tt.settings.SocketModeEnabled(); got != tt.socket {
				t.Errorf("SocketModeEnabled() = %v, want %v", got, tt.socket)
			}
		})
	}
}

// --- Manager unit tests ---

func TestNewManager(t *testing.T) {
	m := NewManager(Settings{})

	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if m.reloadChan == nil {
		t.Error("reloadChan should be initialized")
	}
	if m.running {
		t.Error("new manager should not be running")
	}
	if m.GetClient() != nil {
		t.Error("new manager should have nil client")
	}
	if m.GetSocketClient() != nil {
		t.Error("new manager should have nil socketClient")
	}
}

func TestManager_Start_DisabledWithoutCredentials(t *testing.T) {
	m := NewManager(Settings{BotToken: "xoxb-1"})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if m.IsRunning() {
		t.Error("manager should not run without an alerts channel")
	}
	if _, err := m.ResolveAlertsChannel(context.Background()); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestManager_Start_WithoutSocketMode(t *testing.T) {
	m := NewManager(Settings{BotToken: "xoxb-1", AlertsChannel: "C0123456789"})

	handlerCalled := false
	m.SetEventHandler(func(_ *socketmode.Client, _ *slack.Client) { handlerCalled = true })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer m.Stop()

	if !m.IsRunning() {
		t.Error("manager should be running")
	}
	if m.GetClient() == nil {
		t.Error("client should be created")
	}
	if m.GetSocketClient() != nil {
		t.Error("socket client should not be created without an app token")
	}
	if handlerCalled {
		t.Error("event handler should not be called without Socket Mode")
	}

	id, err := m.ResolveAlertsChannel(context.Background())
	if err != nil || id != "C0123456789" {
		t.Errorf("ResolveAlertsChannel() = %q, %v", id, err)
	}
}

func TestManager_ReloadPicksUpNewSettings(t *testing.T) {
	m := NewManager(Settings{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if m.IsRunning() {
		t.Fatal("manager should start disabled")
	}

	m.SetSettings(Settings{BotToken: "xoxb-1", AlertsChannel: "C0123456789"})
	if err := m.Reload(context.Background()); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	defer m.Stop()

	if !m.IsRunning() {
		t.Error("manager should be running after reload")
	}
	if m.Settings().AlertsChannel != "C0123456789" {
		t.Errorf("unexpected settings %+v", m.Settings())
	}
}

func TestManager_WatchForReloads(t *testing.T) {
	m := NewManager(Settings{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.WatchForReloads(ctx)
		close(done)
	}()

	m.SetSettings(Settings{BotToken: "xoxb-1", AlertsChannel: "C0123456789"})
	m.TriggerReload()

	deadline := time.After(2 * time.Second)
	for !m.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("reload was not applied")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
	m.Stop()
}

func TestManager_TriggerReload_NonBlocking(t *testing.T) {
	m := NewManager(Settings{})

	done := make(chan bool, 1)
	go func() {
		m.TriggerReload()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("TriggerReload should be non-blocking")
	}
}

func TestManager_TriggerReload_Coalescing(t *testing.T) {
	m := NewManager(Settings{})

	// Multiple triggers should coalesce (buffer size is 1)
	m.TriggerReload()
	m.TriggerReload()
	m.TriggerReload()

	select {
	case <-m.reloadChan:
	default:
		t.Error("expected at least one reload signal")
	}

	select {
	case <-m.reloadChan:
		t.Error("reload signals should coalesce, got more than one")
	default:
	}
}

func TestManager_Stop_NoopWhenNotRunning(t *testing.T) {
	m := NewManager(Settings{})

	m.Stop()

	if m.IsRunning() {
		t.Error("manager should still not be running after Stop")
	}
}

func TestManager_ConcurrentGettersAreSafe(t *testing.T) {
	m := NewManager(Settings{BotToken: "xoxb-1", AlertsChannel: "C0123456789"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			_ = m.GetClient()
		}()
		go func() {
			defer wg.Done()
			_ = m.GetSocketClient()
		}()
		go func() {
			defer wg.Done()
			_ = m.IsRunning()
		}()
		go func() {
			defer wg.Done()
			_ = m.Start(context.Background())
		}()
	}
	wg.Wait()
	m.Stop()
}

func TestManager_StateAfterStop(t *testing.T) {
	m := NewManager(Settings{BotToken: "xoxb-1", AlertsChannel: "C0123456789"})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	m.Stop()

	if m.IsRunning() {
		t.Error("IsRunning should be false after Stop")
	}
	if m.GetClient() != nil {
		t.Error("GetClient should return nil after Stop")
	}
	if m.GetSocketClient() != nil {
		t.Error("GetSocketClient should return nil after Stop")
	}
}
