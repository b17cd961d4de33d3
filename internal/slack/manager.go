package slack

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// Settings holds the Slack credentials and target channel
type Settings struct {
	BotToken      string
	AppToken      string
	AlertsChannel string

	// APIURL overrides the Slack Web API base URL (tests)
	APIURL string
}

// IsActive reports whether alerts can be posted
func (s Settings) IsActive() bool {
	return s.BotToken != "" && s.AlertsChannel != ""
}

// SocketModeEnabled reports whether interactive callbacks can be received
func (s Settings) SocketModeEnabled() bool {
	return s.AppToken != ""
}

// Manager manages the Slack client lifecycle with hot-reload support
type Manager struct {
	mu sync.RWMutex

	settings Settings

	// Current active clients
	client       *slack.Client
	socketClient *socketmode.Client
	channels     *ChannelResolver

	// Control channels
	stopChan   chan struct{}
	doneChan   chan struct{}
	reloadChan chan struct{}

	// Event handler - receives both socket client and regular client
	eventHandler func(*socketmode.Client, *slack.Client)

	// State
	running bool
}

// NewManager creates a new Slack manager
func NewManager(settings Settings) *Manager {
	return &Manager{
		settings:   settings,
		reloadChan: make(chan struct{}, 1),
	}
}

// GetClient returns the current Slack client (may be nil if not configured)
func (m *Manager) GetClient() *slack.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// GetSocketClient returns the current Socket Mode client (may be nil if not configured)
func (m *Manager) GetSocketClient() *socketmode.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.socketClient
}

// Settings returns the settings the manager was last started with
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings replaces the settings used by the next Start or Reload
func (m *Manager) SetSettings(settings Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

// ResolveAlertsChannel returns the id of the configured alerts channel
func (m *Manager) ResolveAlertsChannel(ctx context.Context) (string, error) {
	m.mu.RLock()
	channels, name := m.channels, m.settings.AlertsChannel
	m.mu.RUnlock()
	if channels == nil {
		return "", ErrNotConfigured
	}
	return channels.ResolveChannel(ctx, name)
}

// IsRunning returns whether the Slack connection is active
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// SetEventHandler sets the function that will handle Socket Mode events
func (m *Manager) SetEventHandler(handler func(*socketmode.Client, *slack.Client)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventHandler = handler
}

// Start initializes the Slack clients from the current settings
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stop existing connection if running
	if m.running {
		m.stopLocked()
	}

	settings := m.settings
	if !settings.IsActive() {
		log.Printf("SlackManager: Slack is disabled (SLACK_BOT_TOKEN or SLACK_ALERTS_CHANNEL not set)")
		return nil
	}

	options := []slack.Option{slack.OptionDebug(false)}
	if settings.AppToken != "" {
		options = append(options, slack.OptionAppLevelToken(settings.AppToken))
	}
	if settings.APIURL != "" {
		options = append(options, slack.OptionAPIURL(settings.APIURL))
	}

	m.client = slack.New(settings.BotToken, options...)
	m.channels = NewChannelResolver(m.client)
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	m.running = true

	if !settings.SocketModeEnabled() {
		close(m.doneChan)
		log.Printf("Warning: SLACK_APP_TOKEN is not set, alert buttons will not respond")
		log.Printf("SlackManager: Slack notifications are ACTIVE (no Socket Mode)")
		return nil
	}

	// Create Socket Mode client
	m.socketClient = socketmode.New(
		m.client,
		socketmode.OptionDebug(false),
		socketmode.OptionLog(log.New(os.Stdout, "socketmode: ", log.Lshortfile|log.LstdFlags)),
	)

	// Start the event handler if set - pass both clients to avoid deadlock
	if m.eventHandler != nil {
		m.eventHandler(m.socketClient, m.client)
	}

	runCtx, cancel := context.WithCancel(ctx)
	socketClient, stopChan, doneChan := m.socketClient, m.stopChan, m.doneChan

	// Start Socket Mode in a goroutine
	go func() {
		defer close(doneChan)
		go func() {
			<-stopChan
			cancel()
		}()
		log.Printf("SlackManager: Starting Socket Mode connection...")

		if err := socketClient.RunContext(runCtx); err != nil {
			// Check if this was a graceful shutdown
			select {
			case <-stopChan:
				log.Printf("SlackManager: Socket Mode stopped gracefully")
			default:
				log.Printf("SlackManager: Socket Mode error: %v", err)
			}
		}
	}()

	log.Printf("SlackManager: Slack integration is ACTIVE")
	return nil
}

// Stop gracefully stops the Slack connection
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// stopLocked stops the connection (caller must hold the lock)
func (m *Manager) stopLocked() {
	if !m.running {
		return
	}

	log.Printf("SlackManager: Stopping Slack connection...")

	// Signal stop
	close(m.stopChan)

	// Wait for socket mode to finish (with timeout)
	select {
	case <-m.doneChan:
		log.Printf("SlackManager: Socket Mode stopped")
	default:
		log.Printf("SlackManager: Socket Mode stop signal sent")
	}

	m.running = false
	m.client = nil
	m.socketClient = nil
	m.channels = nil
}

// Reload restarts the connection with the current settings
func (m *Manager) Reload(ctx context.Context) error {
	log.Printf("SlackManager: Reloading Slack settings...")
	return m.Start(ctx)
}

// TriggerReload signals that a reload is needed (non-blocking)
func (m *Manager) TriggerReload() {
	select {
	case m.reloadChan <- struct{}{}:
		log.Printf("SlackManager: Reload triggered")
	default:
		log.Printf("SlackManager: Reload already pending")
	}
}

// WatchForReloads runs a loop that watches for reload signals
func (m *Manager) WatchForReloads(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.reloadChan:
			if err := m.Reload(ctx); err != nil {
				log.Printf("SlackManager: Reload failed: %v", err)
			}
		}
	}
}
