package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akmatori/alertrelay/internal/alerts/adapters"
	"github.com/akmatori/alertrelay/internal/config"
	"github.com/akmatori/alertrelay/internal/database"
	"github.com/akmatori/alertrelay/internal/handlers"
	"github.com/akmatori/alertrelay/internal/services"
	alertslack "github.com/akmatori/alertrelay/internal/slack"
	"github.com/joho/godotenv"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting alert relay...")

	store, err := database.Open(cfg.DatabaseURL, cfg.GormLogLevel())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repo := database.NewAlertRepository(store.DB())

	// Slack is optional; without it alerts are stored but not delivered
	slackManager := alertslack.NewManager(slackSettings(cfg))
	slackNotifier := alertslack.NewNotifier(slackManager)

	var notifier services.Notifier
	if cfg.SlackEnabled() {
		notifier = slackNotifier
	} else {
		log.Println("Warning: SLACK_BOT_TOKEN or SLACK_ALERTS_CHANNEL is not set, alerts will be stored without notification")
	}

	alertService := services.NewAlertService(repo, adapters.NewNormalizer(), notifier, cfg.NotifyTimeout).
		WithErrorClassifier(alertslack.ClassifyDeliveryError)
	lifecycleService := services.NewLifecycleService(repo)

	slackHandler := handlers.NewSlackHandler(lifecycleService, alertService, slackNotifier)
	slackManager.SetEventHandler(func(socketClient *socketmode.Client, _ *slack.Client) {
		slackHandler.HandleSocketMode(socketClient)
	})

	// Set up HTTP server routes
	mux := http.NewServeMux()
	handlers.NewHTTPHandler(alertService, store).SetupRoutes(mux)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handlers.Wrap(mux, handlers.ServerOptions{
			APISecret:      cfg.APISecret,
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The server accepts connections before migrations finish; handlers wait on the store
	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	go func() {
		if err := store.Migrate(); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}()

	ctx, ctxCancel := context.WithCancel(context.Background())
	defer ctxCancel()

	// Start watching for Slack settings reload requests
	go slackManager.WatchForReloads(ctx)

	if err := slackManager.Start(ctx); err != nil {
		log.Printf("Warning: Failed to start Slack: %v", err)
	}

	log.Printf("Alert webhook endpoint: http://localhost:%d/api/alert", cfg.HTTPPort)
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			reloadSlack(slackManager, cfg)
			continue
		}
		break
	}

	log.Println("Received shutdown signal, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Let in-flight deliveries finish before the connection goes away
	alertService.Wait()
	ctxCancel()
	slackManager.Stop()

	if err := store.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("Shutdown complete")
}

func slackSettings(cfg *config.Config) alertslack.Settings {
	return alertslack.Settings{
		BotToken:      cfg.SlackBotToken,
		AppToken:      cfg.SlackAppToken,
		AlertsChannel: cfg.SlackAlertsChannel,
	}
}

// reloadSlack re-reads the configuration and restarts the Slack connection with it.
// Only Slack credentials and the alerts channel take effect without a restart.
func reloadSlack(manager *alertslack.Manager, current *config.Config) {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: failed to reload configuration, keeping the current settings: %v", err)
		return
	}
	if current.SlackEnabled() != cfg.SlackEnabled() {
		log.Println("Warning: enabling or disabling Slack delivery requires a restart")
	}
	manager.SetSettings(slackSettings(cfg))
	manager.TriggerReload()
}
