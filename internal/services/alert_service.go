package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
	"github.com/akmatori/alertrelay/internal/database"
	"github.com/akmatori/alertrelay/internal/utils"
)

// DefaultNotifyTimeout bounds a single delivery attempt
const DefaultNotifyTimeout = 10 * time.Second

// IngestResult describes a stored webhook alert
type IngestResult struct {
	Alert       *database.Alert
	Kind        alerts.SourceKind
	Transformed bool
	// Notified is true when a delivery was dispatched for the alert
	Notified bool
}

// Stats is the aggregate view served by /api/stats and the /alerts command
type Stats struct {
	Unacknowledged   int64
	Weekly           database.WeeklySummary
	TopAcknowledgers []database.ActorCount
	TopResolvers     []database.ActorCount
}

// AlertService ingests webhook payloads, stores them and hands them to the notifier
type AlertService struct {
	repo          *database.AlertRepository
	normalizer    *alerts.Normalizer
	notifier      Notifier
	notifyTimeout time.Duration
	classify      DeliveryErrorClassifier
	now           func() time.Time

	deliveries sync.WaitGroup
}

// NewAlertService creates a new AlertService. notifier may be nil, in which case
// alerts are stored but never delivered.
func NewAlertService(repo *database.AlertRepository, normalizer *alerts.Normalizer, notifier Notifier, notifyTimeout time.Duration) *AlertService {
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}
	return &AlertService{
		repo:          repo,
		normalizer:    normalizer,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		classify:      defaultClassifier,
		now:           time.Now,
	}
}

// WithErrorClassifier sets the function used to categorize delivery failures
func (s *AlertService) WithErrorClassifier(classify DeliveryErrorClassifier) *AlertService {
	if classify != nil {
		s.classify = classify
	}
	return s
}

// WithClock replaces the receipt clock (used by tests)
func (s *AlertService) WithClock(now func() time.Time) *AlertService {
	s.now = now
	return s
}

// Ingest normalizes payload, stores the alert and dispatches its delivery.
// Unrecognized payloads return an error wrapping alerts.ErrUnrecognizedFormat;
// storage failures wrap database.ErrStorage.
func (s *AlertService) Ingest(ctx context.Context, payload map[string]interface{}) (*IngestResult, error) {
	result, err := s.normalizer.Normalize(payload, s.now())
	if err != nil {
		return nil, err
	}

	alert := result.Input.ToAlert()
	// The write must land even if the client gives up on the request
	if err := s.repo.Create(context.WithoutCancel(ctx), alert); err != nil {
		log.Printf("AlertService: failed to store alert %q: %v", utils.EscapeForLogging(alert.Title, 80), err)
		return nil, err
	}

	log.Printf("AlertService: stored alert %d (%s, %s) from %s payload",
		alert.ID, alert.Severity, utils.EscapeForLogging(alert.Title, 80), result.Kind)

	return &IngestResult{
		Alert:       alert,
		Kind:        result.Kind,
		Transformed: result.Transformed,
		Notified:    s.Dispatch(alert),
	}, nil
}

// Dispatch delivers the alert in the background. It returns false when no
// notifier is configured.
func (s *AlertService) Dispatch(alert *database.Alert) bool {
	if s.notifier == nil {
		return false
	}

	// The goroutine owns its own copy; the caller keeps using alert
	snapshot := *alert
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		s.Deliver(ctx, &snapshot)
	}()
	return true
}

// Deliver sends the notification for alert and records where it landed.
// Failures are logged and never retried.
func (s *AlertService) Deliver(ctx context.Context, alert *database.Alert) {
	if s.notifier == nil {
		return
	}

	handle, err := s.notifier.Send(ctx, RenderAlert(alert), ControlsFor(alert))
	if err != nil {
		category, guidance := s.classify(err)
		if guidance != "" {
			log.Printf("AlertService: delivery of alert %d failed [%s]: %v (%s)", alert.ID, category, err, guidance)
		} else {
			log.Printf("AlertService: delivery of alert %d failed [%s]: %v", alert.ID, category, err)
		}
		return
	}

	if _, err := s.repo.RecordDelivery(ctx, alert.ID, handle.MessageID, handle.ChannelID); err != nil {
		log.Printf("Warning: failed to record delivery of alert %d: %v", alert.ID, err)
		return
	}
	alert.NotificationMessageID = handle.MessageID
	alert.NotificationChannelID = handle.ChannelID
}

// Wait blocks until every dispatched delivery has finished
func (s *AlertService) Wait() {
	s.deliveries.Wait()
}

// Get returns one stored alert
func (s *AlertService) Get(ctx context.Context, id uint) (*database.Alert, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of alerts newest first and the total match count
func (s *AlertService) List(ctx context.Context, filter database.AlertFilter, offset, limit int) ([]database.Alert, int64, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

// Stats collects the unacknowledged count, the weekly summary and both leaderboards
func (s *AlertService) Stats(ctx context.Context) (*Stats, error) {
	unacked, err := s.repo.UnacknowledgedCount(ctx)
	if err != nil {
		return nil, err
	}
	weekly, err := s.repo.WeeklySummary(ctx)
	if err != nil {
		return nil, err
	}
	acks, err := s.repo.TopAcknowledgers(ctx, database.DefaultTopLimit)
	if err != nil {
		return nil, err
	}
	resolves, err := s.repo.TopResolvers(ctx, database.DefaultTopLimit)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Unacknowledged:   unacked,
		Weekly:           *weekly,
		TopAcknowledgers: acks,
		TopResolvers:     resolves,
	}, nil
}
