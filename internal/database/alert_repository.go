package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrAlertNotFound is returned when no alert exists with the requested id
	ErrAlertNotFound = errors.New("alert not found")

	// ErrStorage wraps failures of the underlying database
	ErrStorage = errors.New("storage error")
)

// DefaultTopLimit is the number of actors returned by the leaderboard queries
const DefaultTopLimit = 5

// summaryWindow is the trailing window used by the weekly aggregate queries
const summaryWindow = 7 * 24 * time.Hour

// WeeklySummary aggregates alerts created during the trailing seven days
type WeeklySummary struct {
	Total          int64 `json:"total"`
	Acknowledged   int64 `json:"acknowledged"`
	Resolved       int64 `json:"resolved"`
	Unacknowledged int64 `json:"unacknowledged"`
	Critical       int64 `json:"critical"`
	Warning        int64 `json:"warning"`
	Info           int64 `json:"info"`
}

// ActorCount is one row of the acknowledger/resolver leaderboards
type ActorCount struct {
	ActorID string `json:"actor_id"`
	Handle  string `json:"handle"`
	Name    string `json:"name"`
	Total   int64  `json:"total"`
}

// AlertRepository is the only component that mutates alert rows.
// State transitions are single conditional UPDATE statements so concurrent
// callers cannot both win.
type AlertRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAlertRepository creates a repository over db
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{
		db:  db,
		now: time.Now,
	}
}

// WithClock replaces the repository clock (used by tests)
func (r *AlertRepository) WithClock(now func() time.Time) *AlertRepository {
	r.now = now
	return r
}

// Create inserts a new alert, assigning its id and created_at
func (r *AlertRepository) Create(ctx context.Context, alert *Alert) error {
	alert.ID = 0
	alert.CreatedAt = r.now().Unix()
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("%w: failed to create alert: %v", ErrStorage, err)
	}
	return nil
}

// RecordDelivery stores where the alert notification was delivered.
// Returns the number of rows changed.
func (r *AlertRepository) RecordDelivery(ctx context.Context, id uint, messageID, channelID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notification_message_id": messageID,
			"notification_channel_id": channelID,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: failed to record delivery for alert %d: %v", ErrStorage, id, result.Error)
	}
	return result.RowsAffected, nil
}

// Acknowledge marks the alert acknowledged by actor if, and only if, it is not
// acknowledged yet. Returns false when the alert is unknown or already acknowledged.
func (r *AlertRepository) Acknowledge(ctx context.Context, id uint, actor Actor) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND acknowledged = ?", id, false).
		Updates(map[string]interface{}{
			"acknowledged":         true,
			"acknowledged_by":      actor.Handle,
			"acknowledged_by_id":   actor.ID,
			"acknowledged_by_name": actor.Name,
			"acknowledged_at":      r.now().Unix(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to acknowledge alert %d: %v", ErrStorage, id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Resolve marks the alert resolved by actor if it is acknowledged and not yet
// resolved. Returns false otherwise.
func (r *AlertRepository) Resolve(ctx context.Context, id uint, actor Actor) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND acknowledged = ? AND resolved = ?", id, true, false).
		Updates(map[string]interface{}{
			"resolved":         true,
			"resolved_by":      actor.Handle,
			"resolved_by_id":   actor.ID,
			"resolved_by_name": actor.Name,
			"resolved_at":      r.now().Unix(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to resolve alert %d: %v", ErrStorage, id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Get retrieves an alert by id
func (r *AlertRepository) Get(ctx context.Context, id uint) (*Alert, error) {
	var alert Alert
	err := r.db.WithContext(ctx).First(&alert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load alert %d: %v", ErrStorage, id, err)
	}
	return &alert, nil
}

// AlertFilter narrows List results. Empty fields match everything.
type AlertFilter struct {
	Severity AlertSeverity
	State    string
}

// List returns alerts newest first together with the total number of matches
func (r *AlertRepository) List(ctx context.Context, filter AlertFilter, offset, limit int) ([]Alert, int64, error) {
	query := r.db.WithContext(ctx).Model(&Alert{})
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	switch filter.State {
	case AlertStateNew:
		query = query.Where("acknowledged = ?", false)
	case AlertStateAcknowledged:
		query = query.Where("acknowledged = ? AND resolved = ?", true, false)
	case AlertStateResolved:
		query = query.Where("resolved = ?", true)
	}
	// Reusable for both the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count alerts: %v", ErrStorage, err)
	}

	alerts := []Alert{}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&alerts).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list alerts: %v", ErrStorage, err)
	}
	return alerts, total, nil
}

// UnacknowledgedCount returns the number of alerts nobody has acknowledged
func (r *AlertRepository) UnacknowledgedCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Alert{}).Where("acknowledged = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count unacknowledged alerts: %v", ErrStorage, err)
	}
	return count, nil
}

// WeeklySummary returns lifecycle and severity counts for the trailing seven days
func (r *AlertRepository) WeeklySummary(ctx context.Context) (*WeeklySummary, error) {
	var summary WeeklySummary
	err := r.db.WithContext(ctx).Model(&Alert{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN acknowledged THEN 1 ELSE 0 END), 0) AS acknowledged,
			COALESCE(SUM(CASE WHEN resolved THEN 1 ELSE 0 END), 0) AS resolved,
			COALESCE(SUM(CASE WHEN NOT acknowledged THEN 1 ELSE 0 END), 0) AS unacknowledged,
			COALESCE(SUM(CASE WHEN severity = 'critical' THEN 1 ELSE 0 END), 0) AS critical,
			COALESCE(SUM(CASE WHEN severity = 'warning' THEN 1 ELSE 0 END), 0) AS warning,
			COALESCE(SUM(CASE WHEN severity = 'info' THEN 1 ELSE 0 END), 0) AS info`).
		Where("created_at >= ?", r.windowStart()).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build weekly summary: %v", ErrStorage, err)
	}
	return &summary, nil
}

// TopAcknowledgers ranks actors by acknowledgements over the trailing seven days
func (r *AlertRepository) TopAcknowledgers(ctx context.Context, limit int) ([]ActorCount, error) {
	return r.topActors(ctx, "acknowledged", limit)
}

// TopResolvers ranks actors by resolutions over the trailing seven days
func (r *AlertRepository) TopResolvers(ctx context.Context, limit int) ([]ActorCount, error) {
	return r.topActors(ctx, "resolved", limit)
}

// topActors groups by <prefix>_by_id. prefix is one of two fixed column prefixes,
// never user input.
func (r *AlertRepository) topActors(ctx context.Context, prefix string, limit int) ([]ActorCount, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	selectSQL := fmt.Sprintf(
		"%[1]s_by_id AS actor_id, MAX(%[1]s_by) AS handle, MAX(%[1]s_by_name) AS name, COUNT(*) AS total",
		prefix,
	)

	rows := []ActorCount{}
	err := r.db.WithContext(ctx).Model(&Alert{}).
		Select(selectSQL).
		Where(prefix+" = ? AND created_at >= ?", true, r.windowStart()).
		Group(prefix + "_by_id").
		Order("total DESC, MIN(id) ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to rank %s actors: %v", ErrStorage, prefix, err)
	}
	return rows, nil
}

func (r *AlertRepository) windowStart() int64 {
	return r.now().Add(-summaryWindow).Unix()
}
