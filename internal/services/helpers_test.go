package services

import (
	"context"
	"sync"
	"testing"

	"github.com/akmatori/alertrelay/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) (*database.AlertRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&database.Alert{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return database.NewAlertRepository(db), db
}

func createTestAlert(t *testing.T, repo *database.AlertRepository) *database.Alert {
	t.Helper()
	alert := &database.Alert{
		Title:     "DB down",
		Source:    "svc",
		Severity:  database.AlertSeverityCritical,
		Message:   "timeout",
		Timestamp: 1700000000000,
	}
	if err := repo.Create(context.Background(), alert); err != nil {
		t.Fatalf("failed to create alert: %v", err)
	}
	return alert
}

type sentMessage struct {
	Text     string
	Controls []Control
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   []sentMessage
	sendErr error
	block   bool
}

func (f *fakeNotifier) Send(ctx context.Context, text string, controls []Control) (MessageHandle, error) {
	if f.block {
		<-ctx.Done()
		return MessageHandle{}, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return MessageHandle{}, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{Text: text, Controls: controls})
	return MessageHandle{ChannelID: "C123", MessageID: "1700000000.000100"}, nil
}

func (f *fakeNotifier) Edit(ctx context.Context, handle MessageHandle, text string, controls []Control) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{Text: text, Controls: controls})
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
