package database

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store owns the database connection and its lifecycle: open, migrate (which
// completes the ready signal exactly once) and close.
type Store struct {
	db        *gorm.DB
	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore wraps an already opened connection
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		ready: make(chan struct{}),
	}
}

// Open connects to the database described by dsn. postgres:// and postgresql://
// DSNs use the PostgreSQL driver, anything else is treated as a SQLite path.
func Open(dsn string, logLevel logger.LogLevel) (*Store, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	var (
		db  *gorm.DB
		err error
	)
	if IsPostgresDSN(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open(sqlitePath(dsn)), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !IsPostgresDSN(dsn) {
		// SQLite allows a single writer; serialize through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("Database connection established (%s)", driverName(dsn))
	return NewStore(db), nil
}

// IsPostgresDSN reports whether dsn selects the PostgreSQL driver
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func sqlitePath(dsn string) string {
	return strings.TrimPrefix(dsn, "sqlite://")
}

func driverName(dsn string) string {
	if IsPostgresDSN(dsn) {
		return "postgres"
	}
	return "sqlite"
}

// DB returns the underlying GORM handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate runs schema migrations and marks the store ready
func (s *Store) Migrate() error {
	log.Println("Running database migrations...")

	if err := s.db.AutoMigrate(&Alert{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	s.MarkReady()
	return nil
}

// MarkReady completes the ready signal. Safe to call more than once.
func (s *Store) MarkReady() {
	s.readyOnce.Do(func() {
		close(s.ready)
	})
}

// Ready returns a channel that is closed once the store can serve requests
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// IsReady reports whether Migrate has completed
func (s *Store) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
