package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrSlotTaken слот уже занят другим бронированием
	ErrSlotTaken = errors.New("slot is no longer available")

	// ErrVersionConflict версия записи устарела
	ErrVersionConflict = errors.New("booking version conflict")

	// ErrInvalidTransition недопустимый переход статуса
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

type DB struct {
	*sql.DB
	logger zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger.With().Str("component", "database").Logger()}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS services (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            slug TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL,
            description TEXT,
            duration_minutes INTEGER NOT NULL,
            price_cents INTEGER NOT NULL DEFAULT 0,
            active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS staff (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            display_name TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS staff_services (
            staff_id INTEGER NOT NULL REFERENCES staff(id),
            service_id INTEGER NOT NULL REFERENCES services(id),
            PRIMARY KEY (staff_id, service_id)
        )`,
		`CREATE TABLE IF NOT EXISTS availability_blocks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            staff_id INTEGER NOT NULL REFERENCES staff(id),
            kind TEXT NOT NULL CHECK (kind IN ('shift', 'break', 'away')),
            starts_at DATETIME NOT NULL,
            ends_at DATETIME NOT NULL,
            notes TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            confirmation_code TEXT NOT NULL,
            public_token TEXT,
            service_id INTEGER NOT NULL REFERENCES services(id),
            service_name TEXT NOT NULL,
            staff_id INTEGER,
            status TEXT NOT NULL DEFAULT 'pending',
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            customer_name TEXT NOT NULL,
            customer_email TEXT NOT NULL,
            customer_phone TEXT,
            customer_notes TEXT,
            internal_note TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS operating_settings (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            open_time TEXT NOT NULL,
            close_time TEXT NOT NULL,
            timezone TEXT NOT NULL,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS closed_days (
            id TEXT PRIMARY KEY,
            closed_on TEXT UNIQUE NOT NULL,
            reason TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS notification_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER,
            event_type TEXT NOT NULL,
            recipient TEXT NOT NULL,
            status TEXT NOT NULL,
            detail TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS newsletter_subscribers (
            email TEXT PRIMARY KEY,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_staff_start ON bookings(staff_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_service_id ON bookings(service_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_staff_id ON availability_blocks(staff_id)`,
		`CREATE INDEX IF NOT EXISTS idx_closed_days_date ON closed_days(closed_on)`,

		// Last-resort guard against double-booking the identical
		// staff+slot pair: the transactional re-check runs first, the
		// unique index catches whatever slips between connections.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_staff_slot
            ON bookings(staff_id, start_time) WHERE status != 'cancelled'`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}
