package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"radiantbloom/internal/config"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const defaultBackupInterval = 24 * time.Hour

// BackupService snapshots the sqlite file on a schedule. The whole
// salon state lives in one database file, so a copy of it is a full
// backup.
type BackupService struct {
	dbPath string
	cfg    config.BackupConfig
	logger zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		dbPath: dbPath,
		cfg:    cfg,
		logger: logger.With().Str("component", "backup").Logger(),
	}
}

func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("path", s.cfg.StoragePath).Msg("backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Первый бэкап сразу при старте, дальше по расписанию.
	s.runOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *BackupService) runOnce() {
	if err := s.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
		return
	}
	s.CleanupOldBackups()
}

func (s *BackupService) interval() time.Duration {
	if s.cfg.Schedule == "" {
		return defaultBackupInterval
	}
	d, err := time.ParseDuration(s.cfg.Schedule)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule", s.cfg.Schedule).Msg("invalid backup schedule, using 24h")
		return defaultBackupInterval
	}
	return d
}

// PerformBackup writes a timestamped snapshot via VACUUM INTO, which is
// safe against concurrent writers. A plain file copy is the fallback
// when the source cannot run the statement.
func (s *BackupService) PerformBackup() error {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("radiantbloom_%s.db", time.Now().Format("20060102_150405"))
	backupPath := filepath.Join(s.cfg.StoragePath, name)

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath)); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, falling back to file copy")
		if err := s.copyDatabaseFile(backupPath); err != nil {
			return err
		}
	}

	s.logger.Info().Str("file", name).Msg("backup completed")
	return nil
}

func (s *BackupService) copyDatabaseFile(backupPath string) error {
	source, err := os.Open(s.dbPath)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer destination.Close()

	// io.Copy не атомарен для sqlite: при одновременной записи копия
	// может оказаться битой, поэтому это только аварийный путь.
	_, err = io.Copy(destination, source)
	return err
}

// CleanupOldBackups drops snapshots older than the retention window.
func (s *BackupService) CleanupOldBackups() {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", entry.Name()).Msg("deleting old backup")
			os.Remove(filepath.Join(s.cfg.StoragePath, entry.Name()))
		}
	}
}
