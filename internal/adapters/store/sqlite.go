package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/bec-analyzer/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the VerdictStore interface
type SQLiteStore struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteStore creates a new SQLite verdict store
func NewSQLiteStore(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id TEXT PRIMARY KEY,
			from_addr TEXT,
			to_addr TEXT,
			subject TEXT,
			risk_score REAL,
			risk_level TEXT,
			recommendation TEXT,
			risk_factors TEXT,
			analyzed_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on analyzed_at for history queries and cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analyzed_at ON verdicts(analyzed_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &SQLiteStore{
		db:          db,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go s.startCleanupTask()

	return s, nil
}

// Save stores a verdict record
func (s *SQLiteStore) Save(ctx context.Context, record *core.VerdictRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO verdicts
			(id, from_addr, to_addr, subject, risk_score, risk_level, recommendation, risk_factors, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.From, record.To, record.Subject,
		record.OverallRiskScore, string(record.RiskLevel), record.Recommendation,
		strings.Join(record.RiskFactors, "\n"), record.AnalyzedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert verdict record: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*core.VerdictRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_addr, to_addr, subject, risk_score, risk_level, recommendation, risk_factors, analyzed_at
		FROM verdicts
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdict history: %w", err)
	}
	defer rows.Close()

	var out []*core.VerdictRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			s.logger.Error("Failed to scan verdict row", zap.Error(err))
			continue
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Cleanup removes records older than the retention window
func (s *SQLiteStore) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE analyzed_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up verdicts: %w", err)
	}

	if count, err := result.RowsAffected(); err == nil && count > 0 {
		s.logger.Debug("Cleaned up expired verdict records", zap.Int64("expired_count", count))
	}
	return nil
}

// startCleanupTask starts a background task to clean up expired records
func (s *SQLiteStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up verdict store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database
func (s *SQLiteStore) Stop() {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.VerdictRecord, error) {
	var record core.VerdictRecord
	var level, factors, analyzedAt string

	if err := row.Scan(&record.ID, &record.From, &record.To, &record.Subject,
		&record.OverallRiskScore, &level, &record.Recommendation, &factors, &analyzedAt); err != nil {
		return nil, err
	}

	record.RiskLevel = core.RiskLevel(level)
	if factors != "" {
		record.RiskFactors = strings.Split(factors, "\n")
	}

	ts, err := time.Parse(time.RFC3339, analyzedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analyzed_at timestamp: %w", err)
	}
	record.AnalyzedAt = ts

	return &record, nil
}
