package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/bec-analyzer/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the VerdictStore interface
type MySQLStore struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLStore creates a new MySQL verdict store
func NewMySQLStore(dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id VARCHAR(64) PRIMARY KEY,
			from_addr VARCHAR(320),
			to_addr VARCHAR(320),
			subject TEXT,
			risk_score DOUBLE,
			risk_level VARCHAR(16),
			recommendation TEXT,
			risk_factors TEXT,
			analyzed_at TIMESTAMP,
			INDEX idx_analyzed_at (analyzed_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	s := &MySQLStore{
		db:          db,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go s.startCleanupTask()

	return s, nil
}

// Save stores a verdict record
func (s *MySQLStore) Save(ctx context.Context, record *core.VerdictRecord) error {
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO verdicts
			(id, from_addr, to_addr, subject, risk_score, risk_level, recommendation, risk_factors, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.From, record.To, record.Subject,
		record.OverallRiskScore, string(record.RiskLevel), record.Recommendation,
		strings.Join(record.RiskFactors, "\n"), record.AnalyzedAt)

	if err != nil {
		return fmt.Errorf("failed to insert verdict record: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first
func (s *MySQLStore) Recent(ctx context.Context, limit int) ([]*core.VerdictRecord, error) {
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
		record, err := scanMySQLRecord(rows)
		if err != nil {
			s.logger.Error("Failed to scan verdict row", zap.Error(err))
			continue
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Cleanup removes records older than the retention window
func (s *MySQLStore) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)
	result, err := s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE analyzed_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up verdicts: %w", err)
	}

	if count, err := result.RowsAffected(); err == nil && count > 0 {
		s.logger.Debug("Cleaned up expired verdict records", zap.Int64("expired_count", count))
	}
	return nil
}

func (s *MySQLStore) startCleanupTask() {
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
func (s *MySQLStore) Stop() {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}

func scanMySQLRecord(rows *sql.Rows) (*core.VerdictRecord, error) {
	var record core.VerdictRecord
	var level, factors string
	var analyzedAt sql.NullTime

	if err := rows.Scan(&record.ID, &record.From, &record.To, &record.Subject,
		&record.OverallRiskScore, &level, &record.Recommendation, &factors, &analyzedAt); err != nil {
		return nil, err
	}

	record.RiskLevel = core.RiskLevel(level)
	if factors != "" {
		record.RiskFactors = strings.Split(factors, "\n")
	}
	if analyzedAt.Valid {
		record.AnalyzedAt = analyzedAt.Time
	}

	return &record, nil
}
