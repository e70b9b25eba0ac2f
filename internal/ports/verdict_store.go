package ports

import (
	"context"

	"github.com/mikey/bec-analyzer/internal/core"
)

// VerdictStore defines the interface for persisting analysis verdicts
// for the dashboard's audit/history view
type VerdictStore interface {
	// Save stores a verdict record
	Save(ctx context.Context, record *core.VerdictRecord) error

	// Recent returns the most recent records, newest first
	Recent(ctx context.Context, limit int) ([]*core.VerdictRecord, error)

	// Cleanup removes records older than the retention window
	Cleanup(ctx context.Context) error

	// Stop stops any background maintenance
	Stop()
}
