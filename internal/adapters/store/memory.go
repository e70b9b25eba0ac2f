package store

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/bec-analyzer/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the VerdictStore interface
type MemoryStore struct {
	records     []*core.VerdictRecord
	mu          sync.RWMutex
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryStore creates a new in-memory verdict store
func NewMemoryStore(logger *zap.Logger, retention, cleanupFreq time.Duration) *MemoryStore {
	s := &MemoryStore{
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go s.startCleanupTask()

	return s
}

// Save stores a verdict record
func (s *MemoryStore) Save(ctx context.Context, record *core.VerdictRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	return nil
}

// Recent returns the most recent records, newest first
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]*core.VerdictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	out := make([]*core.VerdictRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Cleanup removes records older than the retention window
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.retention)
	kept := s.records[:0]
	expired := 0
	for _, r := range s.records {
		if r.AnalyzedAt.After(cutoff) {
			kept = append(kept, r)
		} else {
			expired++
		}
	}
	s.records = kept

	s.logger.Debug("Cleaned up expired verdict records", zap.Int("expired_count", expired))
	return nil
}

// startCleanupTask starts a background task to clean up expired records
func (s *MemoryStore) startCleanupTask() {
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

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	close(s.stopCh)
}
