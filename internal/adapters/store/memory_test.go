package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/core"
)

func record(id string, analyzedAt time.Time) *core.VerdictRecord {
	return &core.VerdictRecord{
		ID:               id,
		From:             "sender@x.com",
		To:               "rcpt@cyrenity.com",
		Subject:          "test",
		OverallRiskScore: 0.42,
		RiskLevel:        core.RiskMedium,
		AnalyzedAt:       analyzedAt,
	}
}

func TestMemoryStoreSaveAndRecent(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), time.Hour, time.Hour)
	defer s.Stop()
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, record(fmt.Sprintf("r%d", i), now.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Newest first.
	assert.Equal(t, "r4", recent[0].ID)
	assert.Equal(t, "r3", recent[1].ID)
	assert.Equal(t, "r2", recent[2].ID)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMemoryStoreCleanup(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), time.Hour, time.Hour)
	defer s.Stop()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, record("old", time.Now().Add(-2*time.Hour))))
	require.NoError(t, s.Save(ctx, record("fresh", time.Now())))

	require.NoError(t, s.Cleanup(ctx))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].ID)
}
