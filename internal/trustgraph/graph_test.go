package trustgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seedRelationship records n interactions in each direction between a
// and b, spread one day apart and ending at end.
func seedRelationship(g *Graph, a, b string, n int, end time.Time) {
	for i := 0; i < n; i++ {
		ts := end.AddDate(0, 0, -(n - 1 - i))
		g.RecordInteraction(Interaction{From: a, To: b, Timestamp: ts})
		g.RecordInteraction(Interaction{From: b, To: a, Timestamp: ts.Add(time.Hour)})
	}
}

func TestInternalAndExecutivesPinnedDuringPropagation(t *testing.T) {
	g := New("cyrenity.com")
	g.AddExecutive("ceo@cyrenity.com")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.SetClock(fixedClock(now))

	seedRelationship(g, "alice@cyrenity.com", "ceo@cyrenity.com", 10, now)
	seedRelationship(g, "alice@cyrenity.com", "vendor@supplies.com", 10, now)
	g.RecordInteraction(Interaction{From: "stranger@random.net", To: "alice@cyrenity.com", Timestamp: now})

	g.PropagateTrust(10, 0.85)

	assert.Equal(t, 1.0, g.TrustScore("alice@cyrenity.com"))
	assert.Equal(t, 1.0, g.TrustScore("ceo@cyrenity.com"))

	// Externals never leave [0,1] and never reach the pinned score.
	for _, node := range g.ExportNodes() {
		assert.GreaterOrEqual(t, node.TrustScore, 0.0, node.Address)
		assert.LessOrEqual(t, node.TrustScore, 1.0, node.Address)
		if !node.IsInternal && !node.IsExecutive {
			assert.Less(t, node.TrustScore, 1.0, node.Address)
		}
	}

	// The reciprocal vendor earns trust, the one-shot stranger stays
	// near the floor.
	assert.Greater(t, g.TrustScore("vendor@supplies.com"), 0.5)
	assert.Less(t, g.TrustScore("stranger@random.net"), 0.3)
}

func TestTrustScoreUnknownAddress(t *testing.T) {
	g := New("cyrenity.com")
	assert.Equal(t, 0.0, g.TrustScore("nobody@nowhere.com"))
}

func TestRelationshipStrengthSymmetric(t *testing.T) {
	g := New("cyrenity.com")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.SetClock(fixedClock(now))

	g.RecordInteraction(Interaction{From: "a@cyrenity.com", To: "b@vendor.com", Timestamp: now.AddDate(0, 0, -30)})
	g.RecordInteraction(Interaction{From: "a@cyrenity.com", To: "b@vendor.com", Timestamp: now.AddDate(0, 0, -10)})
	g.RecordInteraction(Interaction{From: "b@vendor.com", To: "a@cyrenity.com", Timestamp: now.AddDate(0, 0, -9)})

	ab := g.RelationshipStrength("a@cyrenity.com", "b@vendor.com")
	ba := g.RelationshipStrength("b@vendor.com", "a@cyrenity.com")

	assert.InDelta(t, ab, ba, 1e-12)
	assert.Greater(t, ab, 0.0)
	assert.LessOrEqual(t, ab, 1.0)
}

func TestRelationshipStrengthNoHistory(t *testing.T) {
	g := New("cyrenity.com")
	assert.Equal(t, 0.0, g.RelationshipStrength("a@x.com", "b@y.com"))
}

func TestRelationshipStrengthDecaysWithStaleness(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := New("cyrenity.com")
	fresh.SetClock(fixedClock(now))
	seedRelationship(fresh, "a@cyrenity.com", "b@vendor.com", 2, now)

	stale := New("cyrenity.com")
	stale.SetClock(fixedClock(now))
	seedRelationship(stale, "a@cyrenity.com", "b@vendor.com", 2, now.AddDate(0, 0, -180))

	assert.Greater(t,
		fresh.RelationshipStrength("a@cyrenity.com", "b@vendor.com"),
		stale.RelationshipStrength("a@cyrenity.com", "b@vendor.com"))
}

func TestPaymentRequestFromUnknownSenderIsCritical(t *testing.T) {
	g := New("cyrenity.com")
	g.PropagateTrust(10, 0.85)

	result := g.AnalyzePaymentRequest("attacker@evil.com", "cfo@cyrenity.com", 50000)

	assert.Equal(t, "CRITICAL", result.RiskLevel)
	assert.Equal(t, 1.0, result.RiskScore)
	assert.Contains(t, result.Recommendation, "BLOCK")

	factors := factorTags(result.RiskFactors)
	assert.Contains(t, factors, "UNKNOWN_SENDER")
	assert.Contains(t, factors, "LOW_TRUST")
	assert.Contains(t, factors, "WEAK_RELATIONSHIP")
	assert.Contains(t, factors, "HIGH_VALUE_LOW_TRUST")
}

func TestPaymentRequestFromEstablishedVendorIsLow(t *testing.T) {
	g := New("cyrenity.com")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.SetClock(fixedClock(now))

	seedRelationship(g, "billing@vendor.com", "ap@cyrenity.com", 20, now)
	g.PropagateTrust(10, 0.85)

	result := g.AnalyzePaymentRequest("billing@vendor.com", "ap@cyrenity.com", 5000)

	assert.Equal(t, "LOW", result.RiskLevel)
	assert.Less(t, result.RiskScore, 0.3)

	// Only the first-request signal fires for a trusted regular.
	factors := factorTags(result.RiskFactors)
	assert.Contains(t, factors, "FIRST_PAYMENT_REQUEST")
	assert.NotContains(t, factors, "UNKNOWN_SENDER")
	assert.NotContains(t, factors, "LOW_TRUST")
}

func TestPaymentRequestHistoryClearsFirstRequestFlag(t *testing.T) {
	g := New("cyrenity.com")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.SetClock(fixedClock(now))

	seedRelationship(g, "billing@vendor.com", "ap@cyrenity.com", 20, now)
	g.RecordInteraction(Interaction{
		From:              "billing@vendor.com",
		To:                "ap@cyrenity.com",
		Timestamp:         now,
		HasPaymentRequest: true,
		AmountRequested:   4200,
	})
	g.PropagateTrust(10, 0.85)

	result := g.AnalyzePaymentRequest("billing@vendor.com", "ap@cyrenity.com", 5000)
	assert.NotContains(t, factorTags(result.RiskFactors), "FIRST_PAYMENT_REQUEST")
}

func TestAssessNonPayment(t *testing.T) {
	g := New("cyrenity.com")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.SetClock(fixedClock(now))

	g.RecordInteraction(Interaction{From: "new@outside.org", To: "bob@cyrenity.com", Timestamp: now})
	g.PropagateTrust(10, 0.85)

	weak := g.Assess("new@outside.org", "bob@cyrenity.com")
	assert.Greater(t, weak.RiskScore, 0.0)
	assert.Contains(t, factorTags(weak.RiskFactors), "LOW_TRUST")

	// Trust above the neutral line carries no residual risk.
	require.Equal(t, 1.0, g.TrustScore("bob@cyrenity.com"))
	trusted := g.Assess("bob@cyrenity.com", "new@outside.org")
	assert.Equal(t, 0.0, trusted.RiskScore)
}

// factorTags strips the explanatory suffix so assertions can match
// factor identifiers alone.
func factorTags(factors []string) []string {
	tags := make([]string, 0, len(factors))
	for _, f := range factors {
		for i := 0; i < len(f); i++ {
			if f[i] == ':' {
				f = f[:i]
				break
			}
		}
		tags = append(tags, f)
	}
	return tags
}
