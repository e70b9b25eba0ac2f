package temporal

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trainBaseline records 30 weekday business-hour emails (9:00-17:00
// UTC, EST header offset) for the sender.
func trainBaseline(p *Profiler, sender string) {
	base := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) // a Monday
	for i := 0; i < 30; i++ {
		day := base.AddDate(0, 0, (i/5)*7+i%5)
		ts := time.Date(day.Year(), day.Month(), day.Day(), 9+i%9, 15, 0, 0, time.UTC)
		p.RecordEvent(Event{
			Sender:         sender,
			Recipient:      "bbrown@cyrenity.com",
			Timestamp:      ts,
			TimezoneOffset: -300,
			MessageID:      fmt.Sprintf("<%d@test>", i),
		})
	}
	p.Finalize()
}

func TestAnalyzeWithoutBaselineIsNeutral(t *testing.T) {
	p := NewProfiler()

	result := p.Analyze(Event{
		Sender:    "stranger@evil.com",
		Timestamp: time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, 0.5, result.AnomalyScore)
	assert.False(t, result.HasBaseline)
	assert.Equal(t, "MEDIUM", result.RiskLevel)
	require.Len(t, result.Anomalies, 1)
	assert.Contains(t, result.Anomalies[0], "INSUFFICIENT_HISTORY")
}

func TestAnalyzeBelowThresholdIsNeutral(t *testing.T) {
	p := NewProfiler()
	ts := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	for i := 0; i < baselineThreshold-1; i++ {
		p.RecordEvent(Event{Sender: "few@vendor.com", Timestamp: ts.AddDate(0, 0, i)})
	}
	p.Finalize()

	result := p.Analyze(Event{Sender: "few@vendor.com", Timestamp: ts})
	assert.False(t, result.HasBaseline)
	assert.Equal(t, 0.5, result.AnomalyScore)
}

func TestAnalyzeInPatternEmailIsLow(t *testing.T) {
	p := NewProfiler()
	trainBaseline(p, "cfo@cyrenity.com")

	// Tuesday 14:00 UTC from the usual timezone.
	result := p.Analyze(Event{
		Sender:         "cfo@cyrenity.com",
		Timestamp:      time.Date(2024, 7, 2, 14, 0, 0, 0, time.UTC),
		TimezoneOffset: -300,
	})

	assert.True(t, result.HasBaseline)
	assert.Equal(t, 0.0, result.AnomalyScore)
	assert.Equal(t, "LOW", result.RiskLevel)
	assert.Empty(t, result.Anomalies)
	assert.Equal(t, -300, result.PrimaryTimezone)
}

func TestAnalyzeOffPatternEmailAccumulatesAnomalies(t *testing.T) {
	p := NewProfiler()
	trainBaseline(p, "cfo@cyrenity.com")

	// 8:00 UTC is 3 AM in the baseline zone, never observed, claimed
	// from UTC+8.
	result := p.Analyze(Event{
		Sender:         "cfo@cyrenity.com",
		Timestamp:      time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC),
		TimezoneOffset: 480,
	})

	assert.True(t, result.HasBaseline)
	assert.Equal(t, 1.0, result.AnomalyScore)
	assert.Equal(t, "HIGH", result.RiskLevel)

	joined := fmt.Sprint(result.Anomalies)
	assert.Contains(t, joined, "UNUSUAL_HOUR")
	assert.Contains(t, joined, "DEAD_ZONE")
	assert.Contains(t, joined, "TIMEZONE_MISMATCH")
	assert.Contains(t, joined, "MAJOR_TZ_SHIFT")
	assert.Contains(t, joined, "LATE_NIGHT")
}

func TestActiveHoursThreshold(t *testing.T) {
	p := NewProfiler()
	ts := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	// 19 emails at 10:00, one at 23:00. The lone hour sits exactly at
	// 5% of 20 and stays active; anything under 5% would not.
	for i := 0; i < 19; i++ {
		p.RecordEvent(Event{Sender: "a@x.com", Timestamp: ts.Add(10 * time.Hour).AddDate(0, 0, i)})
	}
	p.RecordEvent(Event{Sender: "a@x.com", Timestamp: ts.Add(23 * time.Hour)})
	p.Finalize()

	profile := p.Profile("a@x.com")
	require.NotNil(t, profile)
	assert.ElementsMatch(t, []int{10, 23}, profile.ActiveHours)
}

func TestResponseTimesFromThreads(t *testing.T) {
	p := NewProfiler()
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	p.RecordEvent(Event{
		Sender:    "alice@cyrenity.com",
		Timestamp: start,
		MessageID: "<m1@test>",
	})
	p.RecordEvent(Event{
		Sender:     "bob@vendor.com",
		Timestamp:  start.Add(45 * time.Minute),
		MessageID:  "<m2@test>",
		ResponseTo: "<m1@test>",
	})
	p.RecordEvent(Event{
		Sender:     "alice@cyrenity.com",
		Timestamp:  start.Add(105 * time.Minute),
		MessageID:  "<m3@test>",
		ResponseTo: "<m1@test>",
	})
	// A reply eight days later falls outside the retention window.
	p.RecordEvent(Event{
		Sender:     "bob@vendor.com",
		Timestamp:  start.AddDate(0, 0, 8),
		MessageID:  "<m4@test>",
		ResponseTo: "<m1@test>",
	})
	p.Finalize()

	alice := p.Profile("alice@cyrenity.com")
	require.NotNil(t, alice)
	require.Len(t, alice.ResponseTimes, 1)
	assert.InDelta(t, 60.0, alice.ResponseTimes[0], 1e-9)
	assert.InDelta(t, 60.0, alice.AvgResponseTime, 1e-9)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	p := NewProfiler()
	trainBaseline(p, "cfo@cyrenity.com")
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	p.RecordEvent(Event{Sender: "cfo@cyrenity.com", Timestamp: start, MessageID: "<r1@test>"})
	p.RecordEvent(Event{
		Sender:     "bbrown@cyrenity.com",
		Timestamp:  start.Add(30 * time.Minute),
		MessageID:  "<r2@test>",
		ResponseTo: "<r1@test>",
	})
	p.RecordEvent(Event{
		Sender:     "cfo@cyrenity.com",
		Timestamp:  start.Add(75 * time.Minute),
		MessageID:  "<r3@test>",
		ResponseTo: "<r1@test>",
	})

	p.Finalize()
	first := *p.Profile("cfo@cyrenity.com")
	firstResponses := len(first.ResponseTimes)
	require.Equal(t, 1, firstResponses)

	p.Finalize()
	second := *p.Profile("cfo@cyrenity.com")

	assert.Equal(t, firstResponses, len(second.ResponseTimes))
	assert.Equal(t, first.AvgResponseTime, second.AvgResponseTime)
	assert.Equal(t, first.StdResponseTime, second.StdResponseTime)
	assert.Equal(t, first.PrimaryTimezone, second.PrimaryTimezone)
}

func TestPrimaryTimezoneModeTieBreak(t *testing.T) {
	p := NewProfiler()
	ts := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	for i, tz := range []int{-300, -360, -300, -360} {
		p.RecordEvent(Event{Sender: "t@x.com", Timestamp: ts.AddDate(0, 0, i), TimezoneOffset: tz})
	}
	p.Finalize()

	// First value to reach the winning count wins the tie.
	assert.Equal(t, -300, p.Profile("t@x.com").PrimaryTimezone)
}

func TestSampleStdev(t *testing.T) {
	assert.InDelta(t, 1.0, stdev([]float64{1, 2, 3}), 1e-9)
	assert.Equal(t, 0.0, stdev([]float64{5}))
}
