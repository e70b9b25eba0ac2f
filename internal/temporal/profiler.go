package temporal

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// minimum training emails before a profile counts as a baseline
const baselineThreshold = 20

// response-time deltas of a week or more are discarded as stale threads
const maxResponseMinutes = 10080

// Event is one email with timing metadata.
type Event struct {
	Sender         string
	Recipient      string
	Timestamp      time.Time
	TimezoneOffset int // minutes from UTC, taken from headers
	MessageID      string
	ResponseTo     string // Message-ID of thread parent, if any
}

// Profile is the pattern-of-life baseline for one address.
type Profile struct {
	Address string

	HourlyDistribution [24]int
	DailyDistribution  [7]int
	ResponseTimes      []float64 // minutes
	ObservedTimezones  []int
	TotalEmails        int

	// derived at finalize
	AvgResponseTime float64
	StdResponseTime float64
	PrimaryTimezone int
	ActiveHours     []int // hours with >=5% of total activity
}

// HourProbability is the share of the sender's traffic at this hour,
// 1/24 uniform when there is no history.
func (p *Profile) HourProbability(hour int) float64 {
	if p.TotalEmails == 0 {
		return 1.0 / 24
	}
	return float64(p.HourlyDistribution[hour]) / float64(p.TotalEmails)
}

// DayProbability is the share of the sender's traffic on this weekday.
func (p *Profile) DayProbability(day time.Weekday) float64 {
	if p.TotalEmails == 0 {
		return 1.0 / 7
	}
	return float64(p.DailyDistribution[int(day)]) / float64(p.TotalEmails)
}

func (p *Profile) isActiveHour(hour int) bool {
	for _, h := range p.ActiveHours {
		if h == hour {
			return true
		}
	}
	return false
}

// Assessment is the profiler's read on one incoming email.
type Assessment struct {
	Sender          string    `json:"sender"`
	Timestamp       time.Time `json:"timestamp"`
	AnomalyScore    float64   `json:"anomaly_score"`
	Anomalies       []string  `json:"anomalies"`
	HasBaseline     bool      `json:"has_baseline"`
	HourProbability float64   `json:"hour_probability"`
	DayProbability  float64   `json:"day_probability"`
	PrimaryTimezone int       `json:"primary_timezone"`
	ActiveHours     []int     `json:"active_hours"`
	BaselineEmails  int       `json:"total_baseline_emails"`
	RiskLevel       string    `json:"risk_level"`
}

// Profiler accumulates per-sender temporal baselines during training and
// scores incoming emails against them after Finalize.
type Profiler struct {
	profiles map[string]*Profile
	threads  map[string][]Event
}

// NewProfiler creates an empty temporal profiler.
func NewProfiler() *Profiler {
	return &Profiler{
		profiles: make(map[string]*Profile),
		threads:  make(map[string][]Event),
	}
}

func (t *Profiler) getOrCreateProfile(email string) *Profile {
	email = strings.ToLower(email)
	p, ok := t.profiles[email]
	if !ok {
		p = &Profile{Address: email}
		t.profiles[email] = p
	}
	return p
}

// Profile returns the profile for an address, or nil if never observed.
func (t *Profiler) Profile(email string) *Profile {
	return t.profiles[strings.ToLower(email)]
}

// ProfileCount returns the number of senders observed.
func (t *Profiler) ProfileCount() int { return len(t.profiles) }

// RecordEvent folds a training email into the sender's histograms and,
// when it replies to a thread, groups it for response-time derivation.
func (t *Profiler) RecordEvent(e Event) {
	p := t.getOrCreateProfile(e.Sender)

	p.HourlyDistribution[e.Timestamp.Hour()]++
	p.DailyDistribution[int(e.Timestamp.Weekday())]++
	p.ObservedTimezones = append(p.ObservedTimezones, e.TimezoneOffset)

	if e.ResponseTo != "" {
		t.threads[e.ResponseTo] = append(t.threads[e.ResponseTo], e)
	}

	p.TotalEmails++
}

// Finalize derives statistics for all profiles: response-time mean and
// stdev, modal timezone and the active-hour set. Response times are
// rebuilt from the retained thread groups on every call, so running
// Finalize twice over an unchanged training set is a no-op.
func (t *Profiler) Finalize() {
	for _, p := range t.profiles {
		p.ResponseTimes = nil
	}

	for _, events := range t.threads {
		if len(events) < 2 {
			continue
		}
		sortEventsByTime(events)
		for i := 1; i < len(events); i++ {
			delta := events[i].Timestamp.Sub(events[i-1].Timestamp).Minutes()
			if delta > 0 && delta < maxResponseMinutes {
				p := t.getOrCreateProfile(events[i].Sender)
				p.ResponseTimes = append(p.ResponseTimes, delta)
			}
		}
	}

	for _, p := range t.profiles {
		if len(p.ResponseTimes) > 0 {
			p.AvgResponseTime = mean(p.ResponseTimes)
			if len(p.ResponseTimes) > 1 {
				p.StdResponseTime = stdev(p.ResponseTimes)
			} else {
				p.StdResponseTime = 0
			}
		}

		if len(p.ObservedTimezones) > 0 {
			p.PrimaryTimezone = mode(p.ObservedTimezones)
		}

		p.ActiveHours = nil
		if p.TotalEmails > 0 {
			threshold := float64(p.TotalEmails) * 0.05
			for hour, count := range p.HourlyDistribution {
				if float64(count) >= threshold {
					p.ActiveHours = append(p.ActiveHours, hour)
				}
			}
		}
	}
}

// Analyze scores an email against the sender's baseline. Without a
// baseline (unknown sender or under 20 training emails) the result is
// an explicit neutral 0.5, not a risk signal.
func (t *Profiler) Analyze(e Event) Assessment {
	p := t.profiles[strings.ToLower(e.Sender)]

	if p == nil || p.TotalEmails < baselineThreshold {
		return Assessment{
			Sender:       e.Sender,
			Timestamp:    e.Timestamp,
			AnomalyScore: 0.5,
			Anomalies:    []string{"INSUFFICIENT_HISTORY: Cannot establish baseline pattern"},
			HasBaseline:  false,
			RiskLevel:    anomalyLevel(0.5),
		}
	}

	hour := e.Timestamp.Hour()
	day := e.Timestamp.Weekday()

	var anomalies []string
	score := 0.0

	hourProb := p.HourProbability(hour)
	if hourProb < 0.02 {
		anomalies = append(anomalies, fmt.Sprintf(
			"UNUSUAL_HOUR: Only %.1f%% of emails sent at %d:00", hourProb*100, hour))
		score += 0.3

		if !p.isActiveHour(hour) {
			anomalies = append(anomalies, fmt.Sprintf(
				"DEAD_ZONE: %d:00 is outside active hours %v", hour, p.ActiveHours))
			score += 0.2
		}
	}

	dayProb := p.DayProbability(day)
	if dayProb < 0.05 {
		anomalies = append(anomalies, fmt.Sprintf(
			"UNUSUAL_DAY: Only %.1f%% of emails on %s", dayProb*100, day))
		score += 0.15
	}

	if e.TimezoneOffset != 0 && p.PrimaryTimezone != 0 {
		tzDiff := e.TimezoneOffset - p.PrimaryTimezone
		if tzDiff < 0 {
			tzDiff = -tzDiff
		}
		if tzDiff > 60 {
			anomalies = append(anomalies, fmt.Sprintf(
				"TIMEZONE_MISMATCH: Email from UTC%+d, usual is UTC%+d",
				e.TimezoneOffset/60, p.PrimaryTimezone/60))
			score += 0.25

			if tzDiff > 300 {
				anomalies = append(anomalies, "MAJOR_TZ_SHIFT: Timezone shifted by 5+ hours from normal")
				score += 0.2
			}
		}
	}

	// The 3 AM test. Local hour is reconstructed from the baseline
	// zone, not the email's claimed zone.
	localHour := ((hour + p.PrimaryTimezone/60) % 24 + 24) % 24
	if localHour >= 1 && localHour <= 5 && hourProb < 0.05 {
		anomalies = append(anomalies, fmt.Sprintf(
			"LATE_NIGHT: Email at %d:00 local time is unusual", localHour))
		score += 0.2
	}

	return Assessment{
		Sender:          e.Sender,
		Timestamp:       e.Timestamp,
		AnomalyScore:    math.Min(1.0, score),
		Anomalies:       anomalies,
		HasBaseline:     true,
		HourProbability: hourProb,
		DayProbability:  dayProb,
		PrimaryTimezone: p.PrimaryTimezone,
		ActiveHours:     p.ActiveHours,
		BaselineEmails:  p.TotalEmails,
		RiskLevel:       anomalyLevel(score),
	}
}

func anomalyLevel(score float64) string {
	switch {
	case score >= 0.6:
		return "HIGH"
	case score >= 0.3:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
