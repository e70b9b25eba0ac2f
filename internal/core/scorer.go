package core

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/stylometry"
	"github.com/mikey/bec-analyzer/internal/temporal"
	"github.com/mikey/bec-analyzer/internal/trustgraph"
)

const (
	trustPropagationIterations = 10
	trustPropagationDamping    = 0.85
)

// urgency keywords for the payment heuristic; distinct from the
// stylometry urgency lexicon, which feeds the style signal instead
var paymentUrgencyKeywords = []string{
	"urgent", "asap", "immediately", "rush", "today", "now",
}

var secrecyKeywords = []string{
	"confidential", "secret", "dont tell", "don't tell",
	"between us", "private", "discreet",
}

// Weights configures the fusion of the four risk components. They must
// sum to 1.0.
type Weights struct {
	Trust      float64
	Temporal   float64
	Stylometry float64
	Payment    float64
}

// DefaultWeights is the standard fusion configuration.
func DefaultWeights() Weights {
	return Weights{Trust: 0.35, Temporal: 0.30, Stylometry: 0.25, Payment: 0.10}
}

// Validate checks that the weights sum to 1.0.
func (w Weights) Validate() error {
	sum := w.Trust + w.Temporal + w.Stylometry + w.Payment
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("fusion weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// Scorer is the multi-signal BEC detection engine. It fans training
// records out to the trust graph, the temporal profiler and the
// stylometry engine, and fuses their read-only analysis results into
// one verdict.
//
// Lifecycle: Train and FinalizeTraining form a single-writer training
// phase. After FinalizeTraining the engine state is an immutable
// snapshot and Analyze may run concurrently without synchronization.
type Scorer struct {
	graph      *trustgraph.Graph
	profiler   *temporal.Profiler
	stylometry *stylometry.Engine
	weights    Weights
	logger     *zap.Logger

	mu    sync.Mutex
	ready atomic.Bool
}

// NewScorer creates a scorer for the given organization domain.
func NewScorer(organizationDomain string, executives []string, weights Weights, logger *zap.Logger) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	graph := trustgraph.New(organizationDomain)
	for _, exec := range executives {
		graph.AddExecutive(exec)
	}

	return &Scorer{
		graph:      graph,
		profiler:   temporal.NewProfiler(),
		stylometry: stylometry.NewEngine(),
		weights:    weights,
		logger:     logger,
	}, nil
}

// Graph exposes the trust graph for audit views.
func (s *Scorer) Graph() *trustgraph.Graph { return s.graph }

// IsReady reports whether training has been finalized.
func (s *Scorer) IsReady() bool { return s.ready.Load() }

// Train feeds one historical email into all three engines.
func (s *Scorer) Train(email Email) error {
	if email.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Load() {
		return ErrAlreadyFinalized
	}

	s.graph.RecordInteraction(trustgraph.Interaction{
		From:              email.From,
		To:                email.To,
		Timestamp:         email.Timestamp,
		Subject:           email.Subject,
		HasPaymentRequest: email.HasPaymentRequest,
		AmountRequested:   email.AmountRequested,
	})

	s.profiler.RecordEvent(temporal.Event{
		Sender:         email.From,
		Recipient:      email.To,
		Timestamp:      email.Timestamp,
		TimezoneOffset: email.TimezoneOffset,
		MessageID:      email.MessageID,
		ResponseTo:     email.InReplyTo,
	})

	if len(email.Body) > stylometry.MinSampleLength {
		s.stylometry.AddSample(email.From, email.Body)
	}

	return nil
}

// FinalizeTraining propagates trust, derives temporal statistics and
// builds stylometry profiles, then transitions the scorer to Ready.
func (s *Scorer) FinalizeTraining() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Load() {
		return ErrAlreadyFinalized
	}

	s.graph.PropagateTrust(trustPropagationIterations, trustPropagationDamping)
	s.profiler.Finalize()

	built := 0
	for _, author := range s.stylometry.Authors() {
		if s.stylometry.BuildProfile(author) != nil {
			built++
		}
	}

	s.ready.Store(true)
	s.logger.Info("Training finalized",
		zap.Int("graph_nodes", s.graph.NodeCount()),
		zap.Int("graph_edges", s.graph.EdgeCount()),
		zap.Int("temporal_profiles", s.profiler.ProfileCount()),
		zap.Int("style_profiles", built))
	return nil
}

// Analyze runs one email through all three engines and fuses the
// results. It mutates no engine state and is safe for concurrent use
// once the scorer is Ready.
func (s *Scorer) Analyze(email Email) (*Verdict, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	if email.Timestamp.IsZero() {
		return nil, ErrInvalidTimestamp
	}

	var factors []string

	var trustFindings TrustFindings
	var trustRisk float64
	if email.HasPaymentRequest {
		assessment := s.graph.AnalyzePaymentRequest(email.From, email.To, email.AmountRequested)
		trustRisk = assessment.RiskScore
		factors = append(factors, assessment.RiskFactors...)
		trustFindings.Payment = &assessment
	} else {
		assessment := s.graph.Assess(email.From, email.To)
		trustRisk = assessment.RiskScore
		factors = append(factors, assessment.RiskFactors...)
		trustFindings.Basic = &assessment
	}

	temporalFindings := s.profiler.Analyze(temporal.Event{
		Sender:         email.From,
		Recipient:      email.To,
		Timestamp:      email.Timestamp,
		TimezoneOffset: email.TimezoneOffset,
		MessageID:      email.MessageID,
	})
	temporalRisk := temporalFindings.AnomalyScore
	factors = append(factors, temporalFindings.Anomalies...)

	styleFindings := s.stylometry.CompareToProfile(email.Body, email.From)
	stylometryRisk := 1 - styleFindings.Similarity
	factors = append(factors, styleFindings.Deviations...)

	paymentRisk, paymentFactors := s.paymentHeuristic(email)
	factors = append(factors, paymentFactors...)

	overall := s.weights.Trust*clamp01(trustRisk) +
		s.weights.Temporal*clamp01(temporalRisk) +
		s.weights.Stylometry*clamp01(stylometryRisk) +
		s.weights.Payment*clamp01(paymentRisk)
	overall = clamp01(overall)

	level, rec := verdictLevel(overall)

	return &Verdict{
		OverallRiskScore:   overall,
		RiskLevel:          level,
		Recommendation:     rec,
		TrustRisk:          trustRisk,
		TemporalRisk:       temporalRisk,
		StylometryRisk:     stylometryRisk,
		PaymentRisk:        paymentRisk,
		RiskFactors:        factors,
		TrustFindings:      trustFindings,
		TemporalFindings:   temporalFindings,
		StylometryFindings: styleFindings,
		AnalyzedAt:         time.Now(),
	}, nil
}

// paymentHeuristic scores payment-request pressure tactics: amount,
// urgency keywords and secrecy phrasing in the subject and body.
func (s *Scorer) paymentHeuristic(email Email) (float64, []string) {
	if !email.HasPaymentRequest {
		return 0, nil
	}

	risk := 0.2
	var factors []string

	if email.AmountRequested > 50000 {
		risk += 0.3
		factors = append(factors, fmt.Sprintf("HIGH_VALUE: $%.0f requested", email.AmountRequested))
	} else if email.AmountRequested > 10000 {
		risk += 0.1
	}

	text := strings.ToLower(email.Subject + " " + email.Body)

	urgencyHits := 0
	for _, kw := range paymentUrgencyKeywords {
		if strings.Contains(text, kw) {
			urgencyHits++
		}
	}
	if urgencyHits >= 2 {
		risk += 0.2
		factors = append(factors, fmt.Sprintf("URGENCY_PRESSURE: %d urgency markers", urgencyHits))
	}

	for _, kw := range secrecyKeywords {
		if strings.Contains(text, kw) {
			risk += 0.2
			factors = append(factors, "SECRECY_REQUEST: Asks for confidentiality")
			break
		}
	}

	return risk, factors
}

// Stats is a snapshot of trained state for the dashboard.
type Stats struct {
	GraphNodes     int      `json:"trust_graph_nodes"`
	GraphEdges     int      `json:"trust_graph_edges"`
	StyleProfiles  int      `json:"style_profiles"`
	TrainedSenders int      `json:"trained_senders"`
	Executives     []string `json:"executives"`
	IsTrained      bool     `json:"is_trained"`
}

// Stats returns counters describing the trained state.
func (s *Scorer) Stats() Stats {
	return Stats{
		GraphNodes:     s.graph.NodeCount(),
		GraphEdges:     s.graph.EdgeCount(),
		StyleProfiles:  s.stylometry.ProfileCount(),
		TrainedSenders: s.profiler.ProfileCount(),
		Executives:     s.graph.Executives(),
		IsTrained:      s.ready.Load(),
	}
}

func verdictLevel(score float64) (RiskLevel, string) {
	switch {
	case score >= 0.7:
		return RiskCritical, "BLOCK: Do not proceed. Verify through phone call to known number."
	case score >= 0.5:
		return RiskHigh, "HOLD: Requires manager approval and verbal confirmation."
	case score >= 0.3:
		return RiskMedium, "REVIEW: Examine request carefully. Consider verification."
	default:
		return RiskLow, "PROCEED: Normal risk level."
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
