package core

import (
	"errors"
	"time"

	"github.com/mikey/bec-analyzer/internal/stylometry"
	"github.com/mikey/bec-analyzer/internal/temporal"
	"github.com/mikey/bec-analyzer/internal/trustgraph"
)

var (
	// ErrNotReady is returned when Analyze is called before training
	// has been finalized.
	ErrNotReady = errors.New("scorer not ready: finalize training first")
	// ErrAlreadyFinalized is returned when training continues after the
	// Ready transition. Retraining builds a new scorer instead.
	ErrAlreadyFinalized = errors.New("training already finalized")
	// ErrInvalidTimestamp rejects records with a zero timestamp.
	ErrInvalidTimestamp = errors.New("email has no timestamp")
)

// Email is one interaction record, produced by an ingestion collaborator.
// The same shape serves training and inference.
type Email struct {
	From              string    `json:"from_addr"`
	To                string    `json:"to_addr"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	Timestamp         time.Time `json:"timestamp"`
	TimezoneOffset    int       `json:"timezone_offset"` // minutes from UTC
	HasPaymentRequest bool      `json:"has_payment_request"`
	AmountRequested   float64   `json:"amount_requested"`
	MessageID         string    `json:"message_id"`
	InReplyTo         string    `json:"in_reply_to"`
}

// RiskLevel is the discrete verdict level.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// TrustFindings carries the trust graph's detailed result. Exactly one
// branch is set, depending on whether the email requested a payment.
type TrustFindings struct {
	Payment *trustgraph.PaymentAssessment `json:"payment,omitempty"`
	Basic   *trustgraph.Assessment        `json:"basic,omitempty"`
}

// Verdict is the fused result of one analysis call.
type Verdict struct {
	OverallRiskScore float64   `json:"overall_risk_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Recommendation   string    `json:"recommendation"`

	TrustRisk      float64 `json:"trust_risk"`
	TemporalRisk   float64 `json:"temporal_risk"`
	StylometryRisk float64 `json:"stylometry_risk"`
	PaymentRisk    float64 `json:"payment_risk"`

	RiskFactors []string `json:"risk_factors"`

	TrustFindings      TrustFindings         `json:"trust_findings"`
	TemporalFindings   temporal.Assessment   `json:"temporal_findings"`
	StylometryFindings stylometry.Comparison `json:"stylometry_findings"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// VerdictRecord is the flattened audit row persisted for the
// dashboard's history view.
type VerdictRecord struct {
	ID               string    `json:"id"`
	From             string    `json:"from_addr"`
	To               string    `json:"to_addr"`
	Subject          string    `json:"subject"`
	OverallRiskScore float64   `json:"overall_risk_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Recommendation   string    `json:"recommendation"`
	RiskFactors      []string  `json:"risk_factors"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

// NewVerdictRecord flattens a verdict for persistence.
func NewVerdictRecord(id string, email Email, v *Verdict) *VerdictRecord {
	return &VerdictRecord{
		ID:               id,
		From:             email.From,
		To:               email.To,
		Subject:          email.Subject,
		OverallRiskScore: v.OverallRiskScore,
		RiskLevel:        v.RiskLevel,
		Recommendation:   v.Recommendation,
		RiskFactors:      v.RiskFactors,
		AnalyzedAt:       v.AnalyzedAt,
	}
}
