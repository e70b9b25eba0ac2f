package trustgraph

import (
	"fmt"
	"math"
	"strings"
)

// PaymentAssessment is the graph's risk read on a single payment request.
type PaymentAssessment struct {
	From                 string   `json:"from_address"`
	To                   string   `json:"to_address"`
	Amount               float64  `json:"amount"`
	TrustScore           float64  `json:"trust_score"`
	RelationshipStrength float64  `json:"relationship_strength"`
	RiskScore            float64  `json:"risk_score"`
	RiskLevel            string   `json:"risk_level"`
	RiskFactors          []string `json:"risk_factors"`
	Recommendation       string   `json:"recommendation"`
}

// Assessment is the lighter trust check used when no payment is in play.
type Assessment struct {
	TrustScore           float64  `json:"trust_score"`
	RelationshipStrength float64  `json:"relationship_strength"`
	RiskScore            float64  `json:"risk_score"`
	RiskFactors          []string `json:"risk_factors"`
}

// AnalyzePaymentRequest scores a payment request for BEC indicators
// based purely on graph position: sender history, trust, relationship
// strength, prior payment behavior and amount.
func (g *Graph) AnalyzePaymentRequest(from, to string, amount float64) PaymentAssessment {
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	fromNode := g.nodes[from]
	strength := g.RelationshipStrength(from, to)
	trust := g.TrustScore(from)

	var factors []string
	risk := 0.0

	if fromNode == nil {
		factors = append(factors, "UNKNOWN_SENDER: First-time sender")
		risk += 0.4
	} else if fromNode.InteractionCount < 5 {
		factors = append(factors, "LOW_HISTORY: Sender has few prior interactions")
		risk += 0.2
	}

	if trust < 0.3 {
		factors = append(factors, fmt.Sprintf("LOW_TRUST: Sender trust score %.2f", trust))
		risk += 0.3
	} else if trust < 0.5 {
		factors = append(factors, fmt.Sprintf("MEDIUM_TRUST: Sender trust score %.2f", trust))
		risk += 0.1
	}

	if strength < 0.2 {
		factors = append(factors, "WEAK_RELATIONSHIP: Limited prior communication")
		risk += 0.25
	}

	if fromNode != nil && fromNode.PaymentRequestsMade == 0 {
		factors = append(factors, "FIRST_PAYMENT_REQUEST: No prior payment requests from this sender")
		risk += 0.15
	}

	if amount > 10000 && trust < 0.5 {
		factors = append(factors, "HIGH_VALUE_LOW_TRUST: Large amount from low-trust sender")
		risk += 0.2
	}

	return PaymentAssessment{
		From:                 from,
		To:                   to,
		Amount:               amount,
		TrustScore:           trust,
		RelationshipStrength: strength,
		RiskScore:            math.Min(1.0, risk),
		RiskLevel:            riskLevel(risk),
		RiskFactors:          factors,
		Recommendation:       recommendation(risk),
	}
}

// Assess performs the non-payment trust check: zero risk above 0.5
// trust, otherwise the shortfall below neutral.
func (g *Graph) Assess(from, to string) Assessment {
	trust := g.TrustScore(from)
	strength := g.RelationshipStrength(from, to)

	risk := 0.0
	if trust <= 0.5 {
		risk = 0.5 - trust
	}

	var factors []string
	if trust < 0.3 {
		factors = append(factors, fmt.Sprintf("LOW_TRUST: Score %.2f", trust))
	}
	if strength < 0.2 {
		factors = append(factors, "WEAK_RELATIONSHIP: Limited history")
	}

	return Assessment{
		TrustScore:           trust,
		RelationshipStrength: strength,
		RiskScore:            risk,
		RiskFactors:          factors,
	}
}

func riskLevel(score float64) string {
	switch {
	case score >= 0.7:
		return "CRITICAL"
	case score >= 0.5:
		return "HIGH"
	case score >= 0.3:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func recommendation(score float64) string {
	switch {
	case score >= 0.7:
		return "BLOCK: Manual verification required before proceeding"
	case score >= 0.5:
		return "VERIFY: Confirm request through separate channel (phone call)"
	case score >= 0.3:
		return "REVIEW: Examine request carefully before approval"
	default:
		return "PROCEED: Normal risk level"
	}
}
