package models

import "time"

// Risk levels derived from the clamped score
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// RuleScore is one rule's signed point contribution to the total.
type RuleScore struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
}

// ScoreResult is the outcome of scoring a FinancialProfile.
// Created once per scoring call and never mutated.
type ScoreResult struct {
	TargetRent   float64          `json:"target_rent"`
	Total        int              `json:"keycred_score"` // clamped to [0, 1000]
	Breakdown    []RuleScore      `json:"score_breakdown"`
	Approved     bool             `json:"approved"`
	RiskLevel    string           `json:"risk_level"`
	MaxRentLimit float64          `json:"max_rent_limit"`
	Profile      FinancialProfile `json:"parameters"`
}

// Points returns the breakdown contribution for a rule name, 0 if absent.
func (r ScoreResult) Points(rule string) int {
	for _, rs := range r.Breakdown {
		if rs.Rule == rule {
			return rs.Points
		}
	}
	return 0
}

// Score represents a persisted scoring event linking tenant and receipt.
// Breakdown and Profile are kept verbatim so a certificate can be issued
// from the stored score without re-scoring.
type Score struct {
	ID           int64            `json:"id"`
	TenantID     int64            `json:"tenant_id"`
	ReceiptID    int64            `json:"receipt_id"`
	KeycredScore int              `json:"keycred_score"`
	MaxRentLimit float64          `json:"max_rent_limit"`
	RiskLevel    string           `json:"risk_level"`
	Approved     bool             `json:"approved"`
	Breakdown    []RuleScore      `json:"score_breakdown"`
	Profile      FinancialProfile `json:"parameters"`
	ScoredAt     time.Time        `json:"scored_at"`
}
