package scoring

import (
	"fmt"
	"math"

	"github.com/keycred/keycred/internal/models"
)

// Scoring constants
const (
	BaseScore         = 400
	MinScore          = 0
	MaxScore          = 1000
	ApprovalThreshold = 650
	DefaultTargetRent = 15000.0
)

// Rule names, in the fixed evaluation order preserved in the breakdown
const (
	RuleIncomeVsRent  = "income_vs_rent"
	RuleBalance       = "balance"
	RuleSupportIncome = "support_income"
	RuleUtilityBills  = "utility_bills"
	RuleCCRepayment   = "cc_repayment"
	RuleOverdraft     = "overdraft"
	RuleCashAdvance   = "cash_advance"
	RuleHighRisk      = "high_risk"
)

// InvalidProfileError reports a FinancialProfile attribute outside its
// defined domain. Scoring does not proceed past validation.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile: %s %s", e.Field, e.Reason)
}

// Scorer computes KeyCred scores from financial profiles. It is a
// stateless value; a single Scorer is safe for concurrent use.
type Scorer struct{}

// NewScorer initializes a new scorer
func NewScorer() Scorer {
	return Scorer{}
}

// Validate checks that every profile attribute lies in its documented
// domain and returns an InvalidProfileError naming the first violation.
func Validate(p models.FinancialProfile) error {
	switch {
	case math.IsNaN(p.MonthlyIncome) || p.MonthlyIncome < 0:
		return &InvalidProfileError{Field: "monthly_income", Reason: "must be a non-negative amount"}
	case math.IsNaN(p.CurrentBalance) || p.CurrentBalance < 0:
		return &InvalidProfileError{Field: "current_balance", Reason: "must be a non-negative amount"}
	case p.UtilityBillsPaid < 0 || p.UtilityBillsPaid > 3:
		return &InvalidProfileError{Field: "utility_bills_paid", Reason: "must be between 0 and 3"}
	case math.IsNaN(p.CCRepaymentRatio) || p.CCRepaymentRatio < 0 || p.CCRepaymentRatio > 1:
		return &InvalidProfileError{Field: "credit_card_repayment_ratio", Reason: "must be within [0, 1]"}
	}
	return nil
}

// Score evaluates the rule table against a profile and returns the
// ScoreResult. Deterministic given its inputs; the only error is an
// InvalidProfileError from validation. A targetRent of 0 or less forces
// the income ratio into the penalty branch rather than dividing by zero.
func (Scorer) Score(profile models.FinancialProfile, targetRent float64) (models.ScoreResult, error) {
	if err := Validate(profile); err != nil {
		return models.ScoreResult{}, err
	}

	breakdown := []models.RuleScore{
		{Rule: RuleIncomeVsRent, Points: incomeVsRentPoints(profile.MonthlyIncome, targetRent)},
		{Rule: RuleBalance, Points: balancePoints(profile.CurrentBalance, targetRent)},
		{Rule: RuleSupportIncome, Points: boolPoints(profile.HasSupportIncome, 100)},
		{Rule: RuleUtilityBills, Points: utilityBillsPoints(profile.UtilityBillsPaid)},
		{Rule: RuleCCRepayment, Points: ccRepaymentPoints(profile.CCRepaymentRatio)},
		{Rule: RuleOverdraft, Points: boolPoints(profile.UsesOverdraft, -150)},
		{Rule: RuleCashAdvance, Points: boolPoints(profile.CashAdvanceReliance, -100)},
		{Rule: RuleHighRisk, Points: boolPoints(profile.HighRiskTransaction, -300)},
	}

	total := BaseScore
	for _, rs := range breakdown {
		total += rs.Points
	}
	// Clamping is the last step; breakdown entries stay unclamped.
	total = clamp(total, MinScore, MaxScore)

	return models.ScoreResult{
		TargetRent:   targetRent,
		Total:        total,
		Breakdown:    breakdown,
		Approved:     Approved(total),
		RiskLevel:    RiskLevel(total),
		MaxRentLimit: MaxRentLimit(profile.MonthlyIncome, profile.CurrentBalance),
		Profile:      profile,
	}, nil
}

// Approved reports whether a clamped score meets the approval threshold.
func Approved(score int) bool {
	return score >= ApprovalThreshold
}

// RiskLevel classifies a clamped score.
func RiskLevel(score int) string {
	switch {
	case score >= 750:
		return models.RiskLow
	case score >= 500:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// MaxRentLimit derives the recommended rent ceiling from income and
// balance alone. Independent of the score, so it holds for rejected
// profiles too. Rounded to 2 decimal places.
func MaxRentLimit(income, balance float64) float64 {
	limit := income * 0.40
	if balance > 50000 {
		limit += balance * 0.05
	}
	return math.Round(limit*100) / 100
}

func incomeVsRentPoints(income, targetRent float64) int {
	var ratio float64
	if targetRent > 0 {
		ratio = income / targetRent
	}
	switch {
	case ratio >= 3:
		return 200
	case ratio >= 2:
		return 100
	default:
		return -150
	}
}

func balancePoints(balance, targetRent float64) int {
	if balance > 3*targetRent {
		return 100
	}
	return 0
}

func utilityBillsPoints(paid int) int {
	if paid > 3 {
		paid = 3
	}
	return paid * 30
}

func ccRepaymentPoints(ratio float64) int {
	switch {
	case ratio > 0.8:
		return 100
	case ratio < 0.4:
		return -100
	default:
		return 0
	}
}

func boolPoints(flag bool, points int) int {
	if flag {
		return points
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
