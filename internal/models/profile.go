package models

// FinancialProfile holds the financial attributes scored for a tenant.
// Immutable once produced; owned by the scoring call that consumes it.
type FinancialProfile struct {
	MonthlyIncome       float64 `json:"monthly_income"`
	CurrentBalance      float64 `json:"current_balance"`
	HasSupportIncome    bool    `json:"has_support_income"`
	UtilityBillsPaid    int     `json:"utility_bills_paid"` // 0-3
	CCRepaymentRatio    float64 `json:"credit_card_repayment_ratio"`
	UsesOverdraft       bool    `json:"uses_overdraft"`
	HighRiskTransaction bool    `json:"high_risk_transaction"`
	CashAdvanceReliance bool    `json:"cash_advance_reliance"`
}
