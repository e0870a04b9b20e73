package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/keycred/keycred/internal/models"
)

// StatementSource parses structured XML bank statements. Expected shape:
//
//	<statement>
//	  <summary>
//	    <monthlyIncome>65000</monthlyIncome>
//	    <currentBalance>10000</currentBalance>
//	  </summary>
//	  <indicators>
//	    <supportIncome>true</supportIncome>
//	    <utilityBillsPaid>3</utilityBillsPaid>
//	    <ccRepaymentRatio>0.9</ccRepaymentRatio>
//	    <overdraftUsed>false</overdraftUsed>
//	    <cashAdvanceReliance>false</cashAdvanceReliance>
//	    <highRiskTransactions>false</highRiskTransactions>
//	  </indicators>
//	</statement>
type StatementSource struct{}

// NewStatementSource initializes a new statement source
func NewStatementSource() *StatementSource {
	return &StatementSource{}
}

// Extract parses the statement XML into a FinancialProfile. Parse
// failures are reported, never papered over with synthesized values.
func (*StatementSource) Extract(data []byte) (models.FinancialProfile, error) {
	var p models.FinancialProfile

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return p, fmt.Errorf("failed to parse statement XML: %w", err)
	}

	root := doc.FindElement("//statement")
	if root == nil {
		return p, fmt.Errorf("statement element not found in XML")
	}

	var err error
	if p.MonthlyIncome, err = floatField(root, "summary/monthlyIncome"); err != nil {
		return p, err
	}
	if p.CurrentBalance, err = floatField(root, "summary/currentBalance"); err != nil {
		return p, err
	}
	if p.CCRepaymentRatio, err = floatField(root, "indicators/ccRepaymentRatio"); err != nil {
		return p, err
	}
	if p.UtilityBillsPaid, err = intField(root, "indicators/utilityBillsPaid"); err != nil {
		return p, err
	}
	if p.HasSupportIncome, err = boolField(root, "indicators/supportIncome"); err != nil {
		return p, err
	}
	if p.UsesOverdraft, err = boolField(root, "indicators/overdraftUsed"); err != nil {
		return p, err
	}
	if p.CashAdvanceReliance, err = boolField(root, "indicators/cashAdvanceReliance"); err != nil {
		return p, err
	}
	if p.HighRiskTransaction, err = boolField(root, "indicators/highRiskTransactions"); err != nil {
		return p, err
	}

	return p, nil
}

func textField(root *etree.Element, path string) (string, error) {
	el := root.FindElement(path)
	if el == nil {
		return "", fmt.Errorf("%s element not found in statement", path)
	}
	return strings.TrimSpace(el.Text()), nil
}

func floatField(root *etree.Element, path string) (float64, error) {
	text, err := textField(root, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

func intField(root *etree.Element, path string) (int, error) {
	text, err := textField(root, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

func boolField(root *etree.Element, path string) (bool, error) {
	text, err := textField(root, path)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(text)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}
