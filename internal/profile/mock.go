package profile

import (
	"math/rand"
	"sync"

	"github.com/keycred/keycred/internal/models"
)

// MockSource synthesizes realistic financial attributes in place of real
// receipt extraction. Safe for concurrent use.
type MockSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockSource creates a mock profile source with its own seed
func NewMockSource() *MockSource {
	return &MockSource{rnd: rand.New(rand.NewSource(rand.Int63()))}
}

// Extract ignores the receipt bytes and generates a plausible profile.
func (m *MockSource) Extract(_ []byte) (models.FinancialProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.FinancialProfile{
		MonthlyIncome:       20000 + m.rnd.Float64()*60000, // 20k-80k TRY
		CurrentBalance:      m.rnd.Float64() * 120000,
		HasSupportIncome:    m.rnd.Intn(4) == 0,
		UtilityBillsPaid:    m.rnd.Intn(4),
		CCRepaymentRatio:    m.rnd.Float64(),
		UsesOverdraft:       m.rnd.Intn(5) == 0,
		HighRiskTransaction: m.rnd.Intn(10) == 0,
		CashAdvanceReliance: m.rnd.Intn(6) == 0,
	}, nil
}
