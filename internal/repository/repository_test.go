package repository

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keycred/keycred/internal/models"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestCreateTenant(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO keycred.tenants")).
		WithArgs("Demo Tenant", "demo@keycred.io").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	tenant := &models.Tenant{Name: "Demo Tenant", Email: "demo@keycred.io"}
	require.NoError(t, repo.CreateTenant(tenant))
	assert.Equal(t, int64(1), tenant.ID)
	assert.Equal(t, now, tenant.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTenantByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.tenants")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}))

	_, err := repo.FindTenantByID(42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScoreRoundTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	score := &models.Score{
		TenantID:     1,
		ReceiptID:    2,
		KeycredScore: 890,
		MaxRentLimit: 26000,
		RiskLevel:    models.RiskLow,
		Approved:     true,
		Breakdown: []models.RuleScore{
			{Rule: "income_vs_rent", Points: 200},
			{Rule: "high_risk", Points: 0},
		},
		Profile: models.FinancialProfile{MonthlyIncome: 65000, CurrentBalance: 10000},
	}
	breakdownJSON, err := json.Marshal(score.Breakdown)
	require.NoError(t, err)
	profileJSON, err := json.Marshal(score.Profile)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO keycred.scores")).
		WithArgs(int64(1), int64(2), 890, 26000.0, models.RiskLow, true, breakdownJSON, profileJSON).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scored_at"}).AddRow(int64(7), now))
	require.NoError(t, repo.CreateScore(score))
	assert.Equal(t, int64(7), score.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.scores")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "receipt_id", "keycred_score", "max_rent_limit",
			"risk_level", "approved", "breakdown", "parameters", "scored_at",
		}).AddRow(int64(7), int64(1), int64(2), 890, 26000.0, models.RiskLow, true, breakdownJSON, profileJSON, now))

	loaded, err := repo.LatestScoreByTenant(1)
	require.NoError(t, err)
	assert.Equal(t, score.Breakdown, loaded.Breakdown)
	assert.Equal(t, score.Profile, loaded.Profile)
	assert.Equal(t, 890, loaded.KeycredScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireCertificates(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE keycred.certificates")).
		WithArgs(models.CertStatusExpired, models.CertStatusIssued, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpireCertificates(now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCertificateByCertID(t *testing.T) {
	repo, mock := newMockRepo(t)
	issued := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.certificates")).
		WithArgs("KC-AAAA1111").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "score_id", "cert_id", "verification_hash",
			"keycred_score", "tenant_name", "status", "issued_at", "expires_at",
		}).AddRow(int64(1), int64(1), int64(7), "KC-AAAA1111", "abc", 890, "Demo Tenant",
			models.CertStatusIssued, issued, issued.AddDate(0, 0, 90)))

	cert, err := repo.FindCertificateByCertID("KC-AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, "KC-AAAA1111", cert.CertID)
	assert.Equal(t, models.CertStatusIssued, cert.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
