package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keycred/keycred/internal/certificate"
	"github.com/keycred/keycred/internal/config"
	"github.com/keycred/keycred/internal/models"
	"github.com/keycred/keycred/internal/repository"
	"github.com/keycred/keycred/internal/service"
)

const sampleStatement = `<?xml version="1.0" encoding="utf-8"?>
<statement>
  <summary>
    <monthlyIncome>65000</monthlyIncome>
    <currentBalance>10000</currentBalance>
  </summary>
  <indicators>
    <supportIncome>true</supportIncome>
    <utilityBillsPaid>3</utilityBillsPaid>
    <ccRepaymentRatio>0.9</ccRepaymentRatio>
    <overdraftUsed>false</overdraftUsed>
    <cashAdvanceReliance>false</cashAdvanceReliance>
    <highRiskTransactions>false</highRiskTransactions>
  </indicators>
</statement>`

func newTestRouter(t *testing.T) (*mux.Router, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{VerifyBaseURL: "https://keycred.io/verify"}
	svc := service.NewService(repository.NewRepository(db), logger, cfg)

	r := mux.NewRouter()
	NewHandler(svc).Routes(r)
	return r, mock
}

func expectTenant(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.tenants")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow(id, "Demo Tenant", "demo@keycred.io", time.Now()))
}

func scoreRows(approved bool, score int) *sqlmock.Rows {
	breakdown, _ := json.Marshal([]models.RuleScore{
		{Rule: "income_vs_rent", Points: 200},
		{Rule: "balance", Points: 0},
		{Rule: "support_income", Points: 100},
		{Rule: "utility_bills", Points: 90},
		{Rule: "cc_repayment", Points: 100},
		{Rule: "overdraft", Points: 0},
		{Rule: "cash_advance", Points: 0},
		{Rule: "high_risk", Points: 0},
	})
	profile, _ := json.Marshal(models.FinancialProfile{
		MonthlyIncome:    65000,
		CurrentBalance:   10000,
		HasSupportIncome: true,
		UtilityBillsPaid: 3,
		CCRepaymentRatio: 0.9,
	})
	risk := models.RiskLow
	if !approved {
		risk = models.RiskMedium
	}
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "receipt_id", "keycred_score", "max_rent_limit",
		"risk_level", "approved", "breakdown", "parameters", "scored_at",
	}).AddRow(int64(7), int64(1), int64(2), score, 26000.0, risk, approved, breakdown, profile, time.Now())
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadReceiptScoresStatement(t *testing.T) {
	router, mock := newTestRouter(t)

	expectTenant(mock, 1)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO keycred.bank_receipts")).
		WithArgs(int64(1), "statement.xml").
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow(int64(2), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO keycred.scores")).
		WithArgs(int64(1), int64(2), 890, 26000.0, models.RiskLow, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scored_at"}).AddRow(int64(7), time.Now()))

	body, contentType := multipartBody(t, "statement.xml", []byte(sampleStatement))
	req := httptest.NewRequest(http.MethodPost, "/api/upload-receipt/1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		KeycredScore int     `json:"keycred_score"`
		MaxRentLimit float64 `json:"max_rent_limit"`
		RiskLevel    string  `json:"risk_level"`
		Approved     bool    `json:"approved"`
		Status       string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 890, resp.KeycredScore)
	assert.Equal(t, 26000.0, resp.MaxRentLimit)
	assert.Equal(t, models.RiskLow, resp.RiskLevel)
	assert.True(t, resp.Approved)
	assert.Equal(t, "completed", resp.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadReceiptUnknownTenant(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.tenants")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}))

	body, contentType := multipartBody(t, "statement.xml", []byte(sampleStatement))
	req := httptest.NewRequest(http.MethodPost, "/api/upload-receipt/9", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCertificateIssuedForApprovedTenant(t *testing.T) {
	router, mock := newTestRouter(t)

	expectTenant(mock, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.scores")).
		WithArgs(int64(1)).
		WillReturnRows(scoreRows(true, 890))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO keycred.certificates")).
		WithArgs(int64(1), int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), 890, "Demo Tenant",
			models.CertStatusIssued, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	req := httptest.NewRequest(http.MethodGet, "/api/certificate/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="keycred-certificate-KC-[0-9A-F]{8}\.pdf"$`,
		rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRefusedWhenNotApproved(t *testing.T) {
	router, mock := newTestRouter(t)

	expectTenant(mock, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.scores")).
		WithArgs(int64(1)).
		WillReturnRows(scoreRows(false, 600))

	req := httptest.NewRequest(http.MethodGet, "/api/certificate/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not eligible")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCertificate(t *testing.T) {
	router, mock := newTestRouter(t)

	issued := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	hash := certificate.VerificationCode("KC-TEST1234", 890, "Demo Tenant", issued)

	certRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "tenant_id", "score_id", "cert_id", "verification_hash",
			"keycred_score", "tenant_name", "status", "issued_at", "expires_at",
		}).AddRow(int64(3), int64(1), int64(7), "KC-TEST1234", hash, 890, "Demo Tenant",
			models.CertStatusIssued, issued, issued.AddDate(0, 0, 90))
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.certificates")).
		WithArgs("KC-TEST1234").
		WillReturnRows(certRows())

	req := httptest.NewRequest(http.MethodGet, "/api/verify?id=KC-TEST1234&hash="+hash, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result service.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, "KC-TEST1234", result.CertID)

	// A tampered hash must not verify.
	mock.ExpectQuery(regexp.QuoteMeta("FROM keycred.certificates")).
		WithArgs("KC-TEST1234").
		WillReturnRows(certRows())

	req = httptest.NewRequest(http.MethodGet, "/api/verify?id=KC-TEST1234&hash=deadbeef", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTenantValidatesBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tenants", bytes.NewBufferString(`{"name":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
