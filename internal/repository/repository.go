package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keycred/keycred/internal/models"
)

// ErrNotFound marks lookups that matched no row
var ErrNotFound = errors.New("no matching row")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateTenant creates a new tenant in the database
func (r *Repository) CreateTenant(tenant *models.Tenant) error {
	query := `
		INSERT INTO keycred.tenants (name, email, created_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, tenant.Name, tenant.Email).
		Scan(&tenant.ID, &tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// FindTenantByID retrieves a tenant by ID
func (r *Repository) FindTenantByID(id int64) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, email, created_at
		FROM keycred.tenants
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&tenant.ID, &tenant.Name, &tenant.Email, &tenant.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tenant %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return tenant, nil
}

// CreateReceipt records an uploaded bank receipt
func (r *Repository) CreateReceipt(receipt *models.BankReceipt) error {
	query := `
		INSERT INTO keycred.bank_receipts (tenant_id, file_name, uploaded_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		RETURNING id, uploaded_at`
	err := r.db.QueryRow(query, receipt.TenantID, receipt.FileName).
		Scan(&receipt.ID, &receipt.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// CreateScore records a scoring event linking tenant and receipt.
// Breakdown and profile are stored as JSONB alongside the derived fields.
func (r *Repository) CreateScore(score *models.Score) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}
	parameters, err := json.Marshal(score.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	query := `
		INSERT INTO keycred.scores (tenant_id, receipt_id, keycred_score, max_rent_limit, risk_level, approved, breakdown, parameters, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id, scored_at`
	err = r.db.QueryRow(query, score.TenantID, score.ReceiptID, score.KeycredScore,
		score.MaxRentLimit, score.RiskLevel, score.Approved, breakdown, parameters).
		Scan(&score.ID, &score.ScoredAt)
	if err != nil {
		return fmt.Errorf("failed to create score: %w", err)
	}
	return nil
}

// LatestScoreByTenant retrieves the most recent score for a tenant
func (r *Repository) LatestScoreByTenant(tenantID int64) (*models.Score, error) {
	score := &models.Score{}
	var breakdown, parameters []byte
	query := `
		SELECT id, tenant_id, receipt_id, keycred_score, max_rent_limit, risk_level, approved, breakdown, parameters, scored_at
		FROM keycred.scores
		WHERE tenant_id = $1
		ORDER BY scored_at DESC
		LIMIT 1`
	err := r.db.QueryRow(query, tenantID).
		Scan(&score.ID, &score.TenantID, &score.ReceiptID, &score.KeycredScore,
			&score.MaxRentLimit, &score.RiskLevel, &score.Approved, &breakdown, &parameters, &score.ScoredAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("score for tenant %d: %w", tenantID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find score: %w", err)
	}
	if err := json.Unmarshal(breakdown, &score.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	if err := json.Unmarshal(parameters, &score.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return score, nil
}

// CreateCertificate records an issued certificate
func (r *Repository) CreateCertificate(cert *models.Certificate) error {
	query := `
		INSERT INTO keycred.certificates (tenant_id, score_id, cert_id, verification_hash, keycred_score, tenant_name, status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.db.QueryRow(query, cert.TenantID, cert.ScoreID, cert.CertID, cert.VerificationHash,
		cert.KeycredScore, cert.TenantName, cert.Status, cert.IssuedAt, cert.ExpiresAt).
		Scan(&cert.ID)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	return nil
}

// FindCertificateByCertID retrieves a certificate by its display ID
func (r *Repository) FindCertificateByCertID(certID string) (*models.Certificate, error) {
	cert := &models.Certificate{}
	query := `
		SELECT id, tenant_id, score_id, cert_id, verification_hash, keycred_score, tenant_name, status, issued_at, expires_at
		FROM keycred.certificates
		WHERE cert_id = $1`
	err := r.db.QueryRow(query, certID).
		Scan(&cert.ID, &cert.TenantID, &cert.ScoreID, &cert.CertID, &cert.VerificationHash,
			&cert.KeycredScore, &cert.TenantName, &cert.Status, &cert.IssuedAt, &cert.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("certificate %s: %w", certID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find certificate: %w", err)
	}
	return cert, nil
}

// ExpireCertificates flips issued certificates past their expiry to
// expired and returns how many rows changed. Rows already expired or
// not yet due are untouched.
func (r *Repository) ExpireCertificates(now time.Time) (int64, error) {
	query := `
		UPDATE keycred.certificates
		SET status = $1
		WHERE status = $2 AND expires_at < $3`
	res, err := r.db.Exec(query, models.CertStatusExpired, models.CertStatusIssued, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire certificates: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired certificates: %w", err)
	}
	return n, nil
}
