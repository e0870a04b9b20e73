package models

import "time"

// Certificate statuses
const (
	CertStatusIssued  = "issued"
	CertStatusExpired = "expired"
)

// CertificateDocument is the renderer-ready description of an issued
// certificate. Assembled once by the issuer; consumed by the renderer.
type CertificateDocument struct {
	CertID           string           `json:"cert_id"`
	VerificationHash string           `json:"verification_hash"`
	TenantName       string           `json:"tenant_name"`
	KeycredScore     int              `json:"keycred_score"`
	MaxRentLimit     float64          `json:"max_rent_limit"`
	RiskLevel        string           `json:"risk_level"`
	Breakdown        []RuleScore      `json:"score_breakdown"`
	Profile          FinancialProfile `json:"parameters"`
	QRPayload        string           `json:"qr_payload"`
	IssuedAt         time.Time        `json:"issued_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
}

// Certificate represents a persisted certificate record, kept so the
// expiry sweep and the verification endpoint can find issued documents.
type Certificate struct {
	ID               int64     `json:"id"`
	TenantID         int64     `json:"tenant_id"`
	ScoreID          int64     `json:"score_id"`
	CertID           string    `json:"cert_id"`
	VerificationHash string    `json:"verification_hash"`
	KeycredScore     int       `json:"keycred_score"`
	TenantName       string    `json:"tenant_name"`
	Status           string    `json:"status"`
	IssuedAt         time.Time `json:"issued_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}
