package certificate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keycred/keycred/internal/models"
	"github.com/keycred/keycred/internal/scoring"
)

const (
	certIDPrefix   = "KC-"
	certIDHexLen   = 8
	hashDisplayLen = 24
	validityDays   = 90
)

// NotEligibleError is returned when issuance is requested for a
// non-approved score. A client-facing rejection, not a system fault.
type NotEligibleError struct {
	Score     int
	Threshold int
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible for certificate: score %d below approval threshold %d", e.Score, e.Threshold)
}

// Issuer mints certificate documents for approved tenants. Stateless
// except for the clock, which tests may pin.
type Issuer struct {
	verifyBaseURL string
	now           func() time.Time
}

// NewIssuer creates an issuer building QR payloads against verifyBaseURL.
func NewIssuer(verifyBaseURL string) *Issuer {
	return &Issuer{verifyBaseURL: verifyBaseURL, now: time.Now}
}

// Issue mints a certificate identity for an approved score and assembles
// the renderer-ready document. No side effects; persistence is the
// caller's concern. Two calls for the same score yield two identities.
func (i *Issuer) Issue(tenantName string, result models.ScoreResult) (models.CertificateDocument, error) {
	if !result.Approved {
		return models.CertificateDocument{}, &NotEligibleError{Score: result.Total, Threshold: scoring.ApprovalThreshold}
	}

	certID := newCertID()
	issuedAt := i.now().UTC()
	hash := VerificationCode(certID, result.Total, tenantName, issuedAt)

	return models.CertificateDocument{
		CertID:           certID,
		VerificationHash: hash,
		TenantName:       tenantName,
		KeycredScore:     result.Total,
		MaxRentLimit:     result.MaxRentLimit,
		RiskLevel:        result.RiskLevel,
		Breakdown:        result.Breakdown,
		Profile:          result.Profile,
		QRPayload:        fmt.Sprintf("%s?id=%s&hash=%s&score=%d", i.verifyBaseURL, certID, hash, result.Total),
		IssuedAt:         issuedAt,
		ExpiresAt:        issuedAt.AddDate(0, 0, validityDays),
	}, nil
}

// VerificationCode computes the anti-fraud digest for a certificate:
// SHA-256 over "certID:score:tenantName:YYYY-MM-DD" (issue date in UTC),
// hex-encoded and truncated to 24 characters. An independent verifier
// holding the same four inputs reproduces it byte for byte.
func VerificationCode(certID string, score int, tenantName string, issuedAt time.Time) string {
	payload := fmt.Sprintf("%s:%d:%s:%s", certID, score, tenantName, issuedAt.UTC().Format("2006-01-02"))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:hashDisplayLen]
}

// newCertID mints a display-friendly certificate ID. Uniqueness is
// best-effort via UUID entropy; no registry is consulted.
func newCertID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return certIDPrefix + strings.ToUpper(raw[:certIDHexLen])
}
