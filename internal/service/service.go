package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keycred/keycred/internal/certificate"
	"github.com/keycred/keycred/internal/config"
	"github.com/keycred/keycred/internal/models"
	"github.com/keycred/keycred/internal/profile"
	"github.com/keycred/keycred/internal/repository"
	"github.com/keycred/keycred/internal/scoring"
	"github.com/keycred/keycred/internal/utils/email"
)

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	log      *logrus.Logger
	config   *config.Config
	scorer   scoring.Scorer
	issuer   *certificate.Issuer
	renderer *certificate.Renderer
	mailer   *email.Sender
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		config:   cfg,
		scorer:   scoring.NewScorer(),
		issuer:   certificate.NewIssuer(cfg.VerifyBaseURL),
		renderer: certificate.NewRenderer(cfg.LogoPath),
		mailer:   email.NewSender(cfg, log),
	}
}

// CreateTenant registers a new tenant
func (s *Service) CreateTenant(name, emailAddr string) (*models.Tenant, error) {
	tenant := &models.Tenant{
		Name:  name,
		Email: emailAddr,
	}
	if err := s.repo.CreateTenant(tenant); err != nil {
		return nil, err
	}
	s.log.Infof("Tenant registered: %s", tenant.Email)
	return tenant, nil
}

// ScoreReceipt stores an uploaded receipt, extracts a financial profile
// from it and records the resulting score for the tenant.
func (s *Service) ScoreReceipt(tenantID int64, fileName string, data []byte) (*models.Score, error) {
	tenant, err := s.repo.FindTenantByID(tenantID)
	if err != nil {
		return nil, err
	}

	receipt := &models.BankReceipt{
		TenantID: tenant.ID,
		FileName: fileName,
	}
	if err := s.repo.CreateReceipt(receipt); err != nil {
		return nil, err
	}

	src := profile.Detect(data)
	prof, err := src.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract profile from receipt: %w", err)
	}

	result, err := s.scorer.Score(prof, scoring.DefaultTargetRent)
	if err != nil {
		return nil, err
	}

	score := &models.Score{
		TenantID:     tenant.ID,
		ReceiptID:    receipt.ID,
		KeycredScore: result.Total,
		MaxRentLimit: result.MaxRentLimit,
		RiskLevel:    result.RiskLevel,
		Approved:     result.Approved,
		Breakdown:    result.Breakdown,
		Profile:      result.Profile,
	}
	if err := s.repo.CreateScore(score); err != nil {
		return nil, err
	}

	s.log.Infof("Tenant %d scored %d (%s) from receipt %d", tenant.ID, score.KeycredScore, score.RiskLevel, receipt.ID)
	return score, nil
}

// LatestScore returns the most recent score for a tenant
func (s *Service) LatestScore(tenantID int64) (*models.Score, error) {
	if _, err := s.repo.FindTenantByID(tenantID); err != nil {
		return nil, err
	}
	return s.repo.LatestScoreByTenant(tenantID)
}

// IssueCertificate issues, renders and records a certificate for the
// tenant's latest score. The issuer refuses non-approved scores. Email
// delivery is best-effort and never fails the request.
func (s *Service) IssueCertificate(tenantID int64) (models.CertificateDocument, []byte, error) {
	tenant, err := s.repo.FindTenantByID(tenantID)
	if err != nil {
		return models.CertificateDocument{}, nil, err
	}

	score, err := s.repo.LatestScoreByTenant(tenantID)
	if err != nil {
		return models.CertificateDocument{}, nil, err
	}

	result := models.ScoreResult{
		TargetRent:   scoring.DefaultTargetRent,
		Total:        score.KeycredScore,
		Breakdown:    score.Breakdown,
		Approved:     score.Approved,
		RiskLevel:    score.RiskLevel,
		MaxRentLimit: score.MaxRentLimit,
		Profile:      score.Profile,
	}

	doc, err := s.issuer.Issue(tenant.Name, result)
	if err != nil {
		return models.CertificateDocument{}, nil, err
	}

	pdf, err := s.renderer.Render(doc)
	if err != nil {
		return models.CertificateDocument{}, nil, err
	}

	cert := &models.Certificate{
		TenantID:         tenant.ID,
		ScoreID:          score.ID,
		CertID:           doc.CertID,
		VerificationHash: doc.VerificationHash,
		KeycredScore:     doc.KeycredScore,
		TenantName:       doc.TenantName,
		Status:           models.CertStatusIssued,
		IssuedAt:         doc.IssuedAt,
		ExpiresAt:        doc.ExpiresAt,
	}
	if err := s.repo.CreateCertificate(cert); err != nil {
		return models.CertificateDocument{}, nil, err
	}

	if s.config.EmailEnabled() {
		if err := s.mailer.SendCertificate(tenant.Email, doc, pdf); err != nil {
			s.log.Warnf("Certificate %s issued but email delivery failed: %v", doc.CertID, err)
		}
	}

	s.log.Infof("Certificate %s issued to tenant %d (score %d)", doc.CertID, tenant.ID, doc.KeycredScore)
	return doc, pdf, nil
}

// VerificationResult is the outcome of checking a certificate
type VerificationResult struct {
	Valid     bool      `json:"valid"`
	CertID    string    `json:"cert_id"`
	Score     int       `json:"keycred_score,omitempty"`
	Status    string    `json:"status,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// VerifyCertificate recomputes the verification digest for a stored
// certificate and compares it against the presented hash.
func (s *Service) VerifyCertificate(certID, hash string) (*VerificationResult, error) {
	cert, err := s.repo.FindCertificateByCertID(certID)
	if err != nil {
		return nil, err
	}

	recomputed := certificate.VerificationCode(cert.CertID, cert.KeycredScore, cert.TenantName, cert.IssuedAt)
	valid := recomputed == hash &&
		recomputed == cert.VerificationHash &&
		cert.Status == models.CertStatusIssued

	return &VerificationResult{
		Valid:     valid,
		CertID:    cert.CertID,
		Score:     cert.KeycredScore,
		Status:    cert.Status,
		IssuedAt:  cert.IssuedAt,
		ExpiresAt: cert.ExpiresAt,
	}, nil
}

// ExpireCertificates sweeps issued certificates past their validity
// window. Invoked by the scheduler.
func (s *Service) ExpireCertificates() {
	n, err := s.repo.ExpireCertificates(time.Now().UTC())
	if err != nil {
		s.log.Errorf("Certificate expiry sweep failed: %v", err)
		return
	}
	if n > 0 {
		s.log.Infof("Certificate expiry sweep marked %d certificates expired", n)
	}
}
