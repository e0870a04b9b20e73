package email

import (
	"bytes"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/keycred/keycred/internal/config"
	"github.com/keycred/keycred/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendCertificate delivers an issued certificate PDF to the tenant
func (s *Sender) SendCertificate(to string, doc models.CertificateDocument, pdf []byte) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Your KeyCred Certificate %s", doc.CertID)

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Congratulations! Your KeyCred creditworthiness certificate is attached.\n\n"+
			"Certificate ID: %s\n"+
			"KeyCred Score: %d / 1000\n"+
			"Valid until: %s\n"+
			"Verification code: %s\n\n"+
			"A landlord can confirm authenticity by scanning the QR code on the document.\n",
		doc.TenantName, doc.CertID, doc.KeycredScore,
		doc.ExpiresAt.Format("2006-01-02"), doc.VerificationHash,
	)
	body += "\nBest regards,\nKeyCred"
	e.Text = []byte(body)

	filename := fmt.Sprintf("keycred-certificate-%s.pdf", doc.CertID)
	if _, err := e.Attach(bytes.NewReader(pdf), filename, "application/pdf"); err != nil {
		return fmt.Errorf("failed to attach certificate: %w", err)
	}

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send certificate %s to %s: %v", doc.CertID, to, err)
		return fmt.Errorf("failed to send certificate email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
