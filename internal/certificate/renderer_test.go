package certificate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keycred/keycred/internal/models"
)

func issuedDoc(t *testing.T) models.CertificateDocument {
	t.Helper()
	doc, err := NewIssuer("https://keycred.io/verify").Issue("Demo Tenant", approvedResult())
	require.NoError(t, err)
	return doc
}

func TestRenderProducesPDF(t *testing.T) {
	pdf, err := NewRenderer("").Render(issuedDoc(t))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")), "output should be a PDF byte stream")
	assert.Greater(t, len(pdf), 2000, "a full certificate page should not be near-empty")
}

func TestRenderSkipsMissingLogo(t *testing.T) {
	pdf, err := NewRenderer("testdata/does-not-exist.png").Render(issuedDoc(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestRenderToleratesUnknownRiskLevel(t *testing.T) {
	doc := issuedDoc(t)
	doc.RiskLevel = "UNRATED"

	pdf, err := NewRenderer("").Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestRenderDistinctDocumentsDiffer(t *testing.T) {
	first, err := NewRenderer("").Render(issuedDoc(t))
	require.NoError(t, err)
	second, err := NewRenderer("").Render(issuedDoc(t))
	require.NoError(t, err)

	// Different certificate IDs and QR payloads must show up in the output.
	assert.NotEqual(t, first, second)
}

func TestRiskColorFallsBackToMuted(t *testing.T) {
	assert.Equal(t, colGreen, riskColor(models.RiskLow))
	assert.Equal(t, colGold, riskColor(models.RiskMedium))
	assert.Equal(t, colRed, riskColor(models.RiskHigh))
	assert.Equal(t, colTextMuted, riskColor("???"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "26,000.00", formatAmount(26000))
	assert.Equal(t, "1,234,567.89", formatAmount(1234567.89))
	assert.Equal(t, "0.00", formatAmount(0))
	assert.Equal(t, "999.99", formatAmount(999.99))
	assert.Equal(t, "-1,500.50", formatAmount(-1500.50))
}
