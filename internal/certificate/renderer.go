package certificate

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/keycred/keycred/internal/models"
	"github.com/keycred/keycred/internal/scoring"
)

// A4 page size in mm
const (
	pageW = 210.0
	pageH = 297.0
)

// Palette matching the frontend dark theme
type rgb struct{ r, g, b int }

var (
	colDarkBG      = rgb{10, 14, 26}    // #0a0e1a
	colCardBG      = rgb{17, 24, 39}    // #111827
	colAccent      = rgb{99, 102, 241}  // #6366f1
	colAccentLight = rgb{129, 140, 248} // #818cf8
	colGreen       = rgb{52, 211, 153}  // #34d399
	colGold        = rgb{251, 191, 36}  // #fbbf24
	colRed         = rgb{248, 113, 113} // #f87171
	colTextPrimary = rgb{241, 245, 249} // #f1f5f9
	colTextMuted   = rgb{148, 163, 184} // #94a3b8
	colBorder      = rgb{30, 41, 59}    // #1e293b
	colWatermark   = rgb{26, 31, 54}    // #1a1f36
	colRowBG       = rgb{15, 23, 41}    // #0f1729
)

func riskColor(riskLevel string) rgb {
	switch riskLevel {
	case models.RiskLow:
		return colGreen
	case models.RiskMedium:
		return colGold
	case models.RiskHigh:
		return colRed
	default:
		return colTextMuted
	}
}

// Renderer composes certificate documents into single-page A4 PDFs.
// Stateless and safe for concurrent use.
type Renderer struct {
	logoPath string
}

// NewRenderer creates a renderer. logoPath may point at a PNG logo; an
// absent file is skipped, not an error.
func NewRenderer(logoPath string) *Renderer {
	return &Renderer{logoPath: logoPath}
}

// Render lays out the certificate and serializes it to PDF bytes. Any
// composition failure surfaces as an error with no partial output.
func (rd *Renderer) Render(doc models.CertificateDocument) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()

	drawBackground(pdf)
	drawWatermark(pdf)
	drawBorder(pdf)

	y := 35.0
	y = rd.drawLogo(pdf, y)
	y = drawTitle(pdf, y)
	y = drawMeta(pdf, doc, y)
	y = drawTenantName(pdf, doc.TenantName, y)
	y = drawScoreMedallion(pdf, doc, y)
	y = drawRiskBadge(pdf, doc.RiskLevel, y)
	y = drawMetrics(pdf, doc, y)
	y = drawBreakdown(pdf, doc.Breakdown, y)
	if err := drawVerification(pdf, doc, y); err != nil {
		return nil, err
	}
	drawFooter(pdf, doc)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate %s: %w", doc.CertID, err)
	}
	return buf.Bytes(), nil
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }

func centeredText(pdf *fpdf.Fpdf, y float64, s string) {
	pdf.Text((pageW-pdf.GetStringWidth(s))/2, y, s)
}

func rightText(pdf *fpdf.Fpdf, xRight, y float64, s string) {
	pdf.Text(xRight-pdf.GetStringWidth(s), y, s)
}

func drawBackground(pdf *fpdf.Fpdf) {
	setFill(pdf, colDarkBG)
	pdf.Rect(0, 0, pageW, pageH, "F")
}

// drawWatermark tiles faint diagonal repeating text across the page.
func drawWatermark(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colWatermark)
	pdf.TransformBegin()
	pdf.TransformRotate(35, pageW/2, pageH/2)
	for x := -100.0; x < 320.0; x += 64 {
		for y := -150.0; y < 450.0; y += 22 {
			pdf.Text(x, y, "KEYCRED VERIFIED")
		}
	}
	pdf.TransformEnd()
}

// drawBorder draws the ornamental double border.
func drawBorder(pdf *fpdf.Fpdf) {
	setDraw(pdf, colAccent)
	pdf.SetLineWidth(0.7)
	pdf.RoundedRect(12, 12, pageW-24, pageH-24, 8, "1234", "D")
	setDraw(pdf, colBorder)
	pdf.SetLineWidth(0.2)
	pdf.RoundedRect(15, 15, pageW-30, pageH-30, 6, "1234", "D")
}

// drawLogo places the optional branding logo. A missing file is skipped.
func (rd *Renderer) drawLogo(pdf *fpdf.Fpdf, y float64) float64 {
	if rd.logoPath == "" {
		return y
	}
	if _, err := os.Stat(rd.logoPath); err != nil {
		return y
	}
	const logoSize = 22.0
	pdf.ImageOptions(rd.logoPath, (pageW-logoSize)/2, y-15, logoSize, logoSize, false,
		fpdf.ImageOptions{ReadDpi: true}, 0, "")
	return y + 14
}

func drawTitle(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 26)
	setText(pdf, colTextPrimary)
	centeredText(pdf, y, "KEYCRED")
	y += 8

	pdf.SetFont("Helvetica", "", 11)
	setText(pdf, colAccentLight)
	centeredText(pdf, y, "TENANT CREDITWORTHINESS CERTIFICATE")
	y += 5

	pdf.SetFont("Helvetica", "I", 8)
	setText(pdf, colTextMuted)
	centeredText(pdf, y, "Because trust is priceless")
	y += 10

	setDraw(pdf, colAccent)
	pdf.SetLineWidth(0.3)
	pdf.Line(30, y, pageW-30, y)
	return y + 10
}

func drawMeta(pdf *fpdf.Fpdf, doc models.CertificateDocument, y float64) float64 {
	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colTextMuted)
	pdf.Text(22, y, fmt.Sprintf("Certificate ID: %s", doc.CertID))
	rightText(pdf, pageW-22, y, fmt.Sprintf("Verification: %s", doc.VerificationHash))
	return y + 12
}

func drawTenantName(pdf *fpdf.Fpdf, name string, y float64) float64 {
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colTextMuted)
	centeredText(pdf, y, "This certificate is issued to")
	y += 10

	pdf.SetFont("Helvetica", "B", 22)
	setText(pdf, colTextPrimary)
	centeredText(pdf, y, strings.ToUpper(name))
	return y + 14
}

func drawScoreMedallion(pdf *fpdf.Fpdf, doc models.CertificateDocument, y float64) float64 {
	c := riskColor(doc.RiskLevel)
	cx, cy := pageW/2, y+18.0

	setFill(pdf, colCardBG)
	pdf.Circle(cx, cy, 22, "F")
	setDraw(pdf, c)
	pdf.SetLineWidth(1.0)
	pdf.Circle(cx, cy, 22, "D")

	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, colTextMuted)
	centeredText(pdf, cy-14, "KEYCRED SCORE")

	pdf.SetFont("Helvetica", "B", 32)
	setText(pdf, c)
	centeredText(pdf, cy+4, fmt.Sprintf("%d", doc.KeycredScore))

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colTextMuted)
	centeredText(pdf, cy+10, fmt.Sprintf("/ %d", scoring.MaxScore))

	return cy + 30
}

func drawRiskBadge(pdf *fpdf.Fpdf, riskLevel string, y float64) float64 {
	c := riskColor(riskLevel)
	text := fmt.Sprintf("Risk Level: %s", riskLevel)

	pdf.SetFont("Helvetica", "B", 10)
	tw := pdf.GetStringWidth(text)
	badgeW := tw + 16

	setDraw(pdf, c)
	pdf.SetLineWidth(0.3)
	pdf.RoundedRect((pageW-badgeW)/2, y-5.5, badgeW, 8, 3, "1234", "D")
	setText(pdf, c)
	centeredText(pdf, y, text)
	return y + 14
}

func drawMetrics(pdf *fpdf.Fpdf, doc models.CertificateDocument, y float64) float64 {
	metrics := []struct{ label, value string }{
		{"Max Rent Limit", "TRY " + formatAmount(doc.MaxRentLimit)},
		{"Monthly Income", "TRY " + formatAmount(doc.Profile.MonthlyIncome)},
		{"Current Balance", "TRY " + formatAmount(doc.Profile.CurrentBalance)},
		{"CC Repayment Ratio", fmt.Sprintf("%.0f%%", doc.Profile.CCRepaymentRatio*100)},
		{"Utility Bills Paid", fmt.Sprintf("%d / 3", doc.Profile.UtilityBillsPaid)},
		{"Valid Until", doc.ExpiresAt.Format("02 January 2006")},
	}

	const (
		tableX = 30.0
		tableW = pageW - 60.0
		rowH   = 8.0
	)

	for i, m := range metrics {
		rowY := y + float64(i)*rowH
		if i%2 == 0 {
			setFill(pdf, colRowBG)
			pdf.Rect(tableX, rowY-5, tableW, rowH, "F")
		}
		pdf.SetFont("Helvetica", "", 9)
		setText(pdf, colTextMuted)
		pdf.Text(tableX+4, rowY, m.label)

		pdf.SetFont("Helvetica", "B", 9)
		setText(pdf, colTextPrimary)
		rightText(pdf, tableX+tableW-4, rowY, m.value)
	}

	return y + float64(len(metrics))*rowH + 6
}

func drawBreakdown(pdf *fpdf.Fpdf, breakdown []models.RuleScore, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, colAccentLight)
	pdf.Text(30, y, "SCORE BREAKDOWN")
	y += 6

	const (
		col1X = 30.0
		rowH  = 6.0
	)
	col2X := pageW/2 + 5

	for i, rs := range breakdown {
		colX := col1X
		if i >= 4 {
			colX = col2X
		}
		rowY := y + float64(i%4)*rowH

		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, colTextMuted)
		pdf.Text(colX, rowY, ruleLabel(rs.Rule))

		pts := fmt.Sprintf("%+d", rs.Points)
		pdf.SetFont("Helvetica", "B", 8)
		switch {
		case rs.Points > 0:
			setText(pdf, colGreen)
		case rs.Points < 0:
			setText(pdf, colRed)
		default:
			setText(pdf, colTextMuted)
		}
		pdf.Text(colX+38, rowY, pts)
	}

	return y + 4*rowH + 4
}

// drawVerification places the QR code next to the anti-fraud notice.
func drawVerification(pdf *fpdf.Fpdf, doc models.CertificateDocument, y float64) error {
	const qrSize = 28.0
	qrX := 30.0

	q, err := qrcode.New(doc.QRPayload, qrcode.High)
	if err != nil {
		return fmt.Errorf("failed to build QR code for %s: %w", doc.CertID, err)
	}
	q.ForegroundColor = color.RGBA{R: 99, G: 102, B: 241, A: 255}
	q.BackgroundColor = color.RGBA{R: 17, G: 24, B: 39, A: 255}
	png, err := q.PNG(256)
	if err != nil {
		return fmt.Errorf("failed to encode QR code for %s: %w", doc.CertID, err)
	}

	name := "qr-" + doc.CertID
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(name, qrX, y, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := qrX + qrSize + 8
	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, colAccent)
	pdf.Text(textX, y+4, "Protected Against Fraud")

	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, colTextMuted)
	notices := []string{
		"This certificate is digitally signed by KeyCred.",
		fmt.Sprintf("Verification code: %s", doc.VerificationHash),
		"Scan the QR code to confirm this certificate is genuine.",
		fmt.Sprintf("Validity: %s - %s (%d days)",
			doc.IssuedAt.Format("02.01.2006"), doc.ExpiresAt.Format("02.01.2006"), validityDays),
	}
	for i, line := range notices {
		pdf.Text(textX, y+10+float64(i)*4, line)
	}
	return nil
}

func drawFooter(pdf *fpdf.Fpdf, doc models.CertificateDocument) {
	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, colTextMuted)
	centeredText(pdf, pageH-18,
		fmt.Sprintf("KeyCred - Because trust is priceless - Issued %s", doc.IssuedAt.Format("02 January 2006 15:04 UTC")))

	pdf.SetFont("Helvetica", "", 6)
	setText(pdf, colBorder)
	centeredText(pdf, pageH-14,
		"This document is generated for demonstration purposes only. KeyCred MVP (c) 2026")
}

func ruleLabel(rule string) string {
	switch rule {
	case scoring.RuleIncomeVsRent:
		return "Income vs Rent"
	case scoring.RuleBalance:
		return "Balance"
	case scoring.RuleSupportIncome:
		return "Support Income"
	case scoring.RuleUtilityBills:
		return "Utility Bills"
	case scoring.RuleCCRepayment:
		return "CC Repayment"
	case scoring.RuleOverdraft:
		return "Overdraft"
	case scoring.RuleCashAdvance:
		return "Cash Advance"
	case scoring.RuleHighRisk:
		return "High Risk"
	default:
		return rule
	}
}

// formatAmount renders a currency amount with thousands separators and
// two decimals, e.g. 26000 -> "26,000.00".
func formatAmount(v float64) string {
	neg := math.Signbit(v)
	v = math.Abs(v)

	whole := int64(v)
	frac := int64(math.Round((v - float64(whole)) * 100))
	if frac == 100 {
		whole++
		frac = 0
	}

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("%s.%02d", b.String(), frac)
}
