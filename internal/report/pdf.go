package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/history"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator generates the progress report as a PDF.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	// Content area
	contentWidth float64
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

// Generate creates a PDF report and writes it to the provided writer.
func (g *PDFGenerator) Generate(ctx context.Context, data history.ReportData, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("ReadyHire Progress Report", true)
	if data.Profile != nil && data.Profile.Name != "" {
		pdf.SetAuthor(data.Profile.Name, true)
	}
	pdf.SetCreator("ReadyHire", true)
	pdf.SetAutoPageBreak(true, 20)

	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, data)
	})

	g.addHeader(pdf, data)
	g.addSessions(pdf, data.Sessions)
	if len(data.WeakAreas) > 0 {
		g.addWeakAreas(pdf, data.WeakAreas)
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}
	return buf.WriteTo(w)
}

// =============================================================================
// Header
// =============================================================================

func (g *PDFGenerator) addHeader(pdf *fpdf.Fpdf, data history.ReportData) {
	pdf.AddPage()

	r, gr, b := HexToRGB(BrandColors.Indigo)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 50, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetXY(g.margin, 16)
	pdf.Cell(0, 12, "ReadyHire Progress Report")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(g.margin, 32)
	pdf.Cell(0, 8, FormatDate(data.Generated))

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetXY(g.margin, 62)

	// Readiness box
	r, gr, b = HexToRGB(ScoreColor(data.Readiness))
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(1.2)
	pdf.Rect(g.margin, 60, 40, 30, "D")
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(g.margin, 64)
	pdf.CellFormat(40, 12, strconv.Itoa(data.Readiness), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(g.margin, 78)
	pdf.CellFormat(40, 6, "READINESS", "", 0, "C", false, 0, "")

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetXY(g.margin+50, 62)
	labelX := g.margin + 50
	if p := data.Profile; p != nil {
		g.addLabelValue(pdf, labelX, "Name", p.Name)
		g.addLabelValue(pdf, labelX, "Current", joinRole(p.CurrentRole, p.CurrentCompany))
		g.addLabelValue(pdf, labelX, "Target", joinRole(p.TargetRole, p.TargetCompany))
	}
	if data.Streak > 0 {
		g.addLabelValue(pdf, labelX, "Streak", fmt.Sprintf("%d days", data.Streak))
	}

	pdf.SetY(100)
}

func joinRole(role, company string) string {
	switch {
	case role == "":
		return company
	case company == "":
		return role
	default:
		return role + " at " + company
	}
}

// =============================================================================
// Sessions
// =============================================================================

func (g *PDFGenerator) addSessions(pdf *fpdf.Fpdf, sessions []domain.SessionRecord) {
	g.addSectionHeader(pdf, "Sessions")

	dateW, scoreW := 28.0, 22.0
	topicW := g.contentWidth - dateW - scoreW

	r, gr, b := HexToRGB(BrandColors.Background)
	pdf.SetFillColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(dateW, 8, "Date", "B", 0, "L", true, 0, "")
	pdf.CellFormat(topicW, 8, "Topic", "B", 0, "L", true, 0, "")
	pdf.CellFormat(scoreW, 8, "Score", "B", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if len(sessions) == 0 {
		pdf.CellFormat(g.contentWidth, 8, "No sessions yet.", "", 1, "L", false, 0, "")
		return
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, s := range sessions {
		pdf.CellFormat(dateW, 7, s.Date.Format("02/01/2006"), "", 0, "L", false, 0, "")
		pdf.CellFormat(topicW, 7, tr(TruncateText(s.Title, 70)), "", 0, "L", false, 0, "")

		r, gr, b := HexToRGB(ScoreColor(s.Score))
		pdf.SetTextColor(r, gr, b)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(scoreW, 7, strconv.Itoa(s.Score), "", 1, "C", false, 0, "")

		r, gr, b = HexToRGB(BrandColors.TextDark)
		pdf.SetTextColor(r, gr, b)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Ln(6)
}

// =============================================================================
// Weak Areas
// =============================================================================

func (g *PDFGenerator) addWeakAreas(pdf *fpdf.Fpdf, areas []domain.WeakArea) {
	g.addSectionHeader(pdf, "Areas to review")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 10)
	for _, a := range areas {
		pdf.CellFormat(g.contentWidth-40, 7, tr(a.Area), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("missed %dx", a.Count), "", 1, "R", false, 0, "")
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	r, gr, b := HexToRGB(BrandColors.Indigo)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(6)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addLabelValue(pdf *fpdf.Fpdf, x float64, label, value string) {
	if value == "" {
		return
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(25, 6, label+":")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.pageWidth-g.margin-x-25, 6, tr(value), "", "L", false)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, data history.ReportData) {
	pdf.SetY(-15)

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)

	pdf.Cell(0, 10, "Generated: "+FormatDate(data.Generated))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}
