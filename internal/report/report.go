// Package report renders the practice progress report.
//
// This package defines a Generator interface implemented by HTMLGenerator and
// PDFGenerator, along with common helpers for formatting and styling reports
// in the ReadyHire brand style.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DukeRupert/readyhire/internal/history"
)

// =============================================================================
// Formats
// =============================================================================

// Format is an output format for the progress report.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name in any case. Empty means HTML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/html; charset=utf-8"
}

// Filename is the suggested name for a report generated at t.
func Filename(t time.Time, f Format) string {
	return "readyhire-report-" + t.Format("2006-01-02") + "." + string(f)
}

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for report generators.
type Generator interface {
	// Generate creates a report and writes it to the provided writer.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, data history.ReportData, w io.Writer) (int64, error)

	// Format returns the output format of this generator.
	Format() Format
}

// NewGenerator returns the generator for f.
func NewGenerator(f Format) (Generator, error) {
	switch f {
	case FormatHTML:
		return NewHTMLGenerator(), nil
	case FormatPDF:
		return NewPDFGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", f)
	}
}

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors defines the color palette for reports.
// These match the colours of the HTML report.
var BrandColors = struct {
	Indigo     string // Primary brand color
	TextDark   string // Primary text
	TextMuted  string // Secondary text
	Border     string // Borders and dividers
	Background string // Light background
	White      string // White
}{
	Indigo:     "#4F46E5",
	TextDark:   "#1F2937",
	TextMuted:  "#6B7280",
	Border:     "#E2E8F0",
	Background: "#F8FAFC",
	White:      "#FFFFFF",
}

// =============================================================================
// Score Bands
// =============================================================================

// PassMark is the score at which a session is shown as strong.
const PassMark = 70

// ScoreColor returns the display color for a 0-100 score.
func ScoreColor(score int) string {
	switch {
	case score >= PassMark:
		return "#10B981" // Emerald-500
	case score >= 50:
		return "#F59E0B" // Amber-500
	default:
		return "#DC2626" // Red-600
	}
}

// ScoreLabel returns a human-readable band for a score.
func ScoreLabel(score int) string {
	switch {
	case score >= PassMark:
		return "Strong"
	case score >= 50:
		return "Developing"
	default:
		return "Needs work"
	}
}

// =============================================================================
// Color Conversion Helpers
// =============================================================================

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}

	r = hexToDec(hex[0:2])
	g = hexToDec(hex[2:4])
	b = hexToDec(hex[4:6])
	return
}

// hexToDec converts a 2-character hex string to decimal.
func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Text Formatting Helpers
// =============================================================================

// TruncateText truncates text to at most maxLen runes, adding an ellipsis
// if needed.
func TruncateText(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatDate formats a date for display in reports.
func FormatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
