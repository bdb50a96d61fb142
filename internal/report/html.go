package report

import (
	"context"
	"io"

	"github.com/DukeRupert/readyhire/internal/history"
)

// HTMLGenerator renders the standalone HTML report.
type HTMLGenerator struct{}

// NewHTMLGenerator creates a new HTML generator.
func NewHTMLGenerator() *HTMLGenerator {
	return &HTMLGenerator{}
}

// Format returns the output format of this generator.
func (g *HTMLGenerator) Format() Format {
	return FormatHTML
}

// Generate writes the HTML report to w.
func (g *HTMLGenerator) Generate(ctx context.Context, data history.ReportData, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	err := history.Export(cw, data)
	return cw.n, err
}
