// Package report prints the human-readable run summary to the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"stockcrawler/quote"
	"stockcrawler/table"
)

const cellWidth = 10

// Printer writes an aligned table of quote rows.
type Printer struct {
	w      io.Writer
	schema quote.Schema
}

// NewPrinter creates a printer for rows of schema.
func NewPrinter(w io.Writer, schema quote.Schema) *Printer {
	return &Printer{w: w, schema: schema}
}

// Header prints the column headers and a separator line.
func (p *Printer) Header() {
	line := p.line(p.schema.Headers())
	fmt.Fprintln(p.w, line)
	fmt.Fprintln(p.w, strings.Repeat("=", runewidth.StringWidth(line)))
}

// Row prints one row.
func (p *Printer) Row(row quote.Row) {
	fmt.Fprintln(p.w, p.line(row))
}

// Status prints the closing line of a run.
func (p *Printer) Status(res table.Result, failed []string) {
	fmt.Fprintln(p.w)
	switch res.Outcome {
	case table.Created:
		fmt.Fprintf(p.w, "✅ 股票數據已成功寫入 %s！(%d 筆)\n", res.Path, res.Rows)
	case table.Appended:
		fmt.Fprintf(p.w, "✅ 股票數據已成功追加到 %s！(%d 筆)\n", res.Path, res.Rows)
	default:
		fmt.Fprintf(p.w, "⚠️ 沒有資料寫入 %s\n", res.Path)
	}
	if len(failed) > 0 {
		fmt.Fprintf(p.w, "❌ 無法取得: %s\n", strings.Join(failed, ", "))
	}
}

// line pads every cell but the last to a fixed display width.
func (p *Printer) line(cells []string) string {
	var b strings.Builder
	for i, c := range cells {
		if i == len(cells)-1 {
			b.WriteString(c)
			break
		}
		width := cellWidth
		if p.schema.Columns[i].Field == quote.FieldSymbol {
			width = 6
		}
		b.WriteString(runewidth.FillRight(c, width))
		b.WriteString(" ")
	}
	return b.String()
}
