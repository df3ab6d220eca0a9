package quote

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields maps every field to its extracted text or sentinel.
type Fields map[Field]string

// Selectors locates the page elements the extractor reads.
type Selectors struct {
	Name          string
	Price         string
	Change        string
	ChangePercent string
	Indicator     string
	DetailItem    string
	UpdatedAt     string
}

// DefaultSelectors matches the tw.stock.yahoo.com quote page markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Name:          `h1[class*="C($c-link-text) Fw(b) Fz(24px) Mend(8px)"]`,
		Price:         `span[class*="Fz(32px) Fw(b) Lh(1) Mend(16px) D(f) Ai(c)"]`,
		Change:        `span[class*="Fz(20px) Fw(b) Lh(1.2) Mend(4px) D(f) Ai(c)"]`,
		ChangePercent: `span[class*="Jc(fe) Fz(20px) Lh(1.2) Fw(b) D(f) Ai(c)"]`,
		Indicator:     `span[class~="Mend(4px)"][class~="Bds(s)"]`,
		DetailItem:    "li.price-detail-item",
		UpdatedAt:     "time",
	}
}

// detailLabels is the closed label vocabulary of the price detail list.
var detailLabels = map[string]Field{
	"昨收":  FieldPreviousClose,
	"總量":  FieldTotalVolume,
	"成交量": FieldTotalVolume,
	"昨量":  FieldPreviousVolume,
	"開盤":  FieldOpen,
	"最高":  FieldHigh,
	"均價":  FieldAverage,
	"最低":  FieldLow,
	"漲跌":  FieldChange,
	"漲跌幅": FieldChangePercent,
}

// Extractor reads the raw field values of one quote page.
type Extractor struct {
	sel Selectors
}

// NewExtractor creates an extractor using sel.
func NewExtractor(sel Selectors) *Extractor {
	return &Extractor{sel: sel}
}

// Extract returns a value for every field. Values are unsigned; see SignResolver.
func (e *Extractor) Extract(doc *goquery.Document, symbol string) Fields {
	fields := make(Fields, len(AllFields))

	fields.setOnce(FieldName, firstText(doc.Selection, e.sel.Name))
	fields.setOnce(FieldPrice, firstText(doc.Selection, e.sel.Price))

	doc.Find(e.sel.DetailItem).Each(func(i int, s *goquery.Selection) {
		spans := s.Find("span")
		if spans.Length() < 2 {
			return
		}
		label := strings.TrimSpace(spans.Eq(0).Text())
		value := strings.TrimSpace(spans.Eq(1).Text())

		if field, ok := detailLabels[label]; ok {
			fields.setOnce(field, value)
		}
	})

	// Headline markers stand in when the detail list has no change rows.
	fields.setOnce(FieldChange, firstText(doc.Selection, e.sel.Change))
	fields.setOnce(FieldChangePercent, firstText(doc.Selection, e.sel.ChangePercent))

	fields.setOnce(FieldUpdatedAt, firstText(doc.Selection, e.sel.UpdatedAt))

	for _, f := range AllFields {
		if _, ok := fields[f]; !ok {
			fields[f] = Sentinel(f)
		}
	}
	fields[FieldSymbol] = symbol

	return fields
}

// setOnce keeps the first non-empty value seen for f.
func (f Fields) setOnce(field Field, value string) {
	if value == "" {
		return
	}
	if _, ok := f[field]; ok {
		return
	}
	f[field] = value
}

func firstText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	if node := s.Find(selector).First(); node.Length() > 0 {
		return strings.TrimSpace(node.Text())
	}
	return ""
}
