package quote

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const (
	nameHTML  = `<h1 class="C($c-link-text) Fw(b) Fz(24px) Mend(8px)">台積電</h1>`
	priceHTML = `<span class="Fz(32px) Fw(b) Lh(1) Mend(16px) D(f) Ai(c) C($c-trend-up)">1015</span>`
	timeHTML  = `<time datetime="2025-03-04T13:30:00+08:00">2025/03/04 13:30 收盤</time>`
)

func arrowHTML(color string) string {
	return fmt.Sprintf(`<span class="Mend(4px) Bds(s)" style="border-color:%s transparent transparent transparent"></span>`, color)
}

func detailHTML(pairs ...string) string {
	var b strings.Builder
	b.WriteString(`<ul>`)
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, `<li class="price-detail-item"><span class="C(#232a31)">%s</span><span class="Fw(600)"> %s </span></li>`, pairs[i], pairs[i+1])
	}
	b.WriteString(`</ul>`)
	return b.String()
}

func parse(t *testing.T, body ...string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + strings.Join(body, "") + "</body></html>"))
	require.NoError(t, err)
	return doc
}

func fullDetails() string {
	return detailHTML(
		"成交價", "1015",
		"昨收", "1010",
		"開盤", "1012",
		"最高", "1020",
		"最低", "1005",
		"均價", "1013",
		"總量", "25,832",
		"昨量", "31,204",
		"漲跌", "5",
		"漲跌幅", "0.50%",
	)
}

func newBuilder(t *testing.T, v Variant, unmatched Sign) *Builder {
	t.Helper()
	schema, err := NewSchema(v)
	require.NoError(t, err)
	sel := DefaultSelectors()
	return NewBuilder(schema, NewExtractor(sel), NewSignResolver(sel.Indicator, unmatched))
}

func TestBuild_CompletePageHasNoSentinels(t *testing.T) {
	doc := parse(t, nameHTML, priceHTML, arrowHTML(ColorUp), fullDetails(), timeHTML)

	fields, row := newBuilder(t, VariantFull, SignNone).Build(doc, "2330")

	require.Len(t, row, 13)
	for _, f := range AllFields {
		require.Falsef(t, IsSentinel(f, fields[f]), "field %s is a sentinel: %q", f, fields[f])
	}
	require.Equal(t, Row{
		"台積電", "2330", "1015", "+5", "+0.50%", "1010", "25,832", "31,204",
		"1012", "1020", "1013", "1005", "2025/03/04 13:30 收盤",
	}, row)
}

func TestBuild_MissingPriceOnlyAffectsPrice(t *testing.T) {
	b := newBuilder(t, VariantFull, SignNone)
	_, withPrice := b.Build(parse(t, nameHTML, priceHTML, arrowHTML(ColorDown), fullDetails(), timeHTML), "2330")
	fields, without := b.Build(parse(t, nameHTML, arrowHTML(ColorDown), fullDetails(), timeHTML), "2330")

	require.Equal(t, PriceNotFound, fields[FieldPrice])
	for i, col := range b.Schema().Columns {
		if col.Field == FieldPrice {
			continue
		}
		require.Equalf(t, withPrice[i], without[i], "column %s changed", col.Header)
	}
}

func TestBuild_RisingChange(t *testing.T) {
	doc := parse(t, priceHTML, arrowHTML("#ff333a"), detailHTML("漲跌", "5"))

	fields, _ := newBuilder(t, VariantFull, SignNone).Build(doc, "2330")

	require.Equal(t, "+5", fields[FieldChange])
	require.Equal(t, "1015", fields[FieldPrice])
}

func TestBuild_EmptyPageIsAllSentinels(t *testing.T) {
	b := newBuilder(t, VariantFull, SignUp)

	_, row := b.Build(parse(t, "<p>nothing here</p>"), "9999")

	require.Len(t, row, b.Schema().Width())
	for i, col := range b.Schema().Columns {
		if col.Field == FieldSymbol {
			require.Equal(t, "9999", row[i])
			continue
		}
		require.Equal(t, Sentinel(col.Field), row[i])
	}
}

func TestBuild_MinimalVariant(t *testing.T) {
	doc := parse(t, nameHTML, priceHTML, arrowHTML(ColorDown), fullDetails(), timeHTML)

	_, row := newBuilder(t, VariantMinimal, SignNone).Build(doc, "2330")

	require.Equal(t, Row{"台積電", "2330", "1015", "-5", "-0.50%", "2025/03/04 13:30 收盤"}, row)
}

func TestExtract_TotalVolumeSynonyms(t *testing.T) {
	e := NewExtractor(DefaultSelectors())

	tests := []struct {
		name string
		html string
		want string
	}{
		{"volume label only", detailHTML("成交量", "18,004"), "18,004"},
		{"total volume first", detailHTML("總量", "25,832", "成交量", "18,004"), "25,832"},
		{"volume first", detailHTML("成交量", "18,004", "總量", "25,832"), "18,004"},
		{"neither label", detailHTML("昨收", "1010"), TotalVolumeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := e.Extract(parse(t, tt.html), "2330")
			require.Equal(t, tt.want, fields[FieldTotalVolume])
		})
	}
}

func TestExtract_IgnoresUnknownAndPartialLabels(t *testing.T) {
	html := detailHTML("開盤價", "1", " 開盤 ", "1012", "最高(52週)", "1100") +
		`<ul><li class="price-detail-item"><span>最低</span></li></ul>`

	fields := NewExtractor(DefaultSelectors()).Extract(parse(t, html), "2330")

	require.Equal(t, "1012", fields[FieldOpen])
	require.Equal(t, DetailNotFound, fields[FieldHigh])
	require.Equal(t, DetailNotFound, fields[FieldLow])
}

func TestExtract_HeadlineChangeFallback(t *testing.T) {
	html := `<span class="Fz(20px) Fw(b) Lh(1.2) Mend(4px) D(f) Ai(c) C($c-trend-down)">15</span>` +
		`<span class="Jc(fe) Fz(20px) Lh(1.2) Fw(b) D(f) Ai(c) C($c-trend-down)">(1.46%)</span>`

	fields := NewExtractor(DefaultSelectors()).Extract(parse(t, html), "2317")

	require.Equal(t, "15", fields[FieldChange])
	require.Equal(t, "(1.46%)", fields[FieldChangePercent])
}

func TestExtract_BlankValueCountsAsAbsent(t *testing.T) {
	e := NewExtractor(DefaultSelectors())

	fields := e.Extract(parse(t, detailHTML("昨收", " ")), "2330")
	require.Equal(t, DetailNotFound, fields[FieldPreviousClose])

	fields = e.Extract(parse(t, detailHTML("昨收", "  ", "昨收", "1010")), "2330")
	require.Equal(t, "1010", fields[FieldPreviousClose])
}

func TestExtract_DetailChangeBeatsHeadline(t *testing.T) {
	html := detailHTML("漲跌", "5", "漲跌幅", "0.50%") +
		`<span class="Fz(20px) Fw(b) Lh(1.2) Mend(4px) D(f) Ai(c) C($c-trend-up)">15</span>` +
		`<span class="Jc(fe) Fz(20px) Lh(1.2) Fw(b) D(f) Ai(c) C($c-trend-up)">(1.46%)</span>`

	fields := NewExtractor(DefaultSelectors()).Extract(parse(t, html), "2330")

	require.Equal(t, "5", fields[FieldChange])
	require.Equal(t, "0.50%", fields[FieldChangePercent])
}

func TestSignResolver(t *testing.T) {
	sel := DefaultSelectors()

	tests := []struct {
		name      string
		html      string
		unmatched Sign
		want      Sign
	}{
		{"down", arrowHTML(ColorDown), SignNone, SignDown},
		{"up upper case", arrowHTML("#FF333A"), SignNone, SignUp},
		{"unmatched default", arrowHTML("#888"), SignNone, SignNone},
		{"unmatched configured", arrowHTML("#888"), SignUp, SignUp},
		{"no indicator", "<span>flat</span>", SignUp, SignNone},
		{"no style", `<span class="Mend(4px) Bds(s)"></span>`, SignUp, SignNone},
		{"no border colour", `<span class="Mend(4px) Bds(s)" style="border-width:5px"></span>`, SignUp, SignNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSignResolver(sel.Indicator, tt.unmatched)
			require.Equal(t, tt.want, r.Resolve(parse(t, tt.html)))
		})
	}
}

func TestApplySign(t *testing.T) {
	require.Equal(t, "+5", ApplySign(SignUp, FieldChange, "5"))
	require.Equal(t, "+5", ApplySign(SignUp, FieldChange, ApplySign(SignUp, FieldChange, "5")))
	require.Equal(t, "-5", ApplySign(SignUp, FieldChange, "-5"))
	require.Equal(t, "5", ApplySign(SignNone, FieldChange, "5"))
	require.Equal(t, "", ApplySign(SignDown, FieldChange, ""))
	require.Equal(t, ChangeNotFound, ApplySign(SignDown, FieldChange, ChangeNotFound))
	require.Equal(t, ChangePercentNotFound, ApplySign(SignDown, FieldChangePercent, ChangePercentNotFound))
}

func TestNewSchema_UnknownVariant(t *testing.T) {
	_, err := NewSchema("wide")
	require.Error(t, err)
}
