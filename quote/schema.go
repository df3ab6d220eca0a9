// Package quote turns a Yahoo TW quote page into a fixed row of named fields.
package quote

import "fmt"

// Field identifies one column of a quote row.
type Field string

const (
	FieldName           Field = "name"
	FieldSymbol         Field = "symbol"
	FieldPrice          Field = "price"
	FieldChange         Field = "change"
	FieldChangePercent  Field = "change_percent"
	FieldPreviousClose  Field = "previous_close"
	FieldTotalVolume    Field = "total_volume"
	FieldPreviousVolume Field = "previous_volume"
	FieldOpen           Field = "open"
	FieldHigh           Field = "high"
	FieldAverage        Field = "average"
	FieldLow            Field = "low"
	FieldUpdatedAt      Field = "updated_at"
)

// AllFields lists every field the extractor fills, in full-schema order.
var AllFields = []Field{
	FieldName, FieldSymbol, FieldPrice, FieldChange, FieldChangePercent,
	FieldPreviousClose, FieldTotalVolume, FieldPreviousVolume,
	FieldOpen, FieldHigh, FieldAverage, FieldLow, FieldUpdatedAt,
}

// Placeholders written when a field is missing from the page.
const (
	NameNotFound          = "股票名稱未找到"
	PriceNotFound         = "股價未找到"
	ChangeNotFound        = "漲跌未找到"
	ChangePercentNotFound = "漲跌幅未找到"
	DetailNotFound        = "0"
	TotalVolumeNotFound   = "未找到"
	UpdatedAtNotFound     = "更新時間未找到"
)

// Sentinel returns the placeholder for a missing field. The symbol never has one.
func Sentinel(f Field) string {
	switch f {
	case FieldName:
		return NameNotFound
	case FieldPrice:
		return PriceNotFound
	case FieldChange:
		return ChangeNotFound
	case FieldChangePercent:
		return ChangePercentNotFound
	case FieldTotalVolume:
		return TotalVolumeNotFound
	case FieldUpdatedAt:
		return UpdatedAtNotFound
	case FieldSymbol:
		return ""
	default:
		return DetailNotFound
	}
}

// IsSentinel reports whether value is the placeholder for f.
func IsSentinel(f Field, value string) bool {
	if f == FieldSymbol {
		return false
	}
	return value == Sentinel(f)
}

// Variant selects one of the supported column sets.
type Variant string

const (
	VariantFull    Variant = "full"
	VariantMinimal Variant = "minimal"
)

// Column binds a field to its header text in the table.
type Column struct {
	Field  Field
	Header string
}

// Schema is the ordered column set every row of a table follows.
type Schema struct {
	Variant Variant
	Columns []Column
}

var fullColumns = []Column{
	{FieldName, "股票名稱"},
	{FieldSymbol, "股號"},
	{FieldPrice, "價格"},
	{FieldChange, "漲跌"},
	{FieldChangePercent, "漲跌幅"},
	{FieldPreviousClose, "昨日收盤"},
	{FieldTotalVolume, "總量"},
	{FieldPreviousVolume, "昨量"},
	{FieldOpen, "開盤價"},
	{FieldHigh, "最高價"},
	{FieldAverage, "均價"},
	{FieldLow, "最低價"},
	{FieldUpdatedAt, "最後更新時間"},
}

var minimalColumns = []Column{
	{FieldName, "股票名稱"},
	{FieldSymbol, "股號"},
	{FieldPrice, "價格"},
	{FieldChange, "漲跌"},
	{FieldChangePercent, "漲跌幅"},
	{FieldUpdatedAt, "最後更新時間"},
}

// NewSchema returns the column set for v.
func NewSchema(v Variant) (Schema, error) {
	var cols []Column
	switch v {
	case VariantFull:
		cols = fullColumns
	case VariantMinimal:
		cols = minimalColumns
	default:
		return Schema{}, fmt.Errorf("unknown schema variant %q", v)
	}
	return Schema{Variant: v, Columns: append([]Column(nil), cols...)}, nil
}

// Headers returns the header row.
func (s Schema) Headers() []string {
	headers := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		headers[i] = c.Header
	}
	return headers
}

// Width is the number of columns.
func (s Schema) Width() int {
	return len(s.Columns)
}

// Row is one table row in schema column order.
type Row []string

// Row assembles fields into column order. Fields the map lacks get their sentinel.
func (s Schema) Row(fields Fields) Row {
	row := make(Row, len(s.Columns))
	for i, c := range s.Columns {
		v, ok := fields[c.Field]
		if !ok {
			v = Sentinel(c.Field)
		}
		row[i] = v
	}
	return row
}
