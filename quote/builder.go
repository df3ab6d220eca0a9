package quote

import "github.com/PuerkitoBio/goquery"

// Builder produces one schema row per parsed quote page.
type Builder struct {
	schema    Schema
	extractor *Extractor
	resolver  *SignResolver
}

// NewBuilder wires an extractor and sign resolver for schema.
func NewBuilder(schema Schema, extractor *Extractor, resolver *SignResolver) *Builder {
	return &Builder{
		schema:    schema,
		extractor: extractor,
		resolver:  resolver,
	}
}

// Schema returns the column set rows are built against.
func (b *Builder) Schema() Schema {
	return b.schema
}

// Build extracts the fields of doc, signs the change values and lays them
// out in schema order. It never fails; absent data becomes sentinels.
func (b *Builder) Build(doc *goquery.Document, symbol string) (Fields, Row) {
	fields := b.extractor.Extract(doc, symbol)

	sign := b.resolver.Resolve(doc)
	for _, f := range []Field{FieldChange, FieldChangePercent} {
		fields[f] = ApplySign(sign, f, fields[f])
	}

	return fields, b.schema.Row(fields)
}
