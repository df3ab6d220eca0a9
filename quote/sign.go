package quote

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sign is the direction prefix put in front of change values.
type Sign string

const (
	SignNone Sign = ""
	SignUp   Sign = "+"
	SignDown Sign = "-"
)

// Indicator border colours used by the quote page.
const (
	ColorUp   = "#ff333a"
	ColorDown = "#00ab5e"
)

// SignResolver infers the price direction from the trend arrow colour.
type SignResolver struct {
	selector string

	// Unmatched is returned when the arrow has a colour that is neither
	// ColorUp nor ColorDown.
	Unmatched Sign
}

// NewSignResolver creates a resolver reading the element matched by selector.
func NewSignResolver(selector string, unmatched Sign) *SignResolver {
	return &SignResolver{selector: selector, Unmatched: unmatched}
}

// Resolve returns the sign encoded by the indicator's border-color.
// A missing indicator or missing colour yields SignNone.
func (r *SignResolver) Resolve(doc *goquery.Document) Sign {
	arrow := doc.Find(r.selector).First()
	if arrow.Length() == 0 {
		return SignNone
	}
	style, ok := arrow.Attr("style")
	if !ok {
		return SignNone
	}
	color, ok := styleProperty(style, "border-color")
	if !ok {
		return SignNone
	}

	// Arrow triangles colour one side only: "#ff333a transparent transparent transparent".
	switch strings.ToLower(strings.Fields(color)[0]) {
	case ColorDown:
		return SignDown
	case ColorUp:
		return SignUp
	default:
		return r.Unmatched
	}
}

// ApplySign prefixes value with sign unless the value is empty, a sentinel
// for field, or already signed.
func ApplySign(sign Sign, field Field, value string) string {
	if sign == SignNone || value == "" || IsSentinel(field, value) {
		return value
	}
	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		return value
	}
	return string(sign) + value
}

// styleProperty returns the value of name in an inline style attribute.
func styleProperty(style, name string) (string, bool) {
	for _, decl := range strings.Split(style, ";") {
		key, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), name) {
			value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
			return value, value != ""
		}
	}
	return "", false
}
