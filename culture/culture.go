// Package culture implements the culture-aware numeric, date, and
// currency formatting the core engine's currency/format/dateFormat
// filters require (spec §6). It is a host collaborator, not part of
// the core, but a runnable module needs a default implementation:
// this one is backed by golang.org/x/text, grounded on
// other_examples/sambeau-basil__evaluator.go's direct use of the same
// package inside a template evaluator.
package culture

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Culture formats values according to a BCP-47-style identifier such
// as "en-US" or "fr-FR".
type Culture interface {
	FormatNumber(id string, f float64) string
	FormatPattern(id, pattern string, f float64) string
	FormatCurrency(id string, amount float64) string
	FormatDate(id string, t time.Time, layout string) string
}

// Default is a Culture backed by golang.org/x/text. Unknown or empty
// culture identifiers fall back to language.English, matching x/text's
// own fallback behavior for message.NewPrinter.
type Default struct{}

func (Default) tag(id string) language.Tag {
	if id == "" {
		return language.English
	}
	tag, err := language.Parse(id)
	if err != nil {
		return language.English
	}
	return tag
}

func (d Default) printer(id string) *message.Printer {
	return message.NewPrinter(d.tag(id))
}

// FormatNumber renders f with the culture's grouping and decimal
// conventions.
func (d Default) FormatNumber(id string, f float64) string {
	p := d.printer(id)
	return p.Sprintf("%v", numberValue(f))
}

// FormatPattern renders f using pattern as a message.Printer format
// verb (e.g. "%.2f", "%d"), applying the culture's grouping and
// decimal conventions the way FormatNumber's default "%v" verb does.
func (d Default) FormatPattern(id, pattern string, f float64) string {
	p := d.printer(id)
	return p.Sprintf(pattern, numberValue(f))
}

// currencyForCulture maps a handful of common BCP-47 culture
// identifiers to their ISO 4217 currency code, since x/text has no
// locale-to-currency lookup of its own (grounded on
// other_examples/sambeau-basil__evaluator.go's formatCurrency, which
// instead takes the ISO code as an explicit argument).
var currencyForCulture = map[string]string{
	"en-us": "USD",
	"en-gb": "GBP",
	"en":    "USD",
	"fr-fr": "EUR",
	"fr":    "EUR",
	"de-de": "EUR",
	"de":    "EUR",
	"ja-jp": "JPY",
	"ja":    "JPY",
	"sv-se": "SEK",
}

// FormatCurrency renders amount with the culture's default currency
// symbol and grouping, via golang.org/x/text/currency, the same
// ParseISO/Amount/Symbol sequence used in
// other_examples/sambeau-basil__evaluator.go's formatCurrency.
func (d Default) FormatCurrency(id string, amount float64) string {
	tag := d.tag(id)
	code, ok := currencyForCulture[normalizeCultureID(id)]
	if !ok {
		code = "USD"
	}
	cur, err := currency.ParseISO(code)
	if err != nil {
		cur = currency.USD
	}
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.Symbol(cur.Amount(amount)))
}

func normalizeCultureID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// FormatDate renders t using layout (a Go reference-time layout) via
// time.Format. The culture identifier is ignored: month and day names,
// digits, and separators come out the same for every culture.
func (d Default) FormatDate(id string, t time.Time, layout string) string {
	return t.Format(layout)
}

func numberValue(f float64) interface{} {
	if f == float64(int64(f)) {
		return int64(f)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return f
	}
	return v
}

// ParseDate parses s in one of the well-known layouts spec §4.D
// requires for mixed string/timestamp comparisons: YYYY-MM-DD with an
// optional THH:MM:SS[Z] time component.
func ParseDate(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("culture: cannot parse %q as a date: %w", s, lastErr)
}
