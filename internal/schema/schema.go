// Package schema turns raw input text into typed values.
//
// Every input variable owns a Parser built from a named ValueSchema in the
// dictionary. Parsers are immutable and safe for concurrent use; the only
// time-dependent check (the date window) reads the time from an injected
// ir.Clock.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/calc/internal/ir"
)

// Parser converts raw text into a value of a fixed type.
type Parser interface {
	// Type returns the type of every value Parse produces.
	Type() ir.ValueType

	// Parse converts text or returns a *RejectError describing why the text
	// is not acceptable.
	Parse(text string) (ir.Value, error)
}

// RejectError reports raw input that a parser does not accept.
type RejectError struct {
	Text   string
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%q rejected: %s", e.Text, e.Reason)
}

// IsRejected reports whether err is a *RejectError.
func IsRejected(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

func reject(text, format string, args ...any) error {
	return &RejectError{Text: text, Reason: fmt.Sprintf(format, args...)}
}

// ConfigError reports a schema that cannot be turned into a parser.
type ConfigError struct {
	Schema  string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("schema %q: %s", e.Schema, e.Message)
}

// Number parses decimal text, rounds it half to even to Places, and then
// checks the rounded value against the inclusive optional bounds.
type Number struct {
	Places int32
	Min    *decimal.Decimal
	Max    *decimal.Decimal
}

func (Number) Type() ir.ValueType { return ir.Number }

func (p Number) Parse(text string) (ir.Value, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return ir.Value{}, reject(text, "not a number")
	}
	d = d.RoundBank(p.Places)
	if p.Min != nil && d.LessThan(*p.Min) {
		return ir.Value{}, reject(text, "%s is less than the minimum of %s", d.StringFixed(p.Places), p.Min)
	}
	if p.Max != nil && d.GreaterThan(*p.Max) {
		return ir.Value{}, reject(text, "%s is greater than the maximum of %s", d.StringFixed(p.Places), p.Max)
	}
	return ir.NewNumber(d), nil
}

// String accepts text whose length, counted in runes after NFC
// normalisation, lies within [MinLength, MaxLength] and that fully matches
// Pattern when one is set.
type String struct {
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
}

func (String) Type() ir.ValueType { return ir.String }

func (p String) Parse(text string) (ir.Value, error) {
	s := norm.NFC.String(text)
	n := utf8.RuneCountInString(s)
	if n < p.MinLength {
		return ir.Value{}, reject(text, "length %d is less than the minimum of %d", n, p.MinLength)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return ir.Value{}, reject(text, "length %d is greater than the maximum of %d", n, p.MaxLength)
	}
	if p.Pattern != nil && !p.Pattern.MatchString(s) {
		return ir.Value{}, reject(text, "does not match the required pattern")
	}
	return ir.NewString(s), nil
}

// Date accepts YYYY-MM-DD within an optional window around today.
type Date struct {
	DaysInPast   *int
	DaysInFuture *int
	Clock        ir.Clock
}

func (Date) Type() ir.ValueType { return ir.Date }

func (p Date) Parse(text string) (ir.Value, error) {
	t, err := time.Parse(ir.DateLayout, text)
	if err != nil {
		return ir.Value{}, reject(text, "not a date in YYYY-MM-DD form")
	}
	clock := p.Clock
	if clock == nil {
		clock = ir.SystemClock
	}
	y, m, d := clock.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if p.DaysInPast != nil {
		earliest := today.AddDate(0, 0, -*p.DaysInPast)
		if t.Before(earliest) {
			return ir.Value{}, reject(text, "date is before the earliest allowed date of %s", earliest.Format(ir.DateLayout))
		}
	}
	if p.DaysInFuture != nil {
		latest := today.AddDate(0, 0, *p.DaysInFuture)
		if t.After(latest) {
			return ir.Value{}, reject(text, "date is after the latest allowed date of %s", latest.Format(ir.DateLayout))
		}
	}
	return ir.NewDate(t), nil
}

// Boolean accepts "true" or "false" in any case.
type Boolean struct{}

func (Boolean) Type() ir.ValueType { return ir.Boolean }

func (Boolean) Parse(text string) (ir.Value, error) {
	switch {
	case strings.EqualFold(text, "true"):
		return ir.NewBool(true), nil
	case strings.EqualFold(text, "false"):
		return ir.NewBool(false), nil
	}
	return ir.Value{}, reject(text, "only 'true' and 'false' are valid")
}

// Timestamp accepts RFC 3339 text.
type Timestamp struct{}

func (Timestamp) Type() ir.ValueType { return ir.Timestamp }

func (Timestamp) Parse(text string) (ir.Value, error) {
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return ir.Value{}, reject(text, "not an RFC 3339 timestamp")
	}
	return ir.NewTimestamp(t), nil
}

// Enum accepts the keys of a named enumeration.
type Enum struct {
	Name    string
	Members map[string]string // key -> display text
}

func (p Enum) Type() ir.ValueType { return ir.Enumerated(p.Name) }

func (p Enum) Parse(text string) (ir.Value, error) {
	if _, ok := p.Members[text]; !ok {
		return ir.Value{}, reject(text, "not one of %s", strings.Join(p.keys(), ", "))
	}
	return ir.NewEnum(p.Name, text), nil
}

func (p Enum) keys() []string {
	keys := make([]string, 0, len(p.Members))
	for k := range p.Members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
