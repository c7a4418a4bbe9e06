package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/parser/lexer"
	"github.com/shopspring/decimal"
)

// numbers holds the source text of every number token in a rule, keyed by
// the token's location. The expr parser keeps number literals as int64 or
// float64; the text lets them be lowered as exact decimals instead.
type numbers map[file.Location]string

// scanNumbers lexes text and records its number tokens. It also returns
// text with every decimal integer wider than int64 rewritten in place as a
// float token of the same width ("12345678901234567890" becomes
// "1234567890123456789."), which the expr parser accepts. Locations are
// unchanged, so the recorded text still applies.
//
// A lexing error is left for the expr parser to report.
func scanNumbers(text string) (string, numbers) {
	tokens, err := lexer.Lex(file.NewSource(text))
	if err != nil {
		return text, nil
	}
	nums := make(numbers)
	var wide map[file.Location]string
	for _, tok := range tokens {
		if tok.Kind != lexer.Number {
			continue
		}
		nums[tok.Location] = tok.Value
		if isDecimalInteger(tok.Value) && overflowsInt64(tok.Value) {
			if wide == nil {
				wide = make(map[file.Location]string)
			}
			wide[tok.Location] = tok.Value
		}
	}
	return widen(text, wide), nums
}

// exact returns the decimal written at loc, if the literal there is a
// plain decimal number (not hex, octal or binary).
func (n numbers) exact(loc file.Location) (decimal.Decimal, bool) {
	src, ok := n[loc]
	if !ok {
		return decimal.Decimal{}, false
	}
	src = strings.ReplaceAll(src, "_", "")
	if len(src) > 1 && src[0] == '0' && strings.ContainsAny(src[1:2], "xXoObB") {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(src)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func isDecimalInteger(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return s != ""
}

func overflowsInt64(s string) bool {
	_, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 10, 64)
	return err != nil
}

// widen replaces the last digit of every token in wide with a point. It
// walks text counting lines and rune columns the way the expr lexer does.
func widen(text string, wide map[file.Location]string) string {
	if len(wide) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	loc := file.Location{Line: 1}
	for i := 0; i < len(text); {
		if lit, ok := wide[loc]; ok {
			b.WriteString(lit[:len(lit)-1])
			b.WriteByte('.')
			i += len(lit)
			loc.Column += len(lit) // digits and underscores are single-byte
			continue
		}
		r, w := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+w])
		i += w
		if r == '\n' {
			loc.Line++
			loc.Column = 0
		} else {
			loc.Column++
		}
	}
	return b.String()
}
