package ir

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual form of a Date value.
const DateLayout = "2006-01-02"

// Value is an immutable typed datum: a tagged union over number, string,
// boolean, date, timestamp and enumerated values.
//
// The zero Value has KindInvalid and is never produced by the engine.
// Only the accessor matching the tag succeeds; every other accessor
// returns a *TypeMismatchError.
type Value struct {
	kind Kind
	num  decimal.Decimal
	text string // string payload, or the enumerated member
	enum string // enumeration name
	flag bool
	at   time.Time
}

// NewNumber creates a Number value.
func NewNumber(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// NewInt creates a Number value from an integer.
func NewInt(n int64) Value {
	return NewNumber(decimal.NewFromInt(n))
}

// NewString creates a String value.
func NewString(s string) Value {
	return Value{kind: KindString, text: s}
}

// NewBool creates a Boolean value.
func NewBool(b bool) Value {
	return Value{kind: KindBoolean, flag: b}
}

// NewDate creates a Date value. The time of day and location are dropped.
func NewDate(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, at: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NewTimestamp creates a Timestamp value normalised to UTC.
func NewTimestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, at: t.UTC()}
}

// NewEnum creates an Enumerated value: member of the named enumeration.
func NewEnum(enumName, member string) Value {
	return Value{kind: KindEnum, enum: enumName, text: member}
}

// Kind returns the tag of the value.
func (v Value) Kind() Kind { return v.kind }

// Type returns the ValueType of the value.
func (v Value) Type() ValueType {
	if v.kind == KindEnum {
		return Enumerated(v.enum)
	}
	return ValueType{kind: v.kind}
}

// Number returns the decimal payload of a Number value.
func (v Value) Number() (decimal.Decimal, error) {
	if v.kind != KindNumber {
		return decimal.Zero, mismatch(KindNumber, v.kind)
	}
	return v.num, nil
}

// Text returns the payload of a String value.
func (v Value) Text() (string, error) {
	if v.kind != KindString {
		return "", mismatch(KindString, v.kind)
	}
	return v.text, nil
}

// Bool returns the payload of a Boolean value.
func (v Value) Bool() (bool, error) {
	if v.kind != KindBoolean {
		return false, mismatch(KindBoolean, v.kind)
	}
	return v.flag, nil
}

// Date returns the payload of a Date value as midnight UTC.
func (v Value) Date() (time.Time, error) {
	if v.kind != KindDate {
		return time.Time{}, mismatch(KindDate, v.kind)
	}
	return v.at, nil
}

// Timestamp returns the payload of a Timestamp value.
func (v Value) Timestamp() (time.Time, error) {
	if v.kind != KindTimestamp {
		return time.Time{}, mismatch(KindTimestamp, v.kind)
	}
	return v.at, nil
}

// Enum returns the enumeration name and member of an Enumerated value.
func (v Value) Enum() (enumName, member string, err error) {
	if v.kind != KindEnum {
		return "", "", mismatch(KindEnum, v.kind)
	}
	return v.enum, v.text, nil
}

// Equal reports whether both values carry the same tag and payload.
// Numbers compare by magnitude, so 1.0 equals 1.00.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num.Equal(o.num)
	case KindString:
		return v.text == o.text
	case KindBoolean:
		return v.flag == o.flag
	case KindDate, KindTimestamp:
		return v.at.Equal(o.at)
	case KindEnum:
		return v.enum == o.enum && v.text == o.text
	}
	return true
}

// Compare orders two values of the same ordered kind. It returns -1, 0 or +1,
// or a *NotComparableError when the kinds differ or are not ordered.
func (v Value) Compare(o Value) (int, error) {
	if v.kind != o.kind || !v.kind.Ordered() {
		return 0, &NotComparableError{Left: v.kind, Right: o.kind}
	}
	switch v.kind {
	case KindNumber:
		return v.num.Cmp(o.num), nil
	case KindString:
		return strings.Compare(v.text, o.text), nil
	default:
		return v.at.Compare(o.at), nil
	}
}

// String renders the payload in its input form: decimal text, ISO date,
// RFC 3339 timestamp, "true"/"false", or the enumerated member.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindString, KindEnum:
		return v.text
	case KindBoolean:
		if v.flag {
			return "true"
		}
		return "false"
	case KindDate:
		return v.at.Format(DateLayout)
	case KindTimestamp:
		return v.at.Format(time.RFC3339Nano)
	}
	return ""
}

// MarshalJSON renders booleans as JSON booleans, numbers as JSON numbers
// carrying the exact decimal text, and everything else as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInvalid:
		return []byte("null"), nil
	case KindBoolean:
		return json.Marshal(v.flag)
	case KindNumber:
		return []byte(v.num.String()), nil
	default:
		return json.Marshal(v.String())
	}
}

// DefaultValue returns the zero, empty or identity value for a type:
// 0, "", false, the Unix epoch for dates and timestamps, and an empty member
// for enumerations. Structured and tabular types have no default and
// yield the zero Value.
func DefaultValue(t ValueType) Value {
	switch t.kind {
	case KindNumber:
		return NewNumber(decimal.Zero)
	case KindString:
		return NewString("")
	case KindBoolean:
		return NewBool(false)
	case KindDate:
		return NewDate(time.Unix(0, 0).UTC())
	case KindTimestamp:
		return NewTimestamp(time.Unix(0, 0))
	case KindEnum:
		return NewEnum(t.name, "")
	}
	return Value{}
}

// TypeMismatchError reports use of an accessor that does not match the
// value's tag. It always indicates a defect in the caller.
type TypeMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

// NotComparableError reports an ordering request between values that have
// no common ordering.
type NotComparableError struct {
	Left  Kind
	Right Kind
}

func (e *NotComparableError) Error() string {
	if e.Left == e.Right {
		return fmt.Sprintf("values of kind %s are not ordered", e.Left)
	}
	return fmt.Sprintf("cannot compare %s with %s", e.Left, e.Right)
}

func mismatch(want, got Kind) error {
	return &TypeMismatchError{Want: want, Got: got}
}
