package ir

import (
	"fmt"
	"strings"
)

// Kind is the tag of a Value or ValueType.
type Kind uint8

const (
	// KindInvalid is the zero Kind. A ValueType of this kind is the wildcard
	// used in function signatures.
	KindInvalid Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindDate
	KindTimestamp
	KindEnum
	KindStruct
	KindTable
)

var kindNames = [...]string{
	KindInvalid:   "any",
	KindNumber:    "number",
	KindString:    "string",
	KindBoolean:   "boolean",
	KindDate:      "date",
	KindTimestamp: "timestamp",
	KindEnum:      "enum",
	KindStruct:    "struct",
	KindTable:     "table",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Ordered reports whether values of this kind support Compare.
func (k Kind) Ordered() bool {
	switch k {
	case KindNumber, KindString, KindDate, KindTimestamp:
		return true
	}
	return false
}

// Composite reports whether the kind needs a definition name.
func (k Kind) Composite() bool {
	return k == KindEnum || k == KindStruct || k == KindTable
}

// ValueType describes the type of a value: a primitive kind, or a composite
// kind qualified by the name of its definition.
//
// ValueType is comparable. Primitive types are equal whenever their kinds are
// equal; composite types are equal when both kind and name match.
type ValueType struct {
	kind Kind
	name string
}

// Primitive types.
var (
	Any       = ValueType{}
	Number    = ValueType{kind: KindNumber}
	String    = ValueType{kind: KindString}
	Boolean   = ValueType{kind: KindBoolean}
	Date      = ValueType{kind: KindDate}
	Timestamp = ValueType{kind: KindTimestamp}
)

// Enumerated returns the type of values drawn from the named enumeration.
func Enumerated(name string) ValueType {
	return ValueType{kind: KindEnum, name: name}
}

// Structured returns the type of the named data structure.
func Structured(name string) ValueType {
	return ValueType{kind: KindStruct, name: name}
}

// Tabular returns the type of the named table.
func Tabular(name string) ValueType {
	return ValueType{kind: KindTable, name: name}
}

// Kind returns the tag of the type.
func (t ValueType) Kind() Kind { return t.kind }

// Name returns the definition name for composite types and "" otherwise.
func (t ValueType) Name() string { return t.name }

// IsAny reports whether t is the wildcard type.
func (t ValueType) IsAny() bool { return t.kind == KindInvalid }

// Accepts reports whether a value of type other may be used where t is
// expected. The wildcard accepts every type.
func (t ValueType) Accepts(other ValueType) bool {
	return t.IsAny() || t == other
}

// String renders the type as accepted by ParseValueType, e.g. "number" or
// "enum:state".
func (t ValueType) String() string {
	if t.kind.Composite() {
		return t.kind.String() + ":" + t.name
	}
	return t.kind.String()
}

// ParseValueType parses the textual form of a type. Primitive names are
// case-insensitive; composites are written "enum:<name>", "struct:<name>"
// or "table:<name>".
func ParseValueType(s string) (ValueType, error) {
	s = strings.TrimSpace(s)
	kindText, name, composite := strings.Cut(s, ":")
	switch strings.ToLower(kindText) {
	case "number":
		if !composite {
			return Number, nil
		}
	case "string", "text":
		if !composite {
			return String, nil
		}
	case "boolean", "bool":
		if !composite {
			return Boolean, nil
		}
	case "date":
		if !composite {
			return Date, nil
		}
	case "timestamp":
		if !composite {
			return Timestamp, nil
		}
	case "enum", "enumeration":
		if composite && name != "" {
			return Enumerated(name), nil
		}
	case "struct":
		if composite && name != "" {
			return Structured(name), nil
		}
	case "table":
		if composite && name != "" {
			return Tabular(name), nil
		}
	}
	return ValueType{}, fmt.Errorf("invalid value type %q", s)
}
