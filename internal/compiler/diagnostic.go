package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
)

// Kind classifies a build diagnostic.
type Kind string

const (
	KindConfig   Kind = "config"              // malformed or missing declarative structure
	KindCompile  Kind = "compile"             // invalid or ill-typed expression text
	KindCircular Kind = "circular-dependency" // variables that depend on themselves
	KindInternal Kind = "internal"            // broken build invariant; never caused by input
)

// Diagnostic codes (E100-E199)
const (
	// Loading (E100)
	ErrLoad = "E100" // dictionary source could not be read or evaluated

	// Dictionary structure (E101-E119)
	ErrMissingEngineID      = "E101" // engineId is required
	ErrNoDataElements       = "E102" // at least one data element required
	ErrInvalidRole          = "E103" // unknown element type
	ErrInvalidDataType      = "E104" // missing or unknown dataType
	ErrMissingSchema        = "E105" // input without schemaName
	ErrUnknownSchema        = "E106" // schemaName not declared
	ErrMissingErrorID       = "E107" // input without errorId
	ErrMissingCalculator    = "E108" // non-required element without calculator
	ErrUnexpectedCalculator = "E109" // required input with calculator
	ErrSchemaTypeMismatch   = "E110" // dataType disagrees with the schema
	ErrInvalidSchema        = "E111" // schema cannot be turned into a parser
	ErrNoOutputs            = "E112" // at least one OUTPUT required
	ErrIncompleteCalcStep   = "E113" // calcStep without when or value
	ErrInvalidPrecision     = "E114" // negative nbrDecimalPlaces
	ErrInvalidValidator     = "E115" // validator without shouldBe or messageId

	// Expressions (E120-E129)
	ErrInvalidExpression = "E120" // expression text cannot be parsed or resolved
	ErrExpressionType    = "E121" // expression type differs from the declared type

	// Dependencies (E130)
	ErrCircularDependency = "E130"

	// Internal (E190)
	ErrInternal = "E190"
)

// Diagnostic is one build problem.
type Diagnostic struct {
	Kind    Kind      `json:"kind"`
	Code    string    `json:"code"`
	Entity  string    `json:"entity,omitempty"` // element, schema or validator name
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Pos     token.Pos `json:"-"`
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	if d.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", d.Pos.Filename(), d.Pos.Line(), d.Pos.Column())
	}
	fmt.Fprintf(&b, "[%s] ", d.Code)
	switch {
	case d.Entity != "" && d.Field != "":
		fmt.Fprintf(&b, "%s.%s: ", d.Entity, d.Field)
	case d.Entity != "":
		fmt.Fprintf(&b, "%s: ", d.Entity)
	}
	b.WriteString(d.Message)
	return b.String()
}

// BuildError carries every diagnostic of a failed build.
type BuildError struct {
	Diagnostics []Diagnostic
}

func (e *BuildError) Error() string {
	if len(e.Diagnostics) == 1 {
		return "build failed: " + e.Diagnostics[0].Error()
	}
	return fmt.Sprintf("build failed with %d diagnostics; first: %s", len(e.Diagnostics), e.Diagnostics[0].Error())
}

// Has reports whether any diagnostic has the given kind.
func (e *BuildError) Has(kind Kind) bool {
	for _, d := range e.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// CompileError represents a dictionary decoding error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
