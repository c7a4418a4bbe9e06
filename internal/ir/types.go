package ir

import "github.com/shopspring/decimal"

// Dictionary is the declarative definition of a calculation engine: the
// schemas that validate raw input, the data elements and their rules, the
// inter-field validators, and the message texts they refer to.
//
// Map-valued fields are iterated in sorted key order everywhere in the
// module so that builds and runs are deterministic.
type Dictionary struct {
	EngineID     string                       `json:"engineId" yaml:"engineId"`
	Schemas      map[string]ValueSchema       `json:"schemas,omitempty" yaml:"schemas"`
	DataElements map[string]DataElement       `json:"dataElements" yaml:"dataElements"`
	Validators   []Validator                  `json:"validators,omitempty" yaml:"validators"`
	Messages     map[string]string            `json:"messages,omitempty" yaml:"messages"`
	Enumerations map[string]map[string]string `json:"enumerations,omitempty" yaml:"enumerations"`
}

// ElementRole is the role a data element plays in a calculation.
type ElementRole string

const (
	RoleRequiredInput ElementRole = "REQUIRED_INPUT"
	RoleOptionalInput ElementRole = "OPTIONAL_INPUT"
	RoleOutput        ElementRole = "OUTPUT"
	RoleIntermediate  ElementRole = "INTERMEDIATE"
)

// ValidRoles defines allowed element roles.
var ValidRoles = map[ElementRole]bool{
	RoleRequiredInput: true,
	RoleOptionalInput: true,
	RoleOutput:        true,
	RoleIntermediate:  true,
}

// IsInput reports whether values for the role arrive as raw text.
func (r ElementRole) IsInput() bool {
	return r == RoleRequiredInput || r == RoleOptionalInput
}

// DataElement declares one named variable.
type DataElement struct {
	Type          ElementRole `json:"type" yaml:"type"`
	DataType      string      `json:"dataType,omitempty" yaml:"dataType"`     // value type, for non-inputs
	SchemaName    string      `json:"schemaName,omitempty" yaml:"schemaName"` // input schema
	ErrorID       string      `json:"errorId,omitempty" yaml:"errorId"`       // message for invalid input
	Calculator    *Calculator `json:"calculator,omitempty" yaml:"calculator"`
	DecimalPlaces int32       `json:"nbrDecimalPlaces,omitempty" yaml:"nbrDecimalPlaces"`
}

// Calculator is the rule text of a data element: ordered steps, the first
// whose condition holds supplies the value, else the default expression.
type Calculator struct {
	DefaultExpression string     `json:"defaultExpression" yaml:"defaultExpression"`
	CalcSteps         []CalcStep `json:"calcSteps,omitempty" yaml:"calcSteps"`
}

// CalcStep is one conditional branch of a Calculator.
type CalcStep struct {
	When  string `json:"when" yaml:"when"`
	Value string `json:"value" yaml:"value"`
}

// ValueSchema constrains the raw text accepted for an input.
// Which fields apply depends on ValueType.
type ValueSchema struct {
	ValueType string `json:"valueType" yaml:"valueType"`

	// number
	DecimalPlaces int32            `json:"nbrDecimalPlaces,omitempty" yaml:"nbrDecimalPlaces"`
	Min           *decimal.Decimal `json:"min,omitempty" yaml:"min"`
	Max           *decimal.Decimal `json:"max,omitempty" yaml:"max"`

	// string
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength"`
	Regex     string `json:"regex,omitempty" yaml:"regex"`

	// date
	DaysInPast   *int `json:"daysInPast,omitempty" yaml:"daysInPast"`
	DaysInFuture *int `json:"daysInFuture,omitempty" yaml:"daysInFuture"`

	// enum
	Enumeration string `json:"enumeration,omitempty" yaml:"enumeration"`
}

// Validator is an inter-field check evaluated after all inputs are valid.
type Validator struct {
	ShouldBe  string `json:"shouldBe" yaml:"shouldBe"`
	MessageID string `json:"messageId" yaml:"messageId"`
}
