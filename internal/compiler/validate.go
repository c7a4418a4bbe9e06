package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/calc/internal/ir"
)

// Validate checks the structure of a dictionary.
// Returns all problems found (does not fail-fast). Expression text and
// schema contents are checked later, by Build.
func Validate(d *ir.Dictionary) []Diagnostic {
	var diags []Diagnostic
	add := func(code, entity, field, format string, args ...any) {
		diags = append(diags, Diagnostic{
			Kind:    KindConfig,
			Code:    code,
			Entity:  entity,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	// E101: engineId is required
	if strings.TrimSpace(d.EngineID) == "" {
		add(ErrMissingEngineID, "", "engineId", "engineId is required")
	}

	// E102: at least one data element
	if len(d.DataElements) == 0 {
		add(ErrNoDataElements, "", "dataElements", "at least one data element is required")
	}

	outputs := 0
	for _, name := range sortedKeys(d.DataElements) {
		el := d.DataElements[name]

		// E103: role must be known
		if !ir.ValidRoles[el.Type] {
			add(ErrInvalidRole, name, "type", "invalid type %q, must be one of REQUIRED_INPUT, OPTIONAL_INPUT, OUTPUT, INTERMEDIATE", el.Type)
			continue
		}
		if el.Type == ir.RoleOutput {
			outputs++
		}

		// E114: precision
		if el.DecimalPlaces < 0 {
			add(ErrInvalidPrecision, name, "nbrDecimalPlaces", "nbrDecimalPlaces must not be negative")
		}

		if el.Type.IsInput() {
			// E105/E106: inputs are parsed through a declared schema
			switch {
			case el.SchemaName == "":
				add(ErrMissingSchema, name, "schemaName", "input must specify a schemaName")
			case !hasKey(d.Schemas, el.SchemaName):
				add(ErrUnknownSchema, name, "schemaName", "schema %q is not declared", el.SchemaName)
			}
			// E107
			if strings.TrimSpace(el.ErrorID) == "" {
				add(ErrMissingErrorID, name, "errorId", "input must specify an errorId")
			}
		} else if strings.TrimSpace(el.DataType) == "" {
			// E104
			add(ErrInvalidDataType, name, "dataType", "dataType is required for %s", el.Type)
		}

		if el.Type == ir.RoleRequiredInput {
			// E109
			if el.Calculator != nil {
				add(ErrUnexpectedCalculator, name, "calculator", "required input must not have a calculator")
			}
			continue
		}

		// E108: everything that is not a required input needs a rule
		if el.Calculator == nil {
			add(ErrMissingCalculator, name, "calculator", "%s must have a calculator", el.Type)
			continue
		}
		if strings.TrimSpace(el.Calculator.DefaultExpression) == "" {
			add(ErrMissingCalculator, name, "calculator.defaultExpression", "defaultExpression is required")
		}
		// E113
		for i, step := range el.Calculator.CalcSteps {
			if strings.TrimSpace(step.When) == "" || strings.TrimSpace(step.Value) == "" {
				add(ErrIncompleteCalcStep, name, fmt.Sprintf("calculator.calcSteps[%d]", i), "calcStep needs both when and value")
			}
		}
	}

	// E112: a dictionary with nothing to calculate is useless
	if len(d.DataElements) > 0 && outputs == 0 {
		add(ErrNoOutputs, "", "dataElements", "at least one OUTPUT element is required")
	}

	// E115
	for i, v := range d.Validators {
		entity := fmt.Sprintf("validators[%d]", i)
		if strings.TrimSpace(v.ShouldBe) == "" {
			add(ErrInvalidValidator, entity, "shouldBe", "shouldBe is required")
		}
		if strings.TrimSpace(v.MessageID) == "" {
			add(ErrInvalidValidator, entity, "messageId", "messageId is required")
		}
	}

	return diags
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
