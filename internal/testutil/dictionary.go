package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/calc/internal/ir"
)

// TaxDictionary returns a small income-tax dictionary exercising every
// role, a variadic custom function, an enumeration and a validator.
//
// With income=1000000 and age=40 it yields tax=300000, surcharge=15000 and
// bracket="high". It needs the function.Standard library (max).
func TaxDictionary() *ir.Dictionary {
	return &ir.Dictionary{
		EngineID: "income-tax",
		Schemas: map[string]ir.ValueSchema{
			"amount":    {ValueType: "number", DecimalPlaces: 2, Min: dec("0"), Max: dec("10000000")},
			"years":     {ValueType: "number", Min: dec("0"), Max: dec("150")},
			"stateCode": {ValueType: "enum", Enumeration: "state"},
		},
		DataElements: map[string]ir.DataElement{
			"income": {Type: ir.RoleRequiredInput, SchemaName: "amount", ErrorID: "invalidIncome"},
			"age":    {Type: ir.RoleRequiredInput, SchemaName: "years", ErrorID: "invalidAge"},
			"state": {
				Type: ir.RoleOptionalInput, SchemaName: "stateCode", ErrorID: "invalidState",
				Calculator: &ir.Calculator{DefaultExpression: `"KA"`},
			},
			"deductions": {
				Type: ir.RoleOptionalInput, SchemaName: "amount", ErrorID: "invalidDeductions",
				Calculator: &ir.Calculator{DefaultExpression: "0"},
			},
			"taxable": {
				Type: ir.RoleIntermediate, DataType: "number",
				Calculator: &ir.Calculator{DefaultExpression: "max(income - deductions, 0)"},
			},
			"rate": {
				Type: ir.RoleIntermediate, DataType: "number",
				Calculator: &ir.Calculator{
					DefaultExpression: "0.2",
					CalcSteps: []ir.CalcStep{
						{When: "age >= 60", Value: "0.1"},
						{When: "taxable > 500000", Value: "0.3"},
					},
				},
			},
			"tax": {
				Type: ir.RoleOutput, DataType: "number", DecimalPlaces: 2,
				Calculator: &ir.Calculator{DefaultExpression: "taxable * rate"},
			},
			"surcharge": {
				Type: ir.RoleOutput, DataType: "number", DecimalPlaces: 2,
				Calculator: &ir.Calculator{
					DefaultExpression: "0",
					CalcSteps:         []ir.CalcStep{{When: `state == "KA"`, Value: "tax * 0.05"}},
				},
			},
			"bracket": {
				Type: ir.RoleOutput, DataType: "string",
				Calculator: &ir.Calculator{
					DefaultExpression: `"standard"`,
					CalcSteps:         []ir.CalcStep{{When: "rate == 0.3", Value: `"high"`}},
				},
			},
		},
		Validators: []ir.Validator{
			{ShouldBe: "deductions <= income", MessageID: "deductionsTooHigh"},
		},
		Messages: map[string]string{
			"invalidIncome":     "Income must be an amount between 0 and 10000000",
			"invalidAge":        "Age must be a whole number between 0 and 150",
			"invalidState":      "State must be a known state code",
			"invalidDeductions": "Deductions must be an amount between 0 and 10000000",
			"deductionsTooHigh": "Deductions cannot exceed income",
		},
		Enumerations: map[string]map[string]string{
			"state": {"KA": "Karnataka", "TN": "Tamil Nadu"},
		},
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
