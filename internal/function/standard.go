package function

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/roach88/calc/internal/ir"
)

// Standard returns a small library of custom functions that dictionaries
// commonly rely on. They are ordinary custom functions: callers merge them
// with NewRegistry(Standard()...) like any other.
func Standard() []*Function {
	return []*Function{
		{
			Name:       "max",
			ReturnType: ir.Number,
			ParamTypes: []ir.ValueType{ir.Number, ir.Number},
			Variadic:   true,
			Eval:       extreme(func(c int) bool { return c > 0 }),
		},
		{
			Name:       "min",
			ReturnType: ir.Number,
			ParamTypes: []ir.ValueType{ir.Number, ir.Number},
			Variadic:   true,
			Eval:       extreme(func(c int) bool { return c < 0 }),
		},
		{
			Name:       "sum",
			ReturnType: ir.Number,
			ParamTypes: []ir.ValueType{ir.Number},
			Variadic:   true,
			Eval: func(args []ir.Value) (ir.Value, error) {
				total := decimal.Zero
				for _, a := range args {
					n, err := a.Number()
					if err != nil {
						return ir.Value{}, err
					}
					total = total.Add(n)
				}
				return ir.NewNumber(total), nil
			},
		},
		{
			Name:       "abs",
			ReturnType: ir.Number,
			ParamTypes: []ir.ValueType{ir.Number},
			Eval: func(args []ir.Value) (ir.Value, error) {
				n, err := args[0].Number()
				if err != nil {
					return ir.Value{}, err
				}
				return ir.NewNumber(n.Abs()), nil
			},
		},
		{
			// round(x, places) rounds half to even.
			Name:       "round",
			ReturnType: ir.Number,
			ParamTypes: []ir.ValueType{ir.Number, ir.Number},
			Eval: func(args []ir.Value) (ir.Value, error) {
				n, err := args[0].Number()
				if err != nil {
					return ir.Value{}, err
				}
				places, err := args[1].Number()
				if err != nil {
					return ir.Value{}, err
				}
				return ir.NewNumber(n.RoundBank(int32(places.IntPart()))), nil
			},
		},
		{
			Name:       "date",
			ReturnType: ir.Date,
			ParamTypes: []ir.ValueType{ir.String},
			Eval: func(args []ir.Value) (ir.Value, error) {
				s, err := args[0].Text()
				if err != nil {
					return ir.Value{}, err
				}
				t, err := time.Parse(ir.DateLayout, s)
				if err != nil {
					return ir.Value{}, fmt.Errorf("date %q: expected YYYY-MM-DD", s)
				}
				return ir.NewDate(t), nil
			},
		},
		{
			Name:       "len",
			ReturnType: ir.Number,
			ParamTypes: []ir.ValueType{ir.String},
			Eval: func(args []ir.Value) (ir.Value, error) {
				s, err := args[0].Text()
				if err != nil {
					return ir.Value{}, err
				}
				return ir.NewInt(int64(utf8.RuneCountInString(s))), nil
			},
		},
	}
}

// extreme returns the argument that wins pred against every other one.
func extreme(wins func(c int) bool) Eval {
	return func(args []ir.Value) (ir.Value, error) {
		best, err := args[0].Number()
		if err != nil {
			return ir.Value{}, err
		}
		for _, a := range args[1:] {
			n, err := a.Number()
			if err != nil {
				return ir.Value{}, err
			}
			if wins(n.Cmp(best)) {
				best = n
			}
		}
		return ir.NewNumber(best), nil
	}
}
