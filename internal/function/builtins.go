package function

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/calc/internal/ir"
)

// Built-in operator symbols. Expression front-ends map their own operator
// spelling onto these names.
const (
	OpNegate = "unary-"
	OpNot    = "!"
	OpAdd    = "+"
	OpSub    = "-"
	OpMul    = "*"
	OpDiv    = "/"
	OpMod    = "%"
	OpEq     = "="
	OpNe     = "!="
	OpGt     = ">"
	OpLt     = "<"
	OpGe     = ">="
	OpLe     = "<="
	OpAnd    = "&"
	OpOr     = "|"
)

// ErrDivisionByZero is returned by / and % when the divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

// ErrDateOutOfRange is returned when a date is shifted by more than
// maxDayShift days.
var ErrDateOutOfRange = errors.New("date shift out of range")

const (
	secondsPerDay = 24 * 60 * 60
	maxDayShift   = 3_660_000 // about 10000 years
)

// Builtins returns a fresh copy of the built-in operator table.
//
// Arithmetic and comparison symbols are overloaded across types; each
// overload has its own signature key, e.g. "+(number,number)" and
// "+(string,string)". Equality on enumerations and other composite types
// goes through the "=(any,any)" overload, which requires both operands to
// share one type.
func Builtins() []*Function {
	fns := []*Function{
		unary(OpNegate, ir.Number, ir.Number, func(v ir.Value) (ir.Value, error) {
			n, err := v.Number()
			if err != nil {
				return ir.Value{}, err
			}
			return ir.NewNumber(n.Neg()), nil
		}),
		unary(OpNot, ir.Boolean, ir.Boolean, func(v ir.Value) (ir.Value, error) {
			b, err := v.Bool()
			if err != nil {
				return ir.Value{}, err
			}
			return ir.NewBool(!b), nil
		}),

		arith(OpAdd, func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Add(b), nil }),
		arith(OpSub, func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Sub(b), nil }),
		arith(OpMul, func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Mul(b), nil }),
		arith(OpDiv, func(a, b decimal.Decimal) (decimal.Decimal, error) {
			if b.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			return a.Div(b), nil
		}),
		arith(OpMod, func(a, b decimal.Decimal) (decimal.Decimal, error) {
			if b.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			return a.Mod(b), nil
		}),

		binary(OpAdd, ir.String, ir.String, ir.String, func(a, b ir.Value) (ir.Value, error) {
			return ir.NewString(a.String() + b.String()), nil
		}),
		binary(OpAdd, ir.Date, ir.Number, ir.Date, shiftDate(1)),
		binary(OpSub, ir.Date, ir.Number, ir.Date, shiftDate(-1)),
		binary(OpSub, ir.Date, ir.Date, ir.Number, func(a, b ir.Value) (ir.Value, error) {
			da, err := a.Date()
			if err != nil {
				return ir.Value{}, err
			}
			db, err := b.Date()
			if err != nil {
				return ir.Value{}, err
			}
			return ir.NewInt((da.Unix() - db.Unix()) / secondsPerDay), nil
		}),

		logic(OpAnd, func(a, b bool) bool { return a && b }),
		logic(OpOr, func(a, b bool) bool { return a || b }),
	}

	for _, t := range []ir.ValueType{ir.Number, ir.String, ir.Boolean, ir.Date, ir.Timestamp} {
		fns = append(fns,
			binary(OpEq, t, t, ir.Boolean, equality(true)),
			binary(OpNe, t, t, ir.Boolean, equality(false)),
		)
	}
	for _, t := range []ir.ValueType{ir.Number, ir.String, ir.Date, ir.Timestamp} {
		fns = append(fns,
			binary(OpGt, t, t, ir.Boolean, ordering(func(c int) bool { return c > 0 })),
			binary(OpLt, t, t, ir.Boolean, ordering(func(c int) bool { return c < 0 })),
			binary(OpGe, t, t, ir.Boolean, ordering(func(c int) bool { return c >= 0 })),
			binary(OpLe, t, t, ir.Boolean, ordering(func(c int) bool { return c <= 0 })),
		)
	}

	eq := binary(OpEq, ir.Any, ir.Any, ir.Boolean, equality(true))
	eq.SameType = true
	ne := binary(OpNe, ir.Any, ir.Any, ir.Boolean, equality(false))
	ne.SameType = true
	return append(fns, eq, ne)
}

func unary(name string, param, ret ir.ValueType, fn func(ir.Value) (ir.Value, error)) *Function {
	return &Function{
		Name:       name,
		ReturnType: ret,
		ParamTypes: []ir.ValueType{param},
		Eval: func(args []ir.Value) (ir.Value, error) {
			return fn(args[0])
		},
	}
}

func binary(name string, left, right, ret ir.ValueType, fn func(a, b ir.Value) (ir.Value, error)) *Function {
	return &Function{
		Name:       name,
		ReturnType: ret,
		ParamTypes: []ir.ValueType{left, right},
		Eval: func(args []ir.Value) (ir.Value, error) {
			return fn(args[0], args[1])
		},
	}
}

func arith(name string, op func(a, b decimal.Decimal) (decimal.Decimal, error)) *Function {
	return binary(name, ir.Number, ir.Number, ir.Number, func(a, b ir.Value) (ir.Value, error) {
		x, err := a.Number()
		if err != nil {
			return ir.Value{}, err
		}
		y, err := b.Number()
		if err != nil {
			return ir.Value{}, err
		}
		r, err := op(x, y)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.NewNumber(r), nil
	})
}

func logic(name string, op func(a, b bool) bool) *Function {
	return binary(name, ir.Boolean, ir.Boolean, ir.Boolean, func(a, b ir.Value) (ir.Value, error) {
		x, err := a.Bool()
		if err != nil {
			return ir.Value{}, err
		}
		y, err := b.Bool()
		if err != nil {
			return ir.Value{}, err
		}
		return ir.NewBool(op(x, y)), nil
	})
}

func equality(want bool) func(a, b ir.Value) (ir.Value, error) {
	return func(a, b ir.Value) (ir.Value, error) {
		return ir.NewBool(a.Equal(b) == want), nil
	}
}

func ordering(pred func(int) bool) func(a, b ir.Value) (ir.Value, error) {
	return func(a, b ir.Value) (ir.Value, error) {
		c, err := a.Compare(b)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.NewBool(pred(c)), nil
	}
}

// shiftDate moves a date by a whole number of days; fractional days are
// truncated toward zero.
func shiftDate(sign int64) func(a, b ir.Value) (ir.Value, error) {
	return func(a, b ir.Value) (ir.Value, error) {
		d, err := a.Date()
		if err != nil {
			return ir.Value{}, err
		}
		n, err := b.Number()
		if err != nil {
			return ir.Value{}, err
		}
		days := n.Truncate(0)
		if days.Abs().GreaterThan(decimal.NewFromInt(maxDayShift)) {
			return ir.Value{}, fmt.Errorf("%w: %s days", ErrDateOutOfRange, days)
		}
		return ir.NewDate(d.AddDate(0, 0, int(sign*days.IntPart()))), nil
	}
}
