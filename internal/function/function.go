package function

import (
	"fmt"
	"strings"

	"github.com/roach88/calc/internal/ir"
)

// Eval computes a function result from already-evaluated arguments.
// Arguments have been checked against the signature before Eval is called.
type Eval func(args []ir.Value) (ir.Value, error)

// Function is a named operation with a typed signature.
//
// A function is immutable once registered. ParamTypes entries equal to
// ir.Any match every argument type. When Variadic is set the last
// parameter type may repeat zero or more times.
type Function struct {
	Name       string
	ReturnType ir.ValueType
	ParamTypes []ir.ValueType
	Variadic   bool
	SameType   bool // every argument must have the same type
	Eval       Eval
}

// Key returns the signature-qualified key of the function, e.g.
// "+(number,number)" or "max(number,number...)".
func (f *Function) Key() string {
	key := SignatureKey(f.Name, f.ParamTypes)
	if f.Variadic {
		key = key[:len(key)-1] + "...)"
	}
	return key
}

// SignatureKey builds the canonical "name(type,type)" lookup key.
func SignatureKey(name string, types []ir.ValueType) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, t := range types {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Check validates argument types against the signature.
//
// Fixed functions need exact arity with a per-position match. Variadic
// functions need at least len(ParamTypes)-1 arguments; the fixed prefix is
// matched position by position and every remaining argument must match the
// last parameter type.
func (f *Function) Check(args []ir.ValueType) error {
	if err := f.checkPositions(args); err != nil {
		return err
	}
	if f.SameType {
		for i := 1; i < len(args); i++ {
			if args[i] != args[0] {
				return f.positionError(i, args[0], args[i])
			}
		}
	}
	return nil
}

func (f *Function) checkPositions(args []ir.ValueType) error {
	n := len(f.ParamTypes)
	if !f.Variadic {
		if len(args) != n {
			return &SignatureError{Function: f.Name, Message: fmt.Sprintf("expects %d argument(s), got %d", n, len(args))}
		}
		for i, at := range args {
			if !f.ParamTypes[i].Accepts(at) {
				return f.positionError(i, f.ParamTypes[i], at)
			}
		}
		return nil
	}

	if n == 0 {
		return &SignatureError{Function: f.Name, Message: "variadic function declares no parameters"}
	}
	fixed := n - 1
	if len(args) < fixed {
		return &SignatureError{Function: f.Name, Message: fmt.Sprintf("expects at least %d argument(s), got %d", fixed, len(args))}
	}
	for i := 0; i < fixed; i++ {
		if !f.ParamTypes[i].Accepts(args[i]) {
			return f.positionError(i, f.ParamTypes[i], args[i])
		}
	}
	last := f.ParamTypes[fixed]
	for i := fixed; i < len(args); i++ {
		if !last.Accepts(args[i]) {
			return f.positionError(i, last, args[i])
		}
	}
	return nil
}

// Call invokes the function. Argument types were checked when the call
// site was built.
func (f *Function) Call(args []ir.Value) (ir.Value, error) {
	if f.Eval == nil {
		return ir.Value{}, fmt.Errorf("%s: no implementation", f.Name)
	}
	return f.Eval(args)
}

func (f *Function) positionError(i int, want, got ir.ValueType) error {
	return &SignatureError{
		Function: f.Name,
		Message:  fmt.Sprintf("argument %d must be %s, got %s", i+1, want, got),
	}
}

// SignatureError reports arguments that do not fit a function signature.
type SignatureError struct {
	Function string
	Message  string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("function %q: %s", e.Function, e.Message)
}
