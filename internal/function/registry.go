package function

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/calc/internal/ir"
)

// Registry resolves function calls by name and argument types.
//
// A Registry is built once by NewRegistry and is read-only afterwards, so a
// single instance can be shared by every engine and goroutine. There is no
// process-wide registry: callers construct one and pass it to the compiler.
//
// INVARIANTS:
//   - Every built-in is present under its signature key
//   - Custom function names are case-folded and never shadow a built-in
//   - Overloads of one name are tried in registration order
type Registry struct {
	byKey   map[string]*Function
	byName  map[string][]*Function
	builtin map[string]bool
}

// foldName case-folds a function name. A Caser is stateful, so one is
// created per call.
func foldName(s string) string {
	return cases.Fold().String(s)
}

// NewRegistry returns a registry holding the built-in operators merged with
// the given custom functions.
//
// Custom names are matched case-insensitively. A custom function whose name
// collides with a built-in, or whose signature duplicates another custom
// function, is rejected; every such problem is reported in the joined error.
func NewRegistry(custom ...*Function) (*Registry, error) {
	r := &Registry{
		byKey:   make(map[string]*Function),
		byName:  make(map[string][]*Function),
		builtin: make(map[string]bool),
	}
	for _, f := range Builtins() {
		r.add(f)
		r.builtin[f.Name] = true
	}

	var errs []error
	for _, f := range custom {
		if err := r.addCustom(f); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
// Use only in tests or with a known-good function set.
func MustNewRegistry(custom ...*Function) *Registry {
	r, err := NewRegistry(custom...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) addCustom(f *Function) error {
	if f == nil || strings.TrimSpace(f.Name) == "" {
		return &RegistrationError{Message: "custom function must have a name"}
	}
	if f.Eval == nil {
		return &RegistrationError{Name: f.Name, Message: "custom function must have an implementation"}
	}
	name := foldName(strings.TrimSpace(f.Name))
	if r.builtin[name] {
		return &RegistrationError{Name: f.Name, Message: "name collides with a built-in function"}
	}

	cp := *f
	cp.Name = name
	cp.ParamTypes = slices.Clone(f.ParamTypes)
	if _, dup := r.byKey[cp.Key()]; dup {
		return &RegistrationError{Name: f.Name, Message: fmt.Sprintf("duplicate signature %s", cp.Key())}
	}
	r.add(&cp)
	return nil
}

func (r *Registry) add(f *Function) {
	r.byKey[f.Key()] = f
	r.byName[f.Name] = append(r.byName[f.Name], f)
}

// Lookup resolves a call of name with the given argument types.
//
// The exact signature key is tried first; otherwise each overload of the
// name is checked in registration order and the first that accepts the
// arguments wins.
func (r *Registry) Lookup(name string, args []ir.ValueType) (*Function, error) {
	name = foldName(name)
	if f, ok := r.byKey[SignatureKey(name, args)]; ok && !f.Variadic {
		return f, nil
	}

	overloads := r.byName[name]
	if len(overloads) == 0 {
		return nil, &LookupError{Name: name, Args: args, Unknown: true}
	}
	var last error
	for _, f := range overloads {
		if err := f.Check(args); err != nil {
			last = err
			continue
		}
		return f, nil
	}
	if len(overloads) == 1 {
		return nil, last
	}
	return nil, &LookupError{Name: name, Args: args}
}

// Get returns the function registered under a signature key.
func (r *Registry) Get(key string) (*Function, bool) {
	f, ok := r.byKey[key]
	return f, ok
}

// RegistrationError reports a custom function that cannot be merged.
type RegistrationError struct {
	Name    string
	Message string
}

func (e *RegistrationError) Error() string {
	if e.Name == "" {
		return "register function: " + e.Message
	}
	return fmt.Sprintf("register function %q: %s", e.Name, e.Message)
}

// LookupError reports a call that no registered function accepts.
type LookupError struct {
	Name    string
	Args    []ir.ValueType
	Unknown bool // no function of that name at all
}

func (e *LookupError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("unknown function %q", e.Name)
	}
	return fmt.Sprintf("no overload of %q accepts %s", e.Name, SignatureKey(e.Name, e.Args))
}
