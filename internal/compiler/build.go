package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/rs/zerolog"

	"github.com/roach88/calc/internal/expr"
	"github.com/roach88/calc/internal/function"
	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/parser"
	"github.com/roach88/calc/internal/schema"
)

// BuildOption configures Build.
type BuildOption func(*builder)

// WithClock sets the clock date schemas measure their window from.
func WithClock(c ir.Clock) BuildOption {
	return func(b *builder) { b.clock = c }
}

// WithPositions attaches source positions to diagnostics. Keys are
// "dataElements.<name>", "schemas.<name>" and "validators[<i>]", as
// produced by LoadDictionary.
func WithPositions(pos map[string]token.Pos) BuildOption {
	return func(b *builder) { b.positions = pos }
}

// WithLogger sets the logger build diagnostics are reported to.
func WithLogger(l zerolog.Logger) BuildOption {
	return func(b *builder) { b.logger = l }
}

type builder struct {
	dict      *ir.Dictionary
	reg       *function.Registry
	clock     ir.Clock
	positions map[string]token.Pos
	logger    zerolog.Logger
	diags     []Diagnostic
}

// Build compiles a dictionary into an immutable Program.
//
// The pipeline is:
//  1. Validate the dictionary structure
//  2. Build an input parser per schema
//  3. Declare every variable (name, role, type)
//  4. Parse every calculator into a rule and attach it
//  5. Parse the inter-field validators
//  6. Dry-run every output and validator to reject circular dependencies
//
// Problems never stop the pipeline early: every diagnostic is collected
// and returned together in a *BuildError, and no Program is produced.
func Build(dict *ir.Dictionary, reg *function.Registry, opts ...BuildOption) (*Program, error) {
	if dict == nil {
		return nil, errors.New("compiler: dictionary is nil")
	}
	if reg == nil {
		return nil, errors.New("compiler: function registry is nil")
	}
	b := &builder{
		dict:   dict,
		reg:    reg,
		clock:  ir.SystemClock,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.diags = append(b.diags, Validate(dict)...)
	parsers := b.buildParsers()
	decls := b.declare(parsers)
	rules := decls.Rules()
	b.compileRules(decls, rules)
	checks := b.compileChecks(decls)
	vars := rules.Freeze()
	b.dryRun(vars, checks)

	if len(b.diags) > 0 {
		b.locate()
		for _, d := range b.diags {
			b.logger.Warn().
				Str("engine", dict.EngineID).
				Str("kind", string(d.Kind)).
				Str("code", d.Code).
				Str("entity", d.Entity).
				Msg(d.Message)
		}
		return nil, &BuildError{Diagnostics: b.diags}
	}

	hash, err := ir.DictionaryHash(dict)
	if err != nil {
		return nil, fmt.Errorf("hash dictionary: %w", err)
	}
	p := &Program{
		engineID:   dict.EngineID,
		hash:       hash,
		vars:       vars,
		inputs:     namesWithRole(vars, ir.RoleRequiredInput, ir.RoleOptionalInput),
		outputs:    namesWithRole(vars, ir.RoleOutput),
		validators: checks,
		messages:   dict.Messages,
	}
	b.logger.Debug().
		Str("engine", p.engineID).
		Str("hash", hash).
		Int("variables", len(vars)).
		Int("outputs", len(p.outputs)).
		Msg("dictionary compiled")
	return p, nil
}

func (b *builder) add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

func (b *builder) buildParsers() map[string]schema.Parser {
	parsers := make(map[string]schema.Parser, len(b.dict.Schemas))
	for _, name := range sortedKeys(b.dict.Schemas) {
		p, err := schema.FromSchema(name, b.dict.Schemas[name], b.dict.Enumerations, b.clock)
		if err != nil {
			for _, e := range unjoin(err) {
				msg := e.Error()
				var cfg *schema.ConfigError
				if errors.As(e, &cfg) {
					msg = cfg.Message
				}
				b.add(Diagnostic{Kind: KindConfig, Code: ErrInvalidSchema, Entity: name, Message: msg})
			}
			continue
		}
		parsers[name] = p
	}
	return parsers
}

func (b *builder) declare(parsers map[string]schema.Parser) *Declarations {
	decls := NewDeclarations()
	for _, name := range sortedKeys(b.dict.DataElements) {
		el := b.dict.DataElements[name]
		if !ir.ValidRoles[el.Type] {
			continue // reported by Validate
		}
		v := Variable{
			Name:      name,
			Role:      el.Type,
			Precision: el.DecimalPlaces,
			ErrorID:   el.ErrorID,
		}

		if el.Type.IsInput() {
			p, ok := parsers[el.SchemaName]
			if !ok {
				continue // missing or broken schema, already reported
			}
			v.Parser = p
			v.Type = p.Type()
			if el.DataType != "" {
				if dt, err := ir.ParseValueType(el.DataType); err != nil || dt != v.Type {
					b.add(Diagnostic{
						Kind:    KindConfig,
						Code:    ErrSchemaTypeMismatch,
						Entity:  name,
						Field:   "dataType",
						Message: fmt.Sprintf("dataType %q does not match schema %q of type %s", el.DataType, el.SchemaName, v.Type),
					})
				}
			}
		} else {
			if el.DataType == "" {
				continue // reported by Validate
			}
			t, err := ir.ParseValueType(el.DataType)
			if err != nil {
				b.add(Diagnostic{Kind: KindConfig, Code: ErrInvalidDataType, Entity: name, Field: "dataType", Message: err.Error()})
				continue
			}
			v.Type = t
		}

		if err := decls.Declare(v); err != nil {
			b.add(Diagnostic{Kind: KindInternal, Code: ErrInternal, Entity: name, Message: err.Error()})
		}
	}
	return decls
}

func (b *builder) compileRules(decls *Declarations, rules *Rules) {
	p := parser.New(b.reg, decls, b.dict.Enumerations)
	for _, name := range sortedKeys(b.dict.DataElements) {
		el := b.dict.DataElements[name]
		calc := el.Calculator
		typ, declared := decls.VariableType(name)
		if calc == nil || !declared || el.Type == ir.RoleRequiredInput {
			continue
		}

		ok := true
		parse := func(field, text string, want ir.ValueType) expr.Node {
			n, err := p.Parse(text, want)
			if err != nil {
				b.add(compileDiagnostic(name, field, err))
				ok = false
			}
			return n
		}

		def := parse("calculator.defaultExpression", calc.DefaultExpression, typ)
		branches := make([]expr.Branch, 0, len(calc.CalcSteps))
		for i, step := range calc.CalcSteps {
			field := fmt.Sprintf("calculator.calcSteps[%d]", i)
			when := parse(field+".when", step.When, ir.Boolean)
			then := parse(field+".value", step.Value, typ)
			branches = append(branches, expr.Branch{When: when, Then: then})
		}
		if !ok {
			continue
		}

		rule, err := expr.NewConditional(def, branches...)
		if err != nil {
			b.add(Diagnostic{Kind: KindInternal, Code: ErrInternal, Entity: name, Field: "calculator", Message: err.Error()})
			continue
		}
		if err := rules.Attach(name, rule); err != nil {
			b.add(Diagnostic{Kind: KindInternal, Code: ErrInternal, Entity: name, Field: "calculator", Message: err.Error()})
		}
	}
}

func (b *builder) compileChecks(decls *Declarations) []Check {
	p := parser.New(b.reg, decls, b.dict.Enumerations)
	var checks []Check
	for i, v := range b.dict.Validators {
		if v.ShouldBe == "" {
			continue // reported by Validate
		}
		n, err := p.Parse(v.ShouldBe, ir.Boolean)
		if err != nil {
			b.add(compileDiagnostic(fmt.Sprintf("validators[%d]", i), "shouldBe", err))
			continue
		}
		checks = append(checks, Check{Rule: n, MessageID: v.MessageID})
	}
	return checks
}

func (b *builder) dryRun(vars map[string]Variable, checks []Check) {
	dry := newDryRunner(vars)
	for _, name := range namesWithRole(vars, ir.RoleOutput) {
		dry.IsEvaluatable(name)
	}
	for _, c := range checks {
		c.Rule.IsReady(dry)
	}
	b.diags = append(b.diags, dry.diags...)
}

// locate fills in source positions from the loader.
func (b *builder) locate() {
	if len(b.positions) == 0 {
		return
	}
	for i := range b.diags {
		d := &b.diags[i]
		if d.Pos.IsValid() || d.Entity == "" {
			continue
		}
		for _, key := range []string{"dataElements." + d.Entity, "schemas." + d.Entity, d.Entity} {
			if pos, ok := b.positions[key]; ok {
				d.Pos = pos
				break
			}
		}
	}
}

func compileDiagnostic(entity, field string, err error) Diagnostic {
	d := Diagnostic{Kind: KindCompile, Code: ErrInvalidExpression, Entity: entity, Field: field, Message: err.Error()}
	var typeErr *parser.TypeError
	if errors.As(err, &typeErr) {
		d.Code = ErrExpressionType
	}
	return d
}

// unjoin flattens an errors.Join result.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
