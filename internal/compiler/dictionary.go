package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/calc/internal/ir"
)

// CompileDictionary decodes a CUE value into a Dictionary.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the dictionary struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`engineId: "tax", dataElements: { ... }`)
//	dict, pos, err := CompileDictionary(v)
//
// The returned map holds the source position of every schema, data element
// and validator, keyed as accepted by WithPositions.
func CompileDictionary(v cue.Value) (*ir.Dictionary, map[string]token.Pos, error) {
	if err := v.Err(); err != nil {
		return nil, nil, formatCUEError(err)
	}

	dict := &ir.Dictionary{}
	pos := make(map[string]token.Pos)

	// engineId (required)
	idVal := v.LookupPath(cue.ParsePath("engineId"))
	if !idVal.Exists() {
		return nil, nil, &CompileError{
			Field:   "engineId",
			Message: "engineId is required",
			Pos:     v.Pos(),
		}
	}
	id, err := idVal.String()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}
	dict.EngineID = id

	// schemas (optional: a dictionary of only computed values needs none)
	dict.Schemas, err = decodeStruct[ir.ValueSchema](v, "schemas", pos)
	if err != nil {
		return nil, nil, err
	}

	// dataElements (required)
	if !v.LookupPath(cue.ParsePath("dataElements")).Exists() {
		return nil, nil, &CompileError{
			Field:   "dataElements",
			Message: "dataElements is required",
			Pos:     v.Pos(),
		}
	}
	dict.DataElements, err = decodeStruct[ir.DataElement](v, "dataElements", pos)
	if err != nil {
		return nil, nil, err
	}

	// validators (optional list)
	valVal := v.LookupPath(cue.ParsePath("validators"))
	if valVal.Exists() {
		iter, err := valVal.List()
		if err != nil {
			return nil, nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			var rule ir.Validator
			if err := iter.Value().Decode(&rule); err != nil {
				return nil, nil, formatCUEError(err)
			}
			pos[fmt.Sprintf("validators[%d]", i)] = iter.Value().Pos()
			dict.Validators = append(dict.Validators, rule)
		}
	}

	// messages (optional)
	dict.Messages, err = decodeStruct[string](v, "messages", nil)
	if err != nil {
		return nil, nil, err
	}

	// enumerations (optional)
	dict.Enumerations, err = decodeStruct[map[string]string](v, "enumerations", nil)
	if err != nil {
		return nil, nil, err
	}

	return dict, pos, nil
}

// decodeStruct decodes every field of the struct at path into a map,
// recording positions under "<path>.<label>" when pos is not nil.
func decodeStruct[T any](v cue.Value, path string, pos map[string]token.Pos) (map[string]T, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	out := make(map[string]T)
	for iter.Next() {
		label := iter.Selector().Unquoted()
		var item T
		if err := iter.Value().Decode(&item); err != nil {
			return nil, &CompileError{
				Field:   path + "." + label,
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		out[label] = item
		if pos != nil {
			pos[path+"."+label] = iter.Value().Pos()
		}
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
