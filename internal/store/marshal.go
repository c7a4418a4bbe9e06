package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/calc/internal/ir"
)

// marshalStrings converts a name->text map to canonical JSON TEXT.
// A nil map is stored as "{}".
func marshalStrings(m map[string]string) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// marshalErrors converts run errors to canonical JSON TEXT.
// A nil slice is stored as "[]".
func marshalErrors(errs []ir.RunError) (string, error) {
	if errs == nil {
		return "[]", nil
	}
	data, err := ir.MarshalCanonical(errs)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings parses JSON TEXT to a map. "{}" yields nil so that
// records round-trip the way they were written.
func unmarshalStrings(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return m, nil
}

// unmarshalErrors parses JSON TEXT to run errors.
func unmarshalErrors(data string) ([]ir.RunError, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var errs []ir.RunError
	if err := json.Unmarshal([]byte(data), &errs); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return errs, nil
}

// unmarshalDictionary parses stored canonical JSON back to a dictionary.
func unmarshalDictionary(data string) (*ir.Dictionary, error) {
	var d ir.Dictionary
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("unmarshal dictionary: %w", err)
	}
	return &d, nil
}
