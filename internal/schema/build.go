package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/calc/internal/ir"
)

// FromSchema builds the parser for a named dictionary schema.
//
// enums supplies the members of enumeration schemas. Every problem with the
// schema is returned, joined, as *ConfigError values.
func FromSchema(name string, s ir.ValueSchema, enums map[string]map[string]string, clock ir.Clock) (Parser, error) {
	cfgErr := func(format string, args ...any) error {
		return &ConfigError{Schema: name, Message: fmt.Sprintf(format, args...)}
	}

	if s.ValueType == "" {
		return nil, cfgErr("valueType is required")
	}
	text := s.ValueType
	if s.Enumeration != "" && !strings.Contains(text, ":") {
		text += ":" + s.Enumeration
	}
	vt, err := ir.ParseValueType(text)
	if err != nil {
		return nil, cfgErr("%v", err)
	}

	var errs []error
	switch vt.Kind() {
	case ir.KindNumber:
		if s.DecimalPlaces < 0 {
			errs = append(errs, cfgErr("nbrDecimalPlaces must not be negative"))
		}
		if s.Min != nil && s.Max != nil && s.Min.GreaterThan(*s.Max) {
			errs = append(errs, cfgErr("min %s is greater than max %s", s.Min, s.Max))
		}
		if len(errs) == 0 {
			return Number{Places: s.DecimalPlaces, Min: s.Min, Max: s.Max}, nil
		}

	case ir.KindString:
		p := String{}
		if s.MaxLength == nil {
			errs = append(errs, cfgErr("string schema must specify maxLength"))
		} else {
			p.MaxLength = *s.MaxLength
		}
		if s.MinLength != nil {
			p.MinLength = *s.MinLength
			if s.MaxLength != nil && p.MinLength > p.MaxLength {
				errs = append(errs, cfgErr("minLength %d is greater than maxLength %d", p.MinLength, p.MaxLength))
			}
		}
		if s.Regex != "" {
			re, err := regexp.Compile("^(?:" + s.Regex + ")$")
			if err != nil {
				errs = append(errs, cfgErr("invalid regex: %v", err))
			}
			p.Pattern = re
		}
		if len(errs) == 0 {
			return p, nil
		}

	case ir.KindDate:
		if s.DaysInPast != nil && *s.DaysInPast < 0 {
			errs = append(errs, cfgErr("daysInPast must not be negative"))
		}
		if s.DaysInFuture != nil && *s.DaysInFuture < 0 {
			errs = append(errs, cfgErr("daysInFuture must not be negative"))
		}
		if len(errs) == 0 {
			return Date{DaysInPast: s.DaysInPast, DaysInFuture: s.DaysInFuture, Clock: clock}, nil
		}

	case ir.KindBoolean:
		return Boolean{}, nil

	case ir.KindTimestamp:
		return Timestamp{}, nil

	case ir.KindEnum:
		enumName := vt.Name()
		if s.Enumeration != "" && s.Enumeration != enumName {
			return nil, cfgErr("enumeration %q conflicts with value type %s", s.Enumeration, vt)
		}
		members, ok := enums[enumName]
		if !ok {
			return nil, cfgErr("unknown enumeration %q", enumName)
		}
		if len(members) == 0 {
			return nil, cfgErr("enumeration %q has no members", enumName)
		}
		return Enum{Name: enumName, Members: members}, nil

	default:
		return nil, cfgErr("no parser for value type %s", vt)
	}
	return nil, errors.Join(errs...)
}
