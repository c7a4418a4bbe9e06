package harness

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a set of calculations against one dictionary.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dictionary is the path of the dictionary under test.
	// LoadScenario resolves it relative to the scenario file.
	Dictionary string `yaml:"dictionary"`

	// Cases are run in order, each in a fresh Calculate call.
	Cases []Case `yaml:"cases"`
}

// Case is one calculation and its expected outcome.
type Case struct {
	Name   string          `yaml:"name"`
	Inputs map[string]Text `yaml:"inputs"`
	Expect Expectation     `yaml:"expect"`
}

// Expectation specifies the expected outcome of a case.
type Expectation struct {
	// OK is required. A pointer so that a missing field is caught.
	OK *bool `yaml:"ok"`

	// Outputs is a subset match against the rendered outputs.
	Outputs map[string]Text `yaml:"outputs,omitempty"`

	// Errors, when present, must match the logged errors exactly.
	Errors []ExpectedError `yaml:"errors,omitempty"`
}

// ExpectedError is one expected calculation error.
type ExpectedError struct {
	Name    string `yaml:"name"`
	Message string `yaml:"message"`
}

// Text is a scalar taken verbatim from the YAML source. Numbers keep their
// written form (300000.00 stays "300000.00") and null reads as "".
type Text string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Text) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	if n.Tag == "!!null" {
		*t = ""
		return nil
	}
	*t = Text(n.Value)
	return nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return DecodeScenario(bytes.NewReader(data), filepath.Dir(path))
}

// DecodeScenario parses a scenario document, resolving a relative
// dictionary path against baseDir.
func DecodeScenario(r io.Reader, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // catches "case:" vs "cases:"
	if err := decoder.Decode(&scenario); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Dictionary != "" && !filepath.IsAbs(scenario.Dictionary) && baseDir != "" {
		scenario.Dictionary = filepath.Join(baseDir, scenario.Dictionary)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Dictionary == "" {
		return fmt.Errorf("dictionary is required")
	}
	if _, err := os.Stat(s.Dictionary); os.IsNotExist(err) {
		return fmt.Errorf("dictionary not found: %s", s.Dictionary)
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Expect.OK == nil {
			return fmt.Errorf("cases[%d].expect: ok is required", i)
		}
		if *c.Expect.OK && len(c.Expect.Errors) > 0 {
			return fmt.Errorf("cases[%d].expect: errors given for a case expected to succeed", i)
		}
		if !*c.Expect.OK && len(c.Expect.Outputs) > 0 {
			return fmt.Errorf("cases[%d].expect: outputs given for a case expected to fail", i)
		}
		for j, e := range c.Expect.Errors {
			if e.Message == "" {
				return fmt.Errorf("cases[%d].expect.errors[%d]: message is required", i, j)
			}
		}
	}
	return nil
}

// inputs converts the case inputs to the raw strings Calculate takes.
func (c Case) inputs() map[string]string {
	out := make(map[string]string, len(c.Inputs))
	for k, v := range c.Inputs {
		out[k] = string(v)
	}
	return out
}
