package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is a suite definition file, describing which scripts to run and
// how.
type Definition struct {
	Name            string     `yaml:"name"`
	Description     string     `yaml:"description"`
	TestPath        string     `yaml:"test_path"`
	Filter          string     `yaml:"filter"`
	Exclude         []string   `yaml:"exclude"`
	TimeoutMillis   int64      `yaml:"timeout"`
	PromoteFailures bool       `yaml:"promote_failures"`
	StopOnFailure   bool       `yaml:"stop_on_failure"`
	Variables       []Variable `yaml:"variables"`
}

// Variable is a named value scripts can read at runtime.
type Variable struct {
	Name        string `yaml:"name"`
	Value       string `yaml:"value"`
	Description string `yaml:"description,omitempty"`
}

// LoadDefinition reads a suite definition from path.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition decodes a suite definition. Unknown keys are rejected.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	if def.TimeoutMillis < 0 {
		return nil, fmt.Errorf("parse definition: timeout must not be negative, got %d", def.TimeoutMillis)
	}

	seen := make(map[string]bool, len(def.Variables))
	for _, v := range def.Variables {
		if v.Name == "" {
			return nil, fmt.Errorf("parse definition: variable without a name")
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("parse definition: duplicate variable %q", v.Name)
		}
		seen[v.Name] = true
	}

	return &def, nil
}

// VariableMap returns the variables keyed by name.
func (d *Definition) VariableMap() map[string]string {
	vars := make(map[string]string, len(d.Variables))
	for _, v := range d.Variables {
		vars[v.Name] = v.Value
	}
	return vars
}
