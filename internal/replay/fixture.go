package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTolerance applies to expectations that do not set one.
const DefaultTolerance = 1e-6

// #region fixture-types

// Fixture is a scripted list of runs with expected metrics. It is written in
// YAML; JSON documents parse as well.
type Fixture struct {
	Description string       `yaml:"description" json:"description"`
	Runs        []FixtureRun `yaml:"runs" json:"runs"`
}

// FixtureRun sets parameters on one scenario and checks the derived metrics.
type FixtureRun struct {
	Scenario   string                 `yaml:"scenario" json:"scenario"`
	Params     map[string]string      `yaml:"params,omitempty" json:"params,omitempty"`
	Annotation string                 `yaml:"annotation,omitempty" json:"annotation,omitempty"`
	Record     bool                   `yaml:"record,omitempty" json:"record,omitempty"`
	Expect     map[string]Expectation `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expectation is the expected reading of one metric. Text, when set, is
// compared verbatim instead of Value.
type Expectation struct {
	Value     float64 `yaml:"value" json:"value"`
	Tolerance float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	Text      string  `yaml:"text,omitempty" json:"text,omitempty"`
}

func (e Expectation) tolerance() float64 {
	if e.Tolerance > 0 {
		return e.Tolerance
	}
	return DefaultTolerance
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes a YAML or JSON fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty fixture")
		}
		return nil, err
	}
	for i, r := range f.Runs {
		if r.Scenario == "" {
			return nil, fmt.Errorf("run %d: missing scenario", i+1)
		}
	}
	return &f, nil
}

// WriteFixture encodes f as YAML.
func WriteFixture(w io.Writer, f *Fixture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}

// #endregion fixture-loader
