package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"borrowlisp/interpreter-go/pkg/diag"
)

// Fixture is a recorded program together with the outcome it must produce.
type Fixture struct {
	Path        string             `yaml:"-"`
	Description string             `yaml:"description"`
	Source      string             `yaml:"source"`
	Render      RenderMode         `yaml:"render"`
	Expect      FixtureExpectation `yaml:"expect"`
}

// FixtureExpectation lists what a fixture checks. Empty fields are not checked.
type FixtureExpectation struct {
	// Values are the rendered results of the evaluated forms, in order.
	Values []string `yaml:"values"`
	// Type is the analyzed type of the last form.
	Type   string  `yaml:"type"`
	Stdout *string `yaml:"stdout"`
	// Error is the expected failure category, e.g. UseAfterMoveError.
	Error   string `yaml:"error"`
	Message string `yaml:"message"`
}

// LoadFixture decodes one fixture file.
func LoadFixture(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	var fixture Fixture
	if err := decoder.Decode(&fixture); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("fixture: %s is empty", path)
		}
		return nil, fmt.Errorf("fixture: parse %s: %w", path, err)
	}
	fixture.Path = path
	if strings.TrimSpace(fixture.Source) == "" {
		return nil, fmt.Errorf("fixture: %s has no source", path)
	}
	return &fixture, nil
}

// LoadFixtures loads every *.yml fixture in dir, sorted by file name.
func LoadFixtures(dir string) ([]*Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	fixtures := make([]*Fixture, 0, len(paths))
	for _, path := range paths {
		fixture, err := LoadFixture(path)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}

// Name is the fixture's file name without extension.
func (f *Fixture) Name() string {
	return strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
}

// Run executes the fixture in a fresh session and reports the first mismatch.
func (f *Fixture) Run() error {
	var stdout bytes.Buffer
	session := NewSession(SessionOptions{Stdout: &stdout, Render: f.Render})
	outcomes, err := session.Run(f.Source)

	expect := f.Expect
	if expect.Error != "" {
		if err == nil {
			return fmt.Errorf("expected %s, program succeeded", expect.Error)
		}
		if got := diag.CategoryOf(err); string(got) != expect.Error {
			return fmt.Errorf("expected %s, got %v", expect.Error, err)
		}
		if expect.Message != "" && !strings.Contains(err.Error(), expect.Message) {
			return fmt.Errorf("expected error mentioning %q, got %v", expect.Message, err)
		}
	} else if err != nil {
		return fmt.Errorf("unexpected error: %w", err)
	}

	if len(expect.Values) > 0 {
		if len(outcomes) != len(expect.Values) {
			return fmt.Errorf("expected %d values, got %d", len(expect.Values), len(outcomes))
		}
		for idx, want := range expect.Values {
			if got := outcomes[idx].Rendered; got != want {
				return fmt.Errorf("form %d: expected %s, got %s", idx, want, got)
			}
		}
	}
	if expect.Type != "" {
		if len(outcomes) == 0 {
			return fmt.Errorf("expected type %s, nothing was evaluated", expect.Type)
		}
		if got := outcomes[len(outcomes)-1].Type.Name(); got != expect.Type {
			return fmt.Errorf("expected type %s, got %s", expect.Type, got)
		}
	}
	if expect.Stdout != nil && stdout.String() != *expect.Stdout {
		return fmt.Errorf("expected stdout %q, got %q", *expect.Stdout, stdout.String())
	}
	return nil
}
