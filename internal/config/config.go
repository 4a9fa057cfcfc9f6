// Package config loads and validates the project configuration that drives a
// build: which directories hold content, which builder handles each of them,
// and the global variables handed to every template.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Stdin is the config path that selects standard input.
const Stdin = "-"

// Config is a validated project configuration. The `yaml` tags also match the
// JSON documents the CLI is normally given, since JSON is valid YAML.
type Config struct {
	Content   []ContentBlock         `yaml:"content"`
	Builders  map[string]BuilderSpec `yaml:"builders"`
	Variables map[string]any         `yaml:"variables"`
}

// ContentBlock routes every file directly inside SourceDirectory to Builder.
type ContentBlock struct {
	SourceDirectory string `yaml:"source_directory"`
	OutputDirectory string `yaml:"output_directory"`
	Builder         string `yaml:"builder"`
}

// BuilderSpec declares one builder. Flavor picks the strategy and Config holds
// its construction parameters.
type BuilderSpec struct {
	Flavor string         `yaml:"flavor"`
	Config map[string]any `yaml:"config"`
}

// ValidationError lists every problem found in a configuration document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "stencil config malformed: " + strings.Join(e.Problems, "; ")
}

// Load reads the configuration at path, or from stdin when path is Stdin.
func Load(path string, stdin io.Reader) (*Config, error) {
	var (
		data []byte
		err  error
	)
	if path == Stdin {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "could not read config file"), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "could not load config"), "path", path)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Problems: []string{"config document is empty"}}
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{Problems: typeErr.Errors}
		}
		return nil, zerr.Wrap(err, "could not parse config")
	}

	// An empty output_directory names the output root, so only the raw
	// document can tell an absent key from a blank one.
	var keys struct {
		Content []map[string]any `yaml:"content"`
	}
	_ = yaml.Unmarshal(data, &keys)
	declared := func(i int) bool {
		if i >= len(keys.Content) {
			return true
		}
		_, ok := keys.Content[i]["output_directory"]
		return ok
	}

	if err := cfg.validate(declared); err != nil {
		return nil, err
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]any{}
	}
	return &cfg, nil
}

// Validate reports every structural problem in the configuration at once.
func (c *Config) Validate() error {
	return c.validate(func(int) bool { return true })
}

// validate is Validate with outputDeclared reporting whether content block i
// spelled out its output_directory key.
func (c *Config) validate(outputDeclared func(i int) bool) error {
	var problems []string
	if c.Content == nil {
		problems = append(problems, "missing required key \"content\"")
	}
	if c.Builders == nil {
		problems = append(problems, "missing required key \"builders\"")
	}

	for _, name := range slices.Sorted(maps.Keys(c.Builders)) {
		if c.Builders[name].Flavor == "" {
			problems = append(problems, fmt.Sprintf("builders.%s: missing required key \"flavor\"", name))
		}
	}

	for i, block := range c.Content {
		if block.SourceDirectory == "" {
			problems = append(problems, fmt.Sprintf("content[%d]: missing required key \"source_directory\"", i))
		}
		if !outputDeclared(i) {
			problems = append(problems, fmt.Sprintf("content[%d]: missing required key \"output_directory\"", i))
		}
		if block.Builder == "" {
			problems = append(problems, fmt.Sprintf("content[%d]: missing required key \"builder\"", i))
			continue
		}
		if _, ok := c.Builders[block.Builder]; !ok && c.Builders != nil {
			problems = append(problems, fmt.Sprintf("content[%d]: builder %q is not declared", i, block.Builder))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
