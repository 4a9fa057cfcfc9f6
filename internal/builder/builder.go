// internal/builder/builder.go
package builder

//go:generate mockgen -source=builder.go -destination=mocks/builder_mock.go -package=mocks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"stencil/internal/config"
)

// Flavor selects the strategy a builder applies to its content.
type Flavor string

const (
	FlavorMarkdown Flavor = "MarkdownBuilder"
	FlavorHTML     Flavor = "HTMLBuilder"
	FlavorStatic   Flavor = "StaticBuilder"
)

// Builder turns the artefacts routed to it into output files.
//
// Every Register call of a build happens before the first Build call, since
// templates may reference content registered with any builder.
type Builder interface {
	// Name returns the name the builder was declared under.
	Name() string
	// Flavor returns the strategy the builder implements.
	Flavor() Flavor
	// Register adds an artefact and publishes it in the build context.
	Register(bctx *BuildContext, artefact Artefact) error
	// Build writes the output of every registered artefact.
	Build(ctx context.Context, bctx *BuildContext) error
}

type constructor func(name string, params map[string]any, logger *slog.Logger) (Builder, error)

var constructors = map[Flavor]constructor{
	FlavorMarkdown: newMarkdownBuilder,
	FlavorHTML:     newHTMLBuilder,
	FlavorStatic:   newStaticBuilder,
}

// Flavors lists the known flavors.
func Flavors() []Flavor {
	flavors := make([]Flavor, 0, len(constructors))
	for f := range constructors {
		flavors = append(flavors, f)
	}
	slices.Sort(flavors)
	return flavors
}

// New constructs the builder declared as name by spec.
func New(name string, spec config.BuilderSpec, logger *slog.Logger) (Builder, error) {
	construct, ok := constructors[Flavor(spec.Flavor)]
	if !ok {
		return nil, &UnknownBuilderFlavorError{Builder: name, Flavor: spec.Flavor}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return construct(name, spec.Config, logger.With("builder", name))
}

// decodeParams copies a builder's raw config into a typed parameter struct.
// Unknown keys and mistyped values are rejected.
func decodeParams(raw map[string]any, out any) error {
	if len(raw) == 0 {
		return nil
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// collection is the artefact list every strategy keeps.
type collection struct {
	name string

	mu        sync.Mutex
	artefacts []Artefact
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) add(artefact Artefact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artefacts = append(c.artefacts, artefact)
}

// Artefacts returns the registered artefacts in registration order.
func (c *collection) Artefacts() []Artefact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.artefacts)
}
