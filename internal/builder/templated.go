package builder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"go.trai.ch/zerr"

	"stencil/internal/metadata"
)

// templatedParams are the parameters shared by the templated flavors.
type templatedParams struct {
	TemplateDirectory string `yaml:"template_directory"`
	Recursive         bool   `yaml:"recursive"`
	MaxPasses         int    `yaml:"max_passes"`
}

func (p templatedParams) validate() error {
	if p.TemplateDirectory == "" {
		return zerr.New("missing required parameter \"template_directory\"")
	}
	if p.MaxPasses < 0 {
		return zerr.With(zerr.New("max_passes must not be negative"), "max_passes", p.MaxPasses)
	}
	return nil
}

// templated renders each artefact's body through a named template. The
// Markdown and HTML flavors differ only in how the body becomes content.
type templated struct {
	collection
	flavor    Flavor
	engine    *Engine
	recursive bool
	maxPasses int
	logger    *slog.Logger
	convert   func(bctx *BuildContext, body string) (string, error)
}

func (t *templated) setup(name string, flavor Flavor, p templatedParams, logger *slog.Logger) {
	t.name = name
	t.flavor = flavor
	t.engine = NewEngine(p.TemplateDirectory)
	t.recursive = p.Recursive
	t.maxPasses = p.MaxPasses
	t.logger = logger
}

func (t *templated) Flavor() Flavor {
	return t.flavor
}

// Register publishes the artefact under its "name" metadata, falling back to
// the source file name when the name is absent or blank.
func (t *templated) Register(bctx *BuildContext, artefact Artefact) error {
	t.add(artefact)

	meta, _, err := metadata.ReadFile(artefact.Source)
	if err != nil {
		return err
	}
	name, ok := registrationName(meta)
	if !ok {
		name = filepath.Base(artefact.Source)
	}

	if bctx.Register(name, artefact, meta) {
		t.logger.Debug("Replaced registered content", "name", name, "source", artefact.Source)
	} else {
		t.logger.Debug("Registered content", "name", name, "source", artefact.Source)
	}
	return nil
}

func (t *templated) Build(ctx context.Context, bctx *BuildContext) error {
	for _, artefact := range t.Artefacts() {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := t.render(bctx, artefact)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to build artefact"), "source", artefact.Source)
		}
		if err := writeOutputString(bctx, artefact, out); err != nil {
			return err
		}
		t.logger.Debug("Built artefact", "source", artefact.Source, "url", artefact.URL())
	}
	return nil
}

func (t *templated) render(bctx *BuildContext, artefact Artefact) (string, error) {
	meta, body, err := metadata.ReadFile(artefact.Source)
	if err != nil {
		return "", err
	}

	templateName, ok := meta.String("template")
	if !ok {
		return "", &NoTemplateError{Source: artefact.Source}
	}

	content, err := t.convert(bctx, body)
	if err != nil {
		return "", err
	}

	out, err := t.engine.Render(templateName, bindings(&content, meta, bctx))
	if err != nil {
		return "", err
	}
	if !t.recursive {
		return out, nil
	}
	return t.engine.Expand(out, meta, bctx, t.maxPasses)
}

// registrationName formats the "name" metadata value. Zero values such as
// "", 0, false and empty lists count as no name.
func registrationName(meta metadata.Metadata) (string, bool) {
	switch v := meta["name"].(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		return "true", v
	case float64:
		return fmt.Sprint(v), v != 0
	case []any:
		return fmt.Sprint(v), len(v) > 0
	case map[string]any:
		return fmt.Sprint(v), len(v) > 0
	default:
		return fmt.Sprint(v), true
	}
}
