package builder

import "log/slog"

type markdownParams struct {
	TemplateDirectory  string   `yaml:"template_directory"`
	MarkdownExtensions []string `yaml:"markdown_extensions"`
	Recursive          bool     `yaml:"recursive"`
	MaxPasses          int      `yaml:"max_passes"`
	Sanitize           bool     `yaml:"sanitize"`
}

// MarkdownBuilder converts Markdown bodies to HTML and renders them through
// the template named in each file's metadata.
type MarkdownBuilder struct {
	templated
	converter *markdownConverter
}

func newMarkdownBuilder(name string, raw map[string]any, logger *slog.Logger) (Builder, error) {
	var p markdownParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, &BuilderConfigError{Builder: name, Flavor: FlavorMarkdown, Err: err}
	}
	shared := templatedParams{
		TemplateDirectory: p.TemplateDirectory,
		Recursive:         p.Recursive,
		MaxPasses:         p.MaxPasses,
	}
	if err := shared.validate(); err != nil {
		return nil, &BuilderConfigError{Builder: name, Flavor: FlavorMarkdown, Err: err}
	}

	converter, err := newMarkdownConverter(p.MarkdownExtensions, p.Sanitize, logger)
	if err != nil {
		return nil, &BuilderConfigError{Builder: name, Flavor: FlavorMarkdown, Err: err}
	}

	b := &MarkdownBuilder{converter: converter}
	b.setup(name, FlavorMarkdown, shared, logger)
	b.convert = converter.Convert
	return b, nil
}
