package builder

import "log/slog"

// HTMLBuilder renders HTML bodies through the template named in each file's
// metadata, without converting them first.
type HTMLBuilder struct {
	templated
}

func newHTMLBuilder(name string, raw map[string]any, logger *slog.Logger) (Builder, error) {
	var p templatedParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, &BuilderConfigError{Builder: name, Flavor: FlavorHTML, Err: err}
	}
	if err := p.validate(); err != nil {
		return nil, &BuilderConfigError{Builder: name, Flavor: FlavorHTML, Err: err}
	}

	b := &HTMLBuilder{}
	b.setup(name, FlavorHTML, p, logger)
	b.convert = func(_ *BuildContext, body string) (string, error) {
		return body, nil
	}
	return b, nil
}
