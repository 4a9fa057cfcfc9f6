// internal/builder/render.go
package builder

import (
	"bytes"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"go.trai.ch/zerr"
)

// markdownConverter turns a Markdown body into HTML for one builder.
type markdownConverter struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func newMarkdownConverter(extensions []string, sanitize bool, logger *slog.Logger) (*markdownConverter, error) {
	features, err := resolveMarkdownFeatures(extensions)
	if err != nil {
		return nil, err
	}

	var (
		extenders  []goldmark.Extender
		parserOpts = []parser.Option{
			parser.WithASTTransformers(
				util.Prioritized(newCrossReferenceTransformer(logger), 100),
			),
		}
		// Raw HTML in the body passes through unless sanitize is set.
		rendererOpts = []renderer.Option{html.WithUnsafe()}
	)
	for _, f := range features {
		if f.extender != nil {
			extenders = append(extenders, f.extender)
		}
		if f.parser != nil {
			parserOpts = append(parserOpts, f.parser)
		}
		if f.renderer != nil {
			rendererOpts = append(rendererOpts, f.renderer)
		}
	}

	c := &markdownConverter{
		md: goldmark.New(
			goldmark.WithExtensions(extenders...),
			goldmark.WithParserOptions(parserOpts...),
			goldmark.WithRendererOptions(rendererOpts...),
		),
	}
	if sanitize {
		c.sanitizer = bluemonday.UGCPolicy()
	}
	return c, nil
}

// Convert renders body to HTML, resolving cross-references against bctx.
func (c *markdownConverter) Convert(bctx *BuildContext, body string) (string, error) {
	pc := parser.NewContext()
	pc.Set(buildContextKey, bctx)

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(body), &buf, parser.WithContext(pc)); err != nil {
		return "", zerr.Wrap(err, "failed to render markdown with goldmark")
	}

	if c.sanitizer != nil {
		return string(c.sanitizer.SanitizeBytes(buf.Bytes())), nil
	}
	return buf.String(), nil
}
