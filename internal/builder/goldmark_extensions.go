// internal/builder/goldmark_extensions.go
package builder

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// CrossReferencePrefix marks a link destination as the registered name of
// another piece of content, as in [About](@about.md).
const CrossReferencePrefix = "@"

var buildContextKey = parser.NewContextKey()

// crossReferenceTransformer rewrites @name link and image destinations to the
// URL of the content registered under name.
type crossReferenceTransformer struct {
	logger *slog.Logger
}

func newCrossReferenceTransformer(logger *slog.Logger) parser.ASTTransformer {
	return &crossReferenceTransformer{logger: logger}
}

func (t *crossReferenceTransformer) Transform(node *ast.Document, _ text.Reader, pc parser.Context) {
	bctx, _ := pc.Get(buildContextKey).(*BuildContext)
	if bctx == nil {
		return
	}

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var dest *[]byte
		switch link := n.(type) {
		case *ast.Link:
			dest = &link.Destination
		case *ast.Image:
			dest = &link.Destination
		default:
			return ast.WalkContinue, nil
		}

		name, ok := bytes.CutPrefix(*dest, []byte(CrossReferencePrefix))
		if !ok || len(name) == 0 {
			return ast.WalkContinue, nil
		}
		target, found := bctx.LookupByName(string(name))
		if !found {
			t.logger.Warn("Unresolved cross-reference", "reference", string(name))
			return ast.WalkContinue, nil
		}
		*dest = []byte(target.URL())
		return ast.WalkContinue, nil
	})
}

// markdownFeature is one goldmark capability switched on by an extension name.
type markdownFeature struct {
	extender goldmark.Extender
	parser   parser.Option
	renderer renderer.Option
}

// markdownFeatures is keyed by the names accepted in markdown_extensions.
var markdownFeatures = map[string]markdownFeature{
	"tables":        {extender: extension.Table},
	"footnotes":     {extender: extension.Footnote},
	"def_list":      {extender: extension.DefinitionList},
	"attr_list":     {parser: parser.WithAttribute()},
	"toc":           {parser: parser.WithAutoHeadingID()},
	"nl2br":         {renderer: html.WithHardWraps()},
	"smarty":        {extender: extension.Typographer},
	"strikethrough": {extender: extension.Strikethrough},
	"tasklist":      {extender: extension.TaskList},
	"linkify":       {extender: extension.Linkify},
	// CommonMark already covers these.
	"fenced_code": {},
	"sane_lists":  {},
}

var markdownBundles = map[string][]string{
	"extra": {"tables", "footnotes", "def_list", "attr_list", "fenced_code"},
	"gfm":   {"tables", "strikethrough", "tasklist", "linkify"},
}

// resolveMarkdownFeatures expands bundle names and drops duplicates, keeping
// first-seen order.
func resolveMarkdownFeatures(names []string) ([]markdownFeature, error) {
	var resolved []string
	for _, raw := range names {
		name := strings.TrimPrefix(raw, "markdown.extensions.")
		members, ok := markdownBundles[name]
		if !ok {
			members = []string{name}
		}
		for _, member := range members {
			if _, known := markdownFeatures[member]; !known {
				return nil, &UnknownMarkdownExtensionError{Name: raw}
			}
			if !slices.Contains(resolved, member) {
				resolved = append(resolved, member)
			}
		}
	}

	features := make([]markdownFeature, 0, len(resolved))
	for _, name := range resolved {
		features = append(features, markdownFeatures[name])
	}
	return features, nil
}
