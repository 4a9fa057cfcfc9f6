package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"text/template/parse"

	"go.trai.ch/zerr"

	"stencil/internal/metadata"
)

// DefaultMaxPasses bounds recursive expansion when a builder sets no limit.
const DefaultMaxPasses = 64

// orEmptyFunc is appended to every printing action so that missing values
// render as nothing instead of "<no value>".
const orEmptyFunc = "orEmpty"

// Engine renders the templates found in one directory. Every regular file
// below the directory is a template named by its slash-separated path
// relative to it, and all of them are parsed into one set so they can include
// each other with {{template "partials/nav.html" .}}.
//
// Output is not escaped, so a pass may yield template source for the next one.
//
// The directory is parsed on first use. An Engine is safe for concurrent use.
type Engine struct {
	dir   string
	funcs template.FuncMap

	once sync.Once
	set  *template.Template
	err  error
}

// NewEngine returns an engine for the templates under dir.
func NewEngine(dir string) *Engine {
	return &Engine{dir: dir, funcs: templateFuncs()}
}

// Directory returns the template search directory.
func (e *Engine) Directory() string {
	return e.dir
}

// Render executes the template called name with data.
func (e *Engine) Render(name string, data any) (string, error) {
	set, err := e.load()
	if err != nil {
		return "", err
	}

	tmpl := set.Lookup(name)
	if tmpl == nil {
		return "", &TemplateNotFoundError{Name: name, Directory: e.dir}
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to render template"), "template", name)
	}
	return out.String(), nil
}

// Expand treats current as template source and renders it again with the
// metadata and build context, repeating until a pass returns its own input.
// maxPasses counts the re-renders, including the one that confirms the fixed
// point; zero or less selects DefaultMaxPasses.
func (e *Engine) Expand(current string, meta metadata.Metadata, bctx *BuildContext, maxPasses int) (string, error) {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	data := bindings(nil, meta, bctx)

	for pass := 1; pass <= maxPasses; pass++ {
		tmpl, err := template.New("expansion").Funcs(e.funcs).Parse(current)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to parse expanded output"), "pass", pass)
		}
		blankMissing(tmpl)

		var out strings.Builder
		if err := tmpl.Execute(&out, data); err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to render expanded output"), "pass", pass)
		}

		next := out.String()
		if next == current {
			return current, nil
		}
		current = next
	}
	return "", &RecursionLimitExceededError{Passes: maxPasses}
}

func (e *Engine) load() (*template.Template, error) {
	e.once.Do(func() {
		e.set, e.err = parseDirectory(e.dir, e.funcs)
	})
	return e.set, e.err
}

// parseDirectory parses every file below dir. A missing directory yields an
// empty set, so lookups fail with TemplateNotFoundError.
func parseDirectory(dir string, funcs template.FuncMap) (*template.Template, error) {
	set := template.New("").Funcs(funcs)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := set.New(filepath.ToSlash(rel)).Parse(string(src)); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to parse template"), "template", rel)
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load templates"), "directory", dir)
	}
	blankMissing(set)
	return set, nil
}

// blankMissing pipes the result of every printing action in set through
// orEmptyFunc.
func blankMissing(set *template.Template) {
	for _, tmpl := range set.Templates() {
		if tmpl.Tree != nil {
			appendOrEmpty(tmpl.Tree.Root)
		}
	}
}

func appendOrEmpty(node parse.Node) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			appendOrEmpty(child)
		}
	case *parse.ActionNode:
		if len(n.Pipe.Decl) > 0 {
			return
		}
		n.Pipe.Cmds = append(n.Pipe.Cmds, &parse.CommandNode{
			NodeType: parse.NodeCommand,
			Pos:      n.Pos,
			Args:     []parse.Node{parse.NewIdentifier(orEmptyFunc).SetTree(nil).SetPos(n.Pos)},
		})
	case *parse.IfNode:
		appendOrEmpty(n.List)
		appendOrEmpty(n.ElseList)
	case *parse.RangeNode:
		appendOrEmpty(n.List)
		appendOrEmpty(n.ElseList)
	case *parse.WithNode:
		appendOrEmpty(n.List)
		appendOrEmpty(n.ElseList)
	}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		orEmptyFunc: func(value any) any {
			if value == nil {
				return ""
			}
			return value
		},
		"safe": func(s string) string { return s },
		"default": func(fallback, value any) any {
			if value == nil || value == "" {
				return fallback
			}
			return value
		},
		"join": func(sep string, items []any) string {
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = fmt.Sprint(item)
			}
			return strings.Join(parts, sep)
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
