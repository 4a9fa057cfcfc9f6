// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"go.trai.ch/zerr"
)

// ConfigFile is the name of the configuration written by NewSite.
const ConfigFile = "stencil.json"

// NotesDirectory holds the Markdown notes of a scaffolded site.
const NotesDirectory = "notes"

// ErrNotEmpty is returned when NewSite targets a directory with files in it.
var ErrNotEmpty = errors.New("directory is not empty")

// NewSite writes a starter project into dir and returns the files it created,
// relative to dir. The project builds with `stencil build project -c stencil.json`
// run from dir.
func NewSite(dir, title string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, zerr.With(zerr.Wrap(err, "failed to inspect directory"), "directory", dir)
	case len(entries) > 0:
		return nil, zerr.With(zerr.Wrap(ErrNotEmpty, "refusing to scaffold"), "directory", dir)
	}

	if title == "" {
		title = "My Site"
	}
	cfg, err := renderSiteConfig(title)
	if err != nil {
		return nil, err
	}

	files := []struct{ path, content string }{
		{ConfigFile, cfg},
		{filepath.Join("templates", "page.html"), pageTemplate},
		{filepath.Join("templates", "partials", "nav.html"), navTemplate},
		{filepath.Join("pages", "index.html"), indexPage},
		{filepath.Join(NotesDirectory, "welcome.html"), welcomeNote},
		{filepath.Join("static", "style.css"), stylesheet},
	}

	created := make([]string, 0, len(files))
	for _, f := range files {
		full := filepath.Join(dir, f.path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create directory"), "directory", filepath.Dir(full))
		}
		if err := os.WriteFile(full, []byte(f.content), 0o644); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to write file"), "file", full)
		}
		created = append(created, f.path)
	}
	return created, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a file name stem.
func Slug(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// NewNote writes a Markdown note titled title into dir and returns its path.
// An existing note is never overwritten.
func NewNote(dir, title string) (string, error) {
	slug := Slug(title)
	if slug == "" {
		return "", zerr.With(zerr.New("title has no usable characters"), "title", title)
	}

	header, err := json.Marshal(map[string]any{
		"template": "page.html",
		"title":    title,
		"section":  NotesDirectory,
	})
	if err != nil {
		return "", zerr.Wrap(err, "failed to encode note header")
	}

	var out bytes.Buffer
	err = noteArchetype.Execute(&out, struct {
		Header string
		Title  string
	}{Header: string(header), Title: title})
	if err != nil {
		return "", zerr.Wrap(err, "failed to execute note archetype")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create directory"), "directory", dir)
	}
	path := filepath.Join(dir, slug+".html")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create note"), "file", path)
	}
	if _, err := f.Write(out.Bytes()); err != nil {
		_ = f.Close()
		return "", zerr.With(zerr.Wrap(err, "failed to write note"), "file", path)
	}
	if err := f.Close(); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to write note"), "file", path)
	}
	return path, nil
}

func renderSiteConfig(title string) (string, error) {
	cfg := map[string]any{
		"content": []map[string]string{
			{"source_directory": "pages", "output_directory": "", "builder": "pages"},
			{"source_directory": NotesDirectory, "output_directory": NotesDirectory, "builder": "notes"},
			{"source_directory": "static", "output_directory": "static", "builder": "assets"},
		},
		"builders": map[string]any{
			"pages": map[string]any{
				"flavor": "HTMLBuilder",
				"config": map[string]any{"template_directory": "templates", "recursive": true},
			},
			"notes": map[string]any{
				"flavor": "MarkdownBuilder",
				"config": map[string]any{
					"template_directory":  "templates",
					"markdown_extensions": []string{"extra", "toc", "smarty"},
				},
			},
			"assets": map[string]any{"flavor": "StaticBuilder"},
		},
		"variables": map[string]any{"site_title": title},
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", zerr.Wrap(err, "failed to encode site config")
	}
	return string(data) + "\n", nil
}

var noteArchetype = template.Must(template.New("note").Parse(`---
{{.Header}}
---
# {{.Title}}

Write your note here. Link back [home](@index.html).
`))

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.metadata.title}} | {{index .ctx.Variables "site_title"}}</title>
  <link rel="stylesheet" href="/static/style.css">
</head>
<body>
{{template "partials/nav.html" .}}
<main>
{{.content}}
</main>
</body>
</html>
`

const navTemplate = `<nav>
  <a href="/index.html">Home</a>
  {{- range .ctx.ByMetadata "section" "notes"}}
  <a href="{{.Artefact.URL}}">{{index .Metadata "title"}}</a>
  {{- end}}
</nav>`

const indexPage = `---
{"template": "page.html", "title": "Home"}
---
<h1>{{index .ctx.Variables "site_title"}}</h1>
<p>Start with the <a href="{{(.ctx.ByName "welcome").URL}}">welcome note</a>.</p>
`

const welcomeNote = `---
{"template": "page.html", "title": "Welcome", "name": "welcome", "section": "notes"}
---
# Welcome

This note is written in Markdown. Go back [home](@index.html).
`

const stylesheet = `body {
  font-family: system-ui, sans-serif;
  max-width: 42rem;
  margin: 2rem auto;
  line-height: 1.5;
}

nav a {
  margin-right: 1rem;
}
`
