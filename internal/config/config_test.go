package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "content": [
    {"source_directory": "content/pages", "output_directory": "pages", "builder": "pages"},
    {"source_directory": "content/static", "output_directory": "static", "builder": "assets"}
  ],
  "builders": {
    "pages": {"flavor": "MarkdownBuilder", "config": {"template_directory": "templates", "recursive": true}},
    "assets": {"flavor": "StaticBuilder", "config": {}}
  },
  "variables": {"site_name": "Example", "nav": {"depth": 2}}
}`

func TestParse_ValidJSON(t *testing.T) {
	cfg, err := Parse([]byte(validJSON))
	require.NoError(t, err)

	require.Len(t, cfg.Content, 2)
	assert.Equal(t, ContentBlock{SourceDirectory: "content/pages", OutputDirectory: "pages", Builder: "pages"}, cfg.Content[0])
	assert.Equal(t, "MarkdownBuilder", cfg.Builders["pages"].Flavor)
	assert.Equal(t, "templates", cfg.Builders["pages"].Config["template_directory"])
	assert.Equal(t, true, cfg.Builders["pages"].Config["recursive"])
	assert.Equal(t, "Example", cfg.Variables["site_name"])
	assert.Equal(t, map[string]any{"depth": 2}, cfg.Variables["nav"])
}

func TestParse_ValidYAML(t *testing.T) {
	doc := `
content:
  - source_directory: content
    output_directory: ""
    builder: html
builders:
  html:
    flavor: HTMLBuilder
    config:
      template_directory: templates
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "HTMLBuilder", cfg.Builders["html"].Flavor)
	assert.Empty(t, cfg.Content[0].OutputDirectory)
}

func TestParse_VariablesOptional(t *testing.T) {
	cfg, err := Parse([]byte(`{"content": [], "builders": {}}`))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Variables)
	assert.Empty(t, cfg.Variables)
}

func TestParse_ValidationProblems(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "empty document",
			doc:  "",
			want: []string{"config document is empty"},
		},
		{
			name: "missing top-level keys",
			doc:  `{"variables": {}}`,
			want: []string{`missing required key "content"`, `missing required key "builders"`},
		},
		{
			name: "missing flavor",
			doc:  `{"content": [], "builders": {"pages": {"config": {}}}}`,
			want: []string{`builders.pages: missing required key "flavor"`},
		},
		{
			name: "content block gaps",
			doc:  `{"content": [{"output_directory": "x"}], "builders": {}}`,
			want: []string{
				`content[0]: missing required key "source_directory"`,
				`content[0]: missing required key "builder"`,
			},
		},
		{
			name: "missing output directory",
			doc:  `{"content": [{"source_directory": "c", "builder": "pages"}], "builders": {"pages": {"flavor": "StaticBuilder"}}}`,
			want: []string{`content[0]: missing required key "output_directory"`},
		},
		{
			name: "undeclared builder",
			doc:  `{"content": [{"source_directory": "c", "output_directory": "", "builder": "nope"}], "builders": {}}`,
			want: []string{`content[0]: builder "nope" is not declared`},
		},
		{
			name: "unknown key",
			doc:  `{"content": [], "builders": {}, "plugins": []}`,
			want: []string{"plugins"},
		},
		{
			name: "wrong type",
			doc:  `{"content": "everything", "builders": {}}`,
			want: []string{"cannot unmarshal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			joined := strings.Join(vErr.Problems, "\n")
			for _, want := range tt.want {
				assert.Contains(t, joined, want)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stencil.json")
	require.NoError(t, os.WriteFile(path, []byte(validJSON), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Len(t, cfg.Builders, 2)
}

func TestLoad_Stdin(t *testing.T) {
	cfg, err := Load(Stdin, strings.NewReader(validJSON))
	require.NoError(t, err)
	assert.Len(t, cfg.Content, 2)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidWrapsValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stencil.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"content": []}`), 0o644))

	_, err := Load(path, nil)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}
