// internal/builder/models.go
package builder

import (
	"path"
	"path/filepath"
	"strings"

	"stencil/internal/metadata"
)

// Artefact is one discovered source file paired with where its output goes,
// relative to the build's output directory.
type Artefact struct {
	Source      string
	Destination string
}

// URL returns the site-absolute URL of the artefact's output.
func (a Artefact) URL() string {
	dest := path.Clean(filepath.ToSlash(a.Destination))
	if dest == "." {
		return "/"
	}
	return "/" + strings.TrimPrefix(dest, "/")
}

// Entry is a registered piece of content as seen by templates.
type Entry struct {
	Metadata metadata.Metadata
	Artefact Artefact
}

// bindings builds the data handed to a template. content is omitted on the
// recursive expansion passes.
func bindings(content *string, meta metadata.Metadata, bctx *BuildContext) map[string]any {
	data := map[string]any{
		"metadata": meta,
		"ctx":      bctx,
	}
	if content != nil {
		data["content"] = *content
	}
	return data
}
