package builder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtefact_URL(t *testing.T) {
	tests := []struct {
		destination string
		want        string
	}{
		{destination: "index.html", want: "/index.html"},
		{destination: filepath.Join("blog", "posts", "first.md"), want: "/blog/posts/first.md"},
		{destination: filepath.Join(".", "about.html"), want: "/about.html"},
		{destination: "", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.destination, func(t *testing.T) {
			a := Artefact{Source: "src", Destination: tt.destination}
			assert.Equal(t, tt.want, a.URL())
		})
	}
}
