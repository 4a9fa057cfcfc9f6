package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_BuildProject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "static", "robots.txt"), []byte("User-agent: *\n"), 0o644))
	t.Chdir(root)

	config := `{"content": [{"source_directory": "static", "output_directory": "", "builder": "copy"}],
		"builders": {"copy": {"flavor": "StaticBuilder", "config": {}}}}`

	var stdout, stderr bytes.Buffer
	code := run([]string{"build", "project", "-c", "-", "-o", "public"}, strings.NewReader(config), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	data, err := os.ReadFile(filepath.Join(root, "public", "robots.txt"))
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *\n", string(data))
}

func TestRun_FailurePrintsErrorChain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer

	code := run([]string{"build", "project", "-c", filepath.Join(t.TempDir(), "missing.json"), "-o", t.TempDir()}, nil, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: failed to load configuration")
	assert.Contains(t, stderr.String(), "Caused by:")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, nil, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, "stencil version dev\n", stdout.String())
}
