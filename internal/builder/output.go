package builder

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.trai.ch/zerr"
)

// writeOutput writes r to the artefact's destination under the output
// directory, creating parent directories. The file is replaced atomically so
// a failed build never leaves a truncated page behind.
func writeOutput(bctx *BuildContext, artefact Artefact, r io.Reader, perm fs.FileMode) error {
	dest := filepath.Join(bctx.OutputDirectory, artefact.Destination)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create output directory"), "destination", dest)
	}
	if err := atomic.WriteFile(dest, r); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write output"), "destination", dest)
	}
	if err := os.Chmod(dest, perm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to set output permissions"), "destination", dest)
	}
	return nil
}

func writeOutputString(bctx *BuildContext, artefact Artefact, content string) error {
	return writeOutput(bctx, artefact, bytes.NewReader([]byte(content)), 0o644)
}
