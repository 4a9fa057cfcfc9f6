// internal/builder/static.go
package builder

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

type staticParams struct {
	// Symlink is accepted for compatibility; outputs are always copies.
	Symlink bool `yaml:"symlink"`
}

// StaticBuilder copies its artefacts byte for byte. It never parses them, so
// it handles binary assets.
type StaticBuilder struct {
	collection
	symlink bool
	logger  *slog.Logger
}

func newStaticBuilder(name string, raw map[string]any, logger *slog.Logger) (Builder, error) {
	var p staticParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, &BuilderConfigError{Builder: name, Flavor: FlavorStatic, Err: err}
	}
	return &StaticBuilder{
		collection: collection{name: name},
		symlink:    p.Symlink,
		logger:     logger,
	}, nil
}

func (s *StaticBuilder) Flavor() Flavor {
	return FlavorStatic
}

// Register publishes the artefact under its file name with empty metadata.
func (s *StaticBuilder) Register(bctx *BuildContext, artefact Artefact) error {
	s.add(artefact)
	name := filepath.Base(artefact.Source)
	bctx.Register(name, artefact, nil)
	s.logger.Debug("Registered content", "name", name, "source", artefact.Source)
	return nil
}

func (s *StaticBuilder) Build(ctx context.Context, bctx *BuildContext) error {
	for _, artefact := range s.Artefacts() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := copyArtefact(bctx, artefact); err != nil {
			return err
		}
		s.logger.Debug("Copied artefact", "source", artefact.Source, "url", artefact.URL())
	}
	return nil
}

// copyArtefact copies the source bytes and permission bits.
func copyArtefact(bctx *BuildContext, artefact Artefact) error {
	src, err := os.Open(artefact.Source)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open static file"), "source", artefact.Source)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat static file"), "source", artefact.Source)
	}
	return writeOutput(bctx, artefact, src, info.Mode().Perm())
}
