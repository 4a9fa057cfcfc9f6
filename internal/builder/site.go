package builder

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"stencil/internal/config"
	"stencil/internal/metrics"
)

// BuildOptions tune a build without changing its output.
type BuildOptions struct {
	// Jobs bounds how many content blocks register, and how many builders
	// build, at the same time. Values below 1 mean one.
	Jobs     int
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NoopRecorder{}
	}
	return o
}

// Report summarises a finished build.
type Report struct {
	// Artefacts counts the artefacts registered with each builder.
	Artefacts map[string]int
	Duration  time.Duration
}

// Total returns the number of artefacts across all builders.
func (r Report) Total() int {
	total := 0
	for _, n := range r.Artefacts {
		total += n
	}
	return total
}

// Site routes content blocks to builders and drives the two build passes.
type Site struct {
	content  []config.ContentBlock
	builders map[string]Builder
	opts     BuildOptions
}

// NewSite constructs one builder per declared builder spec.
func NewSite(cfg *config.Config, opts BuildOptions) (*Site, error) {
	opts = opts.withDefaults()
	builders := make(map[string]Builder, len(cfg.Builders))
	for _, name := range slices.Sorted(maps.Keys(cfg.Builders)) {
		spec := cfg.Builders[name]
		b, err := New(name, spec, opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug("Constructed builder", "builder", name, "flavor", spec.Flavor)
		builders[name] = b
	}
	return NewSiteWithBuilders(cfg.Content, builders, opts), nil
}

// NewSiteWithBuilders wires already constructed builders.
func NewSiteWithBuilders(content []config.ContentBlock, builders map[string]Builder, opts BuildOptions) *Site {
	return &Site{content: content, builders: builders, opts: opts.withDefaults()}
}

// BuildSite builds the site described by cfg into outputDirectory.
func BuildSite(ctx context.Context, cfg *config.Config, outputDirectory string, opts BuildOptions) (Report, error) {
	site, err := NewSite(cfg, opts)
	if err != nil {
		return Report{}, err
	}
	return site.Build(ctx, NewBuildContext(outputDirectory, cfg.Variables))
}

// Build registers every artefact exactly once, then asks every builder to
// build. No builder starts building before registration has finished.
func (s *Site) Build(ctx context.Context, bctx *BuildContext) (Report, error) {
	start := time.Now()
	report, err := s.build(ctx, bctx)
	report.Duration = time.Since(start)

	rec := s.opts.Recorder
	rec.ObserveBuildDuration(report.Duration)
	switch {
	case err == nil:
		rec.IncBuildOutcome(metrics.OutcomeSuccess)
	case errors.Is(err, context.Canceled):
		rec.IncBuildOutcome(metrics.OutcomeCanceled)
	default:
		rec.IncBuildOutcome(metrics.OutcomeFailed)
	}
	return report, err
}

func (s *Site) build(ctx context.Context, bctx *BuildContext) (Report, error) {
	log := s.opts.Logger
	report := Report{Artefacts: make(map[string]int, len(s.builders))}

	for _, block := range s.content {
		if _, ok := s.builders[block.Builder]; !ok {
			return report, &UnknownBuilderError{Name: block.Builder}
		}
	}

	passStart := time.Now()
	counts, err := s.register(ctx, bctx)
	if err != nil {
		return report, err
	}
	s.opts.Recorder.ObservePassDuration(metrics.PassRegister, time.Since(passStart))
	for name, n := range counts {
		report.Artefacts[name] = n
		s.opts.Recorder.AddArtefacts(name, string(s.builders[name].Flavor()), n)
	}
	log.Info("Registered content", "artefacts", report.Total(), "names", bctx.Len())

	passStart = time.Now()
	if err := s.buildAll(ctx, bctx); err != nil {
		return report, err
	}
	s.opts.Recorder.ObservePassDuration(metrics.PassBuild, time.Since(passStart))
	log.Info("Built site", "output_directory", bctx.OutputDirectory)
	return report, nil
}

// register runs the registration pass, one content block per job.
func (s *Site) register(ctx context.Context, bctx *BuildContext) (map[string]int, error) {
	perBlock := make([]int, len(s.content))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Jobs)
	for i, block := range s.content {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			artefacts, err := EnumerateContent(block)
			if err != nil {
				return err
			}
			b := s.builders[block.Builder]
			for _, artefact := range artefacts {
				s.opts.Logger.Debug("Adding artefact to builder", "source", artefact.Source, "builder", block.Builder)
				if err := b.Register(bctx, artefact); err != nil {
					return zerr.With(zerr.Wrap(err, "failed to register content"), "builder", block.Builder)
				}
			}
			perBlock[i] = len(artefacts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(s.builders))
	for name := range s.builders {
		counts[name] = 0
	}
	for i, block := range s.content {
		counts[block.Builder] += perBlock[i]
	}
	return counts, nil
}

// buildAll runs the build pass, one builder per job. The first failure
// cancels the builders still running.
func (s *Site) buildAll(ctx context.Context, bctx *BuildContext) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Jobs)
	for _, name := range slices.Sorted(maps.Keys(s.builders)) {
		b := s.builders[name]
		g.Go(func() error {
			if err := b.Build(gctx, bctx); err != nil {
				return zerr.With(zerr.Wrap(err, "builder failed"), "builder", name)
			}
			return nil
		})
	}
	return g.Wait()
}

// EnumerateContent returns an artefact for every regular file directly inside
// the block's source directory, in file name order. Subdirectories are not
// descended into.
func EnumerateContent(block config.ContentBlock) ([]Artefact, error) {
	entries, err := os.ReadDir(block.SourceDirectory)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to enumerate content"), "source_directory", block.SourceDirectory)
	}

	var artefacts []Artefact
	for _, entry := range entries {
		source := filepath.Join(block.SourceDirectory, entry.Name())
		info, err := os.Stat(source)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to stat content"), "source", source)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		artefacts = append(artefacts, Artefact{
			Source:      source,
			Destination: filepath.Join(block.OutputDirectory, entry.Name()),
		})
	}
	return artefacts, nil
}
