package builder_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stencil/internal/builder"
	"stencil/internal/builder/mocks"
	"stencil/internal/config"
	"stencil/internal/metrics"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSite_RegistersEverythingBeforeBuilding(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	write(t, filepath.Join(root, "pages", "a.md"), "a")
	write(t, filepath.Join(root, "pages", "b.md"), "b")
	write(t, filepath.Join(root, "assets", "c.css"), "c")

	pages := mocks.NewMockBuilder(ctrl)
	assets := mocks.NewMockBuilder(ctrl)
	pages.EXPECT().Flavor().Return(builder.FlavorMarkdown).AnyTimes()
	assets.EXPECT().Flavor().Return(builder.FlavorStatic).AnyTimes()

	var registered atomic.Int32
	countRegister := func(*builder.BuildContext, builder.Artefact) error {
		registered.Add(1)
		return nil
	}
	checkBuild := func(context.Context, *builder.BuildContext) error {
		assert.EqualValues(t, 3, registered.Load())
		return nil
	}

	regA := pages.EXPECT().Register(gomock.Any(), builder.Artefact{
		Source:      filepath.Join(root, "pages", "a.md"),
		Destination: filepath.Join("site", "a.md"),
	}).DoAndReturn(countRegister).Times(1)
	regB := pages.EXPECT().Register(gomock.Any(), builder.Artefact{
		Source:      filepath.Join(root, "pages", "b.md"),
		Destination: filepath.Join("site", "b.md"),
	}).DoAndReturn(countRegister).Times(1)
	regC := assets.EXPECT().Register(gomock.Any(), builder.Artefact{
		Source:      filepath.Join(root, "assets", "c.css"),
		Destination: "c.css",
	}).DoAndReturn(countRegister).Times(1)

	gomock.InOrder(regA, regB)
	pages.EXPECT().Build(gomock.Any(), gomock.Any()).DoAndReturn(checkBuild).After(regA).After(regB).After(regC).Times(1)
	assets.EXPECT().Build(gomock.Any(), gomock.Any()).DoAndReturn(checkBuild).After(regA).After(regB).After(regC).Times(1)

	site := builder.NewSiteWithBuilders(
		[]config.ContentBlock{
			{SourceDirectory: filepath.Join(root, "pages"), OutputDirectory: "site", Builder: "pages"},
			{SourceDirectory: filepath.Join(root, "assets"), Builder: "assets"},
		},
		map[string]builder.Builder{"pages": pages, "assets": assets},
		builder.BuildOptions{Jobs: 4},
	)

	report, err := site.Build(context.Background(), builder.NewBuildContext(filepath.Join(root, "out"), nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pages": 2, "assets": 1}, report.Artefacts)
	assert.Equal(t, 3, report.Total())
}

func TestSite_RegisterErrorSkipsBuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	write(t, filepath.Join(root, "pages", "a.md"), "a")

	failure := errors.New("bad header")
	pages := mocks.NewMockBuilder(ctrl)
	pages.EXPECT().Flavor().Return(builder.FlavorMarkdown).AnyTimes()
	pages.EXPECT().Register(gomock.Any(), gomock.Any()).Return(failure)
	pages.EXPECT().Build(gomock.Any(), gomock.Any()).Times(0)

	site := builder.NewSiteWithBuilders(
		[]config.ContentBlock{{SourceDirectory: filepath.Join(root, "pages"), Builder: "pages"}},
		map[string]builder.Builder{"pages": pages},
		builder.BuildOptions{},
	)

	_, err := site.Build(context.Background(), builder.NewBuildContext(filepath.Join(root, "out"), nil))
	require.ErrorIs(t, err, failure)
	assert.ErrorContains(t, err, "failed to register content")
}

func TestSite_UnknownBuilder(t *testing.T) {
	ctrl := gomock.NewController(t)
	pages := mocks.NewMockBuilder(ctrl)

	site := builder.NewSiteWithBuilders(
		[]config.ContentBlock{{SourceDirectory: t.TempDir(), Builder: "posts"}},
		map[string]builder.Builder{"pages": pages},
		builder.BuildOptions{},
	)

	_, err := site.Build(context.Background(), builder.NewBuildContext(t.TempDir(), nil))
	var unknown *builder.UnknownBuilderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "posts", unknown.Name)
}

func TestSite_MissingSourceDirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	pages := mocks.NewMockBuilder(ctrl)
	pages.EXPECT().Flavor().Return(builder.FlavorHTML).AnyTimes()

	site := builder.NewSiteWithBuilders(
		[]config.ContentBlock{{SourceDirectory: filepath.Join(t.TempDir(), "missing"), Builder: "pages"}},
		map[string]builder.Builder{"pages": pages},
		builder.BuildOptions{},
	)

	_, err := site.Build(context.Background(), builder.NewBuildContext(t.TempDir(), nil))
	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
}

func TestEnumerateContent(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "b.md"), "b")
	write(t, filepath.Join(root, "a.md"), "a")
	write(t, filepath.Join(root, "nested", "c.md"), "c")

	artefacts, err := builder.EnumerateContent(config.ContentBlock{SourceDirectory: root, OutputDirectory: "blog"})
	require.NoError(t, err)
	assert.Equal(t, []builder.Artefact{
		{Source: filepath.Join(root, "a.md"), Destination: filepath.Join("blog", "a.md")},
		{Source: filepath.Join(root, "b.md"), Destination: filepath.Join("blog", "b.md")},
	}, artefacts)
}

type recordingRecorder struct {
	metrics.NoopRecorder
	outcomes  []metrics.Outcome
	artefacts map[string]int
}

func (r *recordingRecorder) IncBuildOutcome(o metrics.Outcome) {
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) AddArtefacts(name, _ string, n int) {
	r.artefacts[name] += n
}

func TestBuildSite_EndToEnd(t *testing.T) {
	root := t.TempDir()
	templates := filepath.Join(root, "templates")
	write(t, filepath.Join(templates, "page.html"), `<h1>{{.metadata.title}}</h1>{{.content}}<footer>{{index .ctx.Variables "author"}}</footer>`)
	write(t, filepath.Join(root, "content", "a.md"), "---\n{\"template\": \"page.html\", \"title\": \"A\"}\n---\nHello *world*.\n")
	write(t, filepath.Join(root, "static", "style.css"), "body{}")

	cfg := &config.Config{
		Content: []config.ContentBlock{
			{SourceDirectory: filepath.Join(root, "content"), Builder: "pages"},
			{SourceDirectory: filepath.Join(root, "static"), OutputDirectory: "static", Builder: "assets"},
		},
		Builders: map[string]config.BuilderSpec{
			"pages":  {Flavor: "MarkdownBuilder", Config: map[string]any{"template_directory": templates}},
			"assets": {Flavor: "StaticBuilder"},
		},
		Variables: map[string]any{"author": "Jo"},
	}

	out := filepath.Join(root, "out")
	rec := &recordingRecorder{artefacts: map[string]int{}}
	report, err := builder.BuildSite(context.Background(), cfg, out, builder.BuildOptions{Jobs: 2, Recorder: rec})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total())
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess}, rec.outcomes)
	assert.Equal(t, map[string]int{"pages": 1, "assets": 1}, rec.artefacts)

	page, err := os.ReadFile(filepath.Join(out, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>A</h1><p>Hello <em>world</em>.</p>\n<footer>Jo</footer>", string(page))

	css, err := os.ReadFile(filepath.Join(out, "static", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(css))
}

func TestBuildSite_NoTemplate(t *testing.T) {
	root := t.TempDir()
	templates := filepath.Join(root, "templates")
	write(t, filepath.Join(templates, "page.html"), `{{.content}}`)
	write(t, filepath.Join(root, "content", "a.md"), "---\n{\"template\": \"page.html\"}\n---\nfirst\n")
	write(t, filepath.Join(root, "content", "b.md"), "no header at all\n")

	cfg := &config.Config{
		Content: []config.ContentBlock{{SourceDirectory: filepath.Join(root, "content"), Builder: "pages"}},
		Builders: map[string]config.BuilderSpec{
			"pages": {Flavor: "MarkdownBuilder", Config: map[string]any{"template_directory": templates}},
		},
	}

	out := filepath.Join(root, "out")
	rec := &recordingRecorder{artefacts: map[string]int{}}
	_, err := builder.BuildSite(context.Background(), cfg, out, builder.BuildOptions{Recorder: rec})

	var noTemplate *builder.NoTemplateError
	require.ErrorAs(t, err, &noTemplate)
	assert.Equal(t, filepath.Join(root, "content", "b.md"), noTemplate.Source)
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeFailed}, rec.outcomes)

	assert.FileExists(t, filepath.Join(out, "a.md"))
	assert.NoFileExists(t, filepath.Join(out, "b.md"))
}

func TestBuildSite_UnknownFlavor(t *testing.T) {
	cfg := &config.Config{
		Content:  []config.ContentBlock{{SourceDirectory: t.TempDir(), Builder: "pages"}},
		Builders: map[string]config.BuilderSpec{"pages": {Flavor: "PDFBuilder"}},
	}

	_, err := builder.BuildSite(context.Background(), cfg, t.TempDir(), builder.BuildOptions{})
	var unknown *builder.UnknownBuilderFlavorError
	require.ErrorAs(t, err, &unknown)
}

func TestBuildSite_Canceled(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "static", "a.txt"), "a")
	cfg := &config.Config{
		Content:  []config.ContentBlock{{SourceDirectory: filepath.Join(root, "static"), Builder: "assets"}},
		Builders: map[string]config.BuilderSpec{"assets": {Flavor: "StaticBuilder"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recordingRecorder{artefacts: map[string]int{}}
	_, err := builder.BuildSite(ctx, cfg, filepath.Join(root, "out"), builder.BuildOptions{Recorder: rec})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeCanceled}, rec.outcomes)
	assert.NoFileExists(t, filepath.Join(root, "out", "a.txt"))
}
