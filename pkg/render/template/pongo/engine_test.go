package pongo_test

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdedarghal111/facturascripts/pkg/plugins"
	"github.com/abdedarghal111/facturascripts/pkg/render/template"
	"github.com/abdedarghal111/facturascripts/pkg/render/template/pongo"
	"github.com/abdedarghal111/facturascripts/pkg/testsupport"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "hello.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global.html.twig", nil, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-global.golden"))
	if result != want || written != want {
		t.Fatalf("render template mismatch\nwant: %q\n got: %q / %q", want, result, written)
	}
}

func TestEngine_TemplateFunc(t *testing.T) {
	engine, err := pongo.New(
		pongo.WithBaseDir(filepath.Join("testdata", "templates")),
		pongo.WithTemplateFunc(map[string]any{
			"shout": func(s string) string { return strings.ToUpper(s) + "!" },
		}),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderTemplate("use-func", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-func.golden"))
	if got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_RejectsNonCallableTemplateFunc(t *testing.T) {
	_, err := pongo.New(
		pongo.WithBaseDir(filepath.Join("testdata", "templates")),
		pongo.WithTemplateFunc(map[string]any{"nope": 42}),
	)
	if err == nil {
		t.Fatalf("expected error for non-callable template func")
	}
}

func TestEngine_RequiresSource(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
}

func TestEngine_ErrorKinds(t *testing.T) {
	engine, err := pongo.New(
		pongo.WithBaseDir(filepath.Join("testdata", "templates")),
		pongo.WithTemplateFunc(map[string]any{
			"fail": func() (string, error) { return "", errors.New("boom") },
		}),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	_, err = engine.RenderTemplate("broken", nil)
	if kind := template.KindOf(err); kind != template.KindSyntax {
		t.Fatalf("broken template: expected syntax kind, got %v (%v)", kind, err)
	}

	_, err = engine.RenderTemplate("fail", nil)
	if kind := template.KindOf(err); kind != template.KindRuntime {
		t.Fatalf("failing function: expected runtime kind, got %v (%v)", kind, err)
	}
}

func TestEngine_ResolverLoader(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Core/View/Master/Base.html.twig":             "[{% block body %}core{% endblock %}]",
		"Core/View/Page.html.twig":                    `{% extends "Master/Base.html.twig" %}{% block body %}page {% include "@PluginExtensionSales/note.html.twig" %}{% endblock %}`,
		"Plugins/Sales/Extension/View/note.html.twig": "note",
		"Plugins/Sales/View/Master/Base.html.twig":    "<{% block body %}sales{% endblock %}>",
	})

	r, err := views.Build(views.BuildOptions{Root: root, Debug: true, Plugins: plugins.Static{"Sales"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	engine, err := pongo.New(pongo.WithResolver(r), pongo.WithDebug(true))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderTemplate("Page.html.twig", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<page note>" {
		t.Fatalf("expected plugin base layout and fragment, got %q", got)
	}

	_, err = engine.RenderTemplate("Missing.html.twig", nil)
	if kind := template.KindOf(err); kind != template.KindLoad {
		t.Fatalf("missing template: expected load kind, got %v (%v)", kind, err)
	}
	if !errors.Is(err, views.ErrTemplateNotFound) {
		t.Fatalf("missing template: expected ErrTemplateNotFound in chain, got %v", err)
	}
	var notFound *views.NotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "Missing.html.twig" {
		t.Fatalf("missing template: expected NotFoundError for Missing.html.twig, got %v", err)
	}
}

func TestEngine_MissingIncludeKeepsResolverError(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Core/View/Page.html.twig":  `a{% include "@PluginExtensionSales/gone.html.twig" %}b`,
		"Core/View/Other.html.twig": "other",
	})
	r, err := views.Build(views.BuildOptions{Root: root, Debug: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	engine, err := pongo.New(pongo.WithResolver(r), pongo.WithDebug(true))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	_, err = engine.RenderTemplate("Page.html.twig", nil)
	if kind := template.KindOf(err); kind != template.KindLoad {
		t.Fatalf("missing include: expected load kind, got %v (%v)", kind, err)
	}
	if !errors.Is(err, views.ErrUnknownNamespace) {
		t.Fatalf("missing include: expected unknown namespace error in chain, got %v", err)
	}

	if got, err := engine.RenderTemplate("Other.html.twig", nil); err != nil || got != "other" {
		t.Fatalf("later render: %q, %v", got, err)
	}
}

func TestEngine_CachesCompiledTemplatesOutsideDebug(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Dinamic/View/Cached.html.twig": "v1",
	})
	r, err := views.Build(views.BuildOptions{Root: root})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	engine, err := pongo.New(pongo.WithResolver(r))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if got, err := engine.RenderTemplate("Cached", nil); err != nil || got != "v1" {
		t.Fatalf("first render: %q, %v", got, err)
	}
	testsupport.WriteTree(t, root, testsupport.Files{"Dinamic/View/Cached.html.twig": "v2"})
	if got, err := engine.RenderTemplate("Cached", nil); err != nil || got != "v1" {
		t.Fatalf("expected cached template output v1, got %q, %v", got, err)
	}
}

func newEngine(t *testing.T) *pongo.Engine {
	t.Helper()

	engine, err := pongo.New(pongo.WithBaseDir(filepath.Join("testdata", "templates")))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
