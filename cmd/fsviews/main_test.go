package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	facturascripts "github.com/abdedarghal111/facturascripts"
	"github.com/abdedarghal111/facturascripts/pkg/testsupport"
)

func installFixture(t *testing.T) string {
	t.Helper()

	return testsupport.InstallTree(t, testsupport.Files{
		"MyFiles/plugins.json":                               `[{"name": "Sales", "enabled": true, "order": 1}, {"name": "Old", "enabled": false, "order": 2}]`,
		"Core/View/Hello.html.twig":                          `Hello {{ who }}{% for v in getIncludeViews("Hello.html.twig", "end") %} {% include v.path %}{% endfor %}`,
		"Core/View/Other.html.twig":                          "other",
		"Plugins/Sales/View/Sales.html.twig":                 "sales",
		"Plugins/Sales/Extension/View/Hello_end_5.html.twig": "[sales]",
		"Plugins/Stray/":                                     "",
	})
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--plain", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRender_Stdout(t *testing.T) {
	root := installFixture(t)
	out, _, err := execute(t, "--root", root, "--debug", "render", "Hello.html.twig", "--param", "who=Ada")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello Ada [sales]" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRender_NoPlugins(t *testing.T) {
	root := installFixture(t)
	out, _, err := execute(t, "--root", root, "--debug", "--no-plugins", "render", "Hello.html.twig", "--param", "who=Ada")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello Ada" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRender_OutputFile(t *testing.T) {
	root := installFixture(t)
	target := filepath.Join(t.TempDir(), "out.html")
	_, stderr, err := execute(t, "--root", root, "--debug", "render", "Other.html.twig", "-o", target)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "other" {
		t.Fatalf("unexpected file contents %q, %v", data, err)
	}
	if !strings.Contains(stderr, "[SUCCESS]") {
		t.Fatalf("expected success line, got %q", stderr)
	}
}

func TestRender_PicksTemplateOnTerminal(t *testing.T) {
	root := installFixture(t)
	stubPrompt(t, true, "Other.html.twig")

	out, _, err := execute(t, "--root", root, "--debug", "render")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "other" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRender_RequiresTemplateWithoutTerminal(t *testing.T) {
	root := installFixture(t)
	stubPrompt(t, false, "")

	if _, _, err := execute(t, "--root", root, "render"); err == nil {
		t.Fatalf("expected error without template argument")
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"a=1", "b=x=y", "a=2"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params["a"] != "2" || params["b"] != "x=y" {
		t.Fatalf("unexpected params %v", params)
	}
	if _, err := parseParams([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}

func TestFragmentsPathsPlugins(t *testing.T) {
	root := installFixture(t)

	out, _, err := execute(t, "--root", root, "--debug", "fragments", "Hello.html.twig", "end")
	if err != nil {
		t.Fatalf("fragments: %v", err)
	}
	if !strings.Contains(out, "00005") || !strings.Contains(out, "@PluginExtensionSales/Hello_end_5.html.twig") {
		t.Fatalf("unexpected fragments output %q", out)
	}

	out, _, err = execute(t, "--root", root, "--debug", "paths")
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	if !strings.Contains(out, "(main)") || !strings.Contains(out, "@PluginSales") {
		t.Fatalf("unexpected paths output %q", out)
	}

	out, _, err = execute(t, "--root", root, "plugins")
	if err != nil {
		t.Fatalf("plugins: %v", err)
	}
	for _, want := range []string{"Sales", "enabled", "Old", "disabled", "Stray", "not registered"} {
		if !strings.Contains(out, want) {
			t.Fatalf("plugins output missing %q: %q", want, out)
		}
	}
}

func TestDeploy(t *testing.T) {
	root := installFixture(t)
	_, stderr, err := execute(t, "--root", root, "deploy")
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Dinamic", "View", "Sales.html.twig")); err != nil {
		t.Fatalf("expected deployed plugin view: %v", err)
	}
	if !strings.Contains(stderr, "deployed 3 views") {
		t.Fatalf("unexpected deploy output %q", stderr)
	}
}

func TestViewHandler(t *testing.T) {
	root := installFixture(t)
	inst, err := facturascripts.Open(facturascripts.Config{Root: root, Debug: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer inst.Close()
	mux := newServeMux(inst, root)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/Hello.html.twig?who=Bob", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "Hello Bob [sales]" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/Missing.html.twig", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing view, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

type stubPicker string

func (s stubPicker) Pick(_ context.Context, _ string, options []string) (string, error) {
	for _, option := range options {
		if option == string(s) {
			return option, nil
		}
	}
	return "", errAborted
}

func stubPrompt(t *testing.T, terminal bool, choice string) {
	t.Helper()

	oldTerminal, oldPicker := isTerminal, newPicker
	isTerminal = func() bool { return terminal }
	newPicker = func() picker { return stubPicker(choice) }
	t.Cleanup(func() { isTerminal, newPicker = oldTerminal, oldPicker })
}
