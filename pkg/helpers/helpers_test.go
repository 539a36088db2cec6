package helpers_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abdedarghal111/facturascripts/pkg/attachments"
	"github.com/abdedarghal111/facturascripts/pkg/helpers"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

func TestRegistry(t *testing.T) {
	r := helpers.NewRegistry()
	upper := func(s string) string { return strings.ToUpper(s) }

	if err := r.Register(helpers.Helper{Name: "upper", Func: upper}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(helpers.Helper{Name: "upper", Func: upper}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := r.Register(helpers.Helper{Name: " ", Func: upper}); err == nil {
		t.Fatalf("expected name error")
	}
	if err := r.Register(helpers.Helper{Name: "num", Func: 3}); err == nil {
		t.Fatalf("expected non-function error")
	}
	if err := r.Set(helpers.Helper{Name: "upper", Func: func(s string) string { return s }}); err != nil {
		t.Fatalf("set: %v", err)
	}

	h, err := r.Get("upper")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := h.Func.(func(string) string)("x"); got != "x" {
		t.Fatalf("expected replaced helper, got %q", got)
	}
	if _, err := r.Get("missing"); err == nil {
		t.Fatalf("expected missing helper error")
	}
	if !r.Has("upper") || r.Has("missing") {
		t.Fatalf("has mismatch")
	}
	if len(r.Funcs()) != 1 {
		t.Fatalf("expected one func, got %d", len(r.Funcs()))
	}
}

func TestBuiltins_Names(t *testing.T) {
	r := helpers.NewRegistry()
	if err := helpers.RegisterBuiltins(r, helpers.Deps{}); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	want := []string{"asset", "attachedFile", "formToken", "getIncludeViews", "icon", "money", "settings", "trans"}
	if diff := cmp.Diff(want, r.List()); diff != "" {
		t.Fatalf("builtin names mismatch (-want +got):\n%s", diff)
	}
}

func TestBuiltins_Behaviour(t *testing.T) {
	var reported []string
	funcs := builtinFuncs(helpers.Deps{
		Assets:      stubAssets{},
		Attachments: stubAttachments{},
		Tokens:      stubTokens{},
		Fragments: stubFragments{fragments: []views.Fragment{
			{Path: "@PluginExtensionSales/invoice_top.html.twig", Plugin: "Sales", Parent: "invoice", Position: "top", Order: "00010"},
		}},
		Money:      stubMoney{},
		Settings:   stubSettings{"default.coddivisa": "EUR", "log.level": "debug"},
		Translator: stubTranslator{},
		OnError:    func(name string, _ error) { reported = append(reported, name) },
	})

	if got := funcs.asset("Dinamic/app.css"); got != "/fs/Dinamic/app.css" {
		t.Fatalf("asset: %q", got)
	}

	file, err := funcs.attachedFile(7)
	if err != nil || file.Filename != "doc-7.pdf" {
		t.Fatalf("attachedFile: %+v, %v", file, err)
	}
	file, err = funcs.attachedFile("404")
	if err != nil || file.ID != 0 {
		t.Fatalf("attachedFile missing: expected empty record, got %+v, %v", file, err)
	}

	if got := funcs.formToken(); got != `<input type="hidden" name="multireqtoken" value="tok"/>` {
		t.Fatalf("formToken input: %q", got)
	}
	if got := funcs.formToken(false); got != "tok" {
		t.Fatalf("formToken bare: %q", got)
	}

	included, err := funcs.getIncludeViews("Master/invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("getIncludeViews: %v", err)
	}
	want := []map[string]any{{
		"path":     "@PluginExtensionSales/invoice_top.html.twig",
		"file":     "invoice",
		"position": "top",
		"order":    "00010",
		"plugin":   "Sales",
	}}
	if diff := cmp.Diff(want, included); diff != "" {
		t.Fatalf("getIncludeViews mismatch (-want +got):\n%s", diff)
	}

	if got := funcs.icon("fa-solid fa-save", "Save"); got != `<i class="fa-solid fa-save" title="Save"></i>` {
		t.Fatalf("icon: %q", got)
	}

	if got, err := funcs.money(12.5, "USD"); err != nil || got != "USD:12.50" {
		t.Fatalf("money: %q, %v", got, err)
	}
	if got, err := funcs.money(3); err != nil || got != ":3.00" {
		t.Fatalf("money int: %q, %v", got, err)
	}
	if _, err := funcs.money("abc"); err == nil {
		t.Fatalf("money: expected error for invalid amount")
	}

	if got := funcs.settings("coddivisa"); got != "EUR" {
		t.Fatalf("settings default group: %v", got)
	}
	if got := funcs.settings("level", "log"); got != "debug" {
		t.Fatalf("settings group: %v", got)
	}

	if got := funcs.trans("hello"); got != "hello" {
		t.Fatalf("trans: %q", got)
	}
	if got := funcs.trans("hello", map[string]string{"%name%": "Ada"}, "en_US"); got != "en_US:hello:Ada" {
		t.Fatalf("trans custom: %q", got)
	}

	if diff := cmp.Diff([]string{"money"}, reported); diff != "" {
		t.Fatalf("reported errors mismatch (-want +got):\n%s", diff)
	}
}

func TestBuiltins_FragmentErrorIsReported(t *testing.T) {
	boom := errors.New("walk failed")
	var got error
	funcs := builtinFuncs(helpers.Deps{
		Fragments: stubFragments{err: boom},
		OnError:   func(_ string, err error) { got = err },
	})

	if _, err := funcs.getIncludeViews("invoice", "top"); !errors.Is(err, boom) {
		t.Fatalf("expected walk error, got %v", err)
	}
	if !errors.Is(got, boom) {
		t.Fatalf("expected OnError to observe walk error, got %v", got)
	}
}

func TestBuiltins_NilDependencies(t *testing.T) {
	funcs := builtinFuncs(helpers.Deps{})
	if got := funcs.asset("x.css"); got != "x.css" {
		t.Fatalf("asset passthrough: %q", got)
	}
	if got := funcs.formToken(); got != "" {
		t.Fatalf("formToken without issuer: %q", got)
	}
	if got, err := funcs.getIncludeViews("a", "b"); err != nil || got == nil || len(got) != 0 {
		t.Fatalf("getIncludeViews without collector: %v, %v", got, err)
	}
	if got, _ := funcs.money(1.5); got != "1.50" {
		t.Fatalf("money without formatter: %q", got)
	}
	if got := funcs.settings("x"); got != nil {
		t.Fatalf("settings without store: %v", got)
	}
}

func TestIconMarkup(t *testing.T) {
	tests := map[string]struct {
		classes string
		title   string
		want    string
	}{
		"classes only":  {classes: " fa-solid  fa-plus ", want: `<i class="fa-solid fa-plus"></i>`},
		"empty":         {classes: "  ", want: ""},
		"escaped title": {classes: "fa-solid fa-info", title: "Save & close", want: `<i class="fa-solid fa-info" title="Save &amp; close"></i>`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := helpers.IconMarkup(tt.classes, tt.title); got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}

	got := helpers.IconMarkup(`x"><script>alert(1)</script>`, "")
	if strings.Contains(got, "script") || strings.Contains(got, "class=") {
		t.Fatalf("expected injected markup stripped, got %q", got)
	}
}

type funcSet struct {
	asset           func(any) string
	attachedFile    func(any) (attachments.AttachedFile, error)
	formToken       func(...any) string
	getIncludeViews func(any, any) ([]map[string]any, error)
	icon            func(any, ...any) string
	money           func(any, ...any) (string, error)
	settings        func(any, ...any) any
	trans           func(any, ...any) string
}

func builtinFuncs(deps helpers.Deps) funcSet {
	byName := map[string]any{}
	for _, h := range helpers.Builtins(deps) {
		byName[h.Name] = h.Func
	}
	return funcSet{
		asset:           byName["asset"].(func(any) string),
		attachedFile:    byName["attachedFile"].(func(any) (attachments.AttachedFile, error)),
		formToken:       byName["formToken"].(func(...any) string),
		getIncludeViews: byName["getIncludeViews"].(func(any, any) ([]map[string]any, error)),
		icon:            byName["icon"].(func(any, ...any) string),
		money:           byName["money"].(func(any, ...any) (string, error)),
		settings:        byName["settings"].(func(any, ...any) any),
		trans:           byName["trans"].(func(any, ...any) string),
	}
}

type stubAssets struct{}

func (stubAssets) URL(ref string) string { return "/fs/" + ref }

type stubAttachments struct{}

func (stubAttachments) Get(_ context.Context, id int64) (attachments.AttachedFile, error) {
	if id == 404 {
		return attachments.AttachedFile{}, attachments.ErrNotFound
	}
	return attachments.AttachedFile{ID: id, Filename: "doc-7.pdf"}, nil
}

type stubTokens struct{}

func (stubTokens) NewToken() string { return "tok" }

type stubFragments struct {
	fragments []views.Fragment
	err       error
}

func (s stubFragments) Collect(_, _ string) ([]views.Fragment, error) {
	return s.fragments, s.err
}

type stubMoney struct{}

func (stubMoney) Format(amount float64, code string) string {
	return fmt.Sprintf("%s:%.2f", code, amount)
}

type stubSettings map[string]any

func (s stubSettings) Get(name, group string) any {
	if group == "" {
		group = "default"
	}
	return s[group+"."+name]
}

type stubTranslator struct{}

func (stubTranslator) Trans(key string, _ map[string]any) string { return key }

func (stubTranslator) CustomTrans(lang, key string, params map[string]any) string {
	return lang + ":" + key + ":" + params["%name%"].(string)
}
