package i18n_test

import (
	"testing"

	"github.com/abdedarghal111/facturascripts/pkg/i18n"
	"github.com/abdedarghal111/facturascripts/pkg/plugins"
	"github.com/abdedarghal111/facturascripts/pkg/testsupport"
)

func TestLoad_PluginOverridesCore(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Core/Translation/es_ES.json":          `{"invoice": "Factura", "customer": "Cliente"}`,
		"Core/Translation/en_EN.json":          `{"invoice": "Invoice"}`,
		"Plugins/Sales/Translation/es_ES.json": `{"customer": "Comprador"}`,
		"Plugins/Off/Translation/es_ES.json":   `{"invoice": "Nope"}`,
	})

	tr, err := i18n.Load(root, plugins.Static{"Sales"}, "es_ES")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tr.Trans("invoice", nil); got != "Factura" {
		t.Fatalf("expected core message, got %q", got)
	}
	if got := tr.Trans("customer", nil); got != "Comprador" {
		t.Fatalf("expected plugin override, got %q", got)
	}
	if got := tr.CustomTrans("en_EN", "invoice", nil); got != "Invoice" {
		t.Fatalf("expected english message, got %q", got)
	}
}

func TestTrans_FallsBackToKey(t *testing.T) {
	tr := i18n.New("es_ES", map[string]map[string]string{
		"es_ES": {"hello": "Hola"},
	})
	if got := tr.Trans("unknown-key", nil); got != "unknown-key" {
		t.Fatalf("expected key back, got %q", got)
	}
	if got := tr.CustomTrans("fr_FR", "hello", nil); got != "Hola" {
		t.Fatalf("expected default language fallback, got %q", got)
	}
}

func TestTrans_Placeholders(t *testing.T) {
	tr := i18n.New("en_US", map[string]map[string]string{
		"en-us": {"greeting": "Hello %name%, you have %count% invoices"},
	})
	got := tr.Trans("greeting", map[string]any{"%name%": "Ada", "count": 3})
	if want := "Hello Ada, you have 3 invoices"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestCustomTrans_MatchesRegionalVariant(t *testing.T) {
	tr := i18n.New("en_US", map[string]map[string]string{
		"en_US": {"save": "Save"},
		"es_ES": {"save": "Guardar"},
	})
	if got := tr.CustomTrans("es_AR", "save", nil); got != "Guardar" {
		t.Fatalf("expected closest spanish catalog, got %q", got)
	}
}

func TestLanguages(t *testing.T) {
	tr := i18n.New("", map[string]map[string]string{
		"es-es": {},
		"en_US": {},
	})
	got := tr.Languages()
	if len(got) != 2 || got[0] != "en_US" || got[1] != "es_ES" {
		t.Fatalf("unexpected languages %v", got)
	}
	if tr.Lang() != "es_ES" {
		t.Fatalf("expected default language es_ES, got %q", tr.Lang())
	}
}
