package views_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abdedarghal111/facturascripts/pkg/plugins"
	"github.com/abdedarghal111/facturascripts/pkg/testsupport"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

func TestCollector_FiltersByParentAndPosition(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/Sales/Extension/View/invoice_top.html.twig":       "a",
		"Plugins/Sales/Extension/View/invoice_bottom.html.twig":    "b",
		"Plugins/Sales/Extension/View/invoiceline_top.html.twig":   "c",
		"Plugins/Sales/Extension/View/order_top_5.html.twig":       "d",
		"Plugins/Sales/Extension/View/README.md":                   "e",
		"Plugins/Sales/Extension/View/invoice.html.twig":           "f",
		"Plugins/Sales/Extension/View/Tab/invoice_top_3.html.twig": "g",
	})

	collector := views.NewCollector(root, plugins.Static{"Sales"})
	got, err := collector.Collect("Master/invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := []views.Fragment{
		{
			Path:     "@PluginExtensionSales/Tab/invoice_top_3.html.twig",
			Source:   filepath.Join(root, "Plugins", "Sales", "Extension", "View", "Tab", "invoice_top_3.html.twig"),
			Plugin:   "Sales",
			Parent:   "invoice",
			Position: "top",
			Order:    "00003",
		},
		{
			Path:     "@PluginExtensionSales/invoice_top.html.twig",
			Source:   filepath.Join(root, "Plugins", "Sales", "Extension", "View", "invoice_top.html.twig"),
			Plugin:   "Sales",
			Parent:   "invoice",
			Position: "top",
			Order:    "00010",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_SortsByPaddedOrder(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/A/Extension/View/invoice_top_100.html.twig": "",
		"Plugins/A/Extension/View/invoice_top_2.html.twig":   "",
		"Plugins/B/Extension/View/invoice_top.html.twig":     "",
	})

	got, err := views.NewCollector(root, plugins.Static{"A", "B"}).Collect("invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	var orders []string
	for _, f := range got {
		orders = append(orders, f.Order)
	}
	if diff := cmp.Diff([]string{"00002", "00010", "00100"}, orders); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_TiesKeepPluginOrder(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/Zeta/Extension/View/invoice_top.html.twig":  "",
		"Plugins/Alpha/Extension/View/invoice_top.html.twig": "",
	})

	got, err := views.NewCollector(root, plugins.Static{"Zeta", "Alpha"}).Collect("invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(got))
	}
	if got[0].Plugin != "Zeta" || got[1].Plugin != "Alpha" {
		t.Fatalf("expected plugin order Zeta, Alpha; got %s, %s", got[0].Plugin, got[1].Plugin)
	}
}

func TestCollector_LexicographicOrderBeyondWidth(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/A/Extension/View/invoice_top_100000.html.twig": "",
		"Plugins/A/Extension/View/invoice_top_20000.html.twig":  "",
	})

	got, err := views.NewCollector(root, plugins.Static{"A"}).Collect("invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 2 || got[0].Order != "100000" || got[1].Order != "20000" {
		t.Fatalf("expected byte-wise order 100000 < 20000, got %+v", got)
	}
}

func TestCollector_MissingExtensionDirectory(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/NoViews/Model/.keep":                        "",
		"Plugins/Other/Extension/View/invoice_top.html.twig": "",
	})

	got, err := views.NewCollector(root, plugins.Static{"NoViews", "Ghost", "Other"}).Collect("invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 1 || got[0].Plugin != "Other" {
		t.Fatalf("expected only the Other fragment, got %+v", got)
	}
}

func TestCollector_ExtensionViewNotADirectory(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/A/Extension/View":                       "not a directory",
		"Plugins/B/Extension/View/invoice_top.html.twig": "",
	})

	_, err := views.NewCollector(root, plugins.Static{"A", "B"}).Collect("invoice.html.twig", "top")
	var walkErr *views.FragmentWalkError
	if !errors.As(err, &walkErr) {
		t.Fatalf("expected FragmentWalkError, got %v", err)
	}
	if walkErr.Plugin != "A" || walkErr.Path != filepath.Join(root, "Plugins", "A", "Extension", "View") {
		t.Fatalf("unexpected walk error %+v", walkErr)
	}
	if !errors.Is(err, views.ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
}

func TestCollector_NoMatchesIsEmpty(t *testing.T) {
	root := testsupport.InstallTree(t, nil)

	got, err := views.NewCollector(root, plugins.Static{"A"}).Collect("invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}

	got, err = views.NewCollector(root, nil).Collect("invoice.html.twig", "top")
	if err != nil || len(got) != 0 {
		t.Fatalf("nil manager: expected no fragments, got %v, %v", got, err)
	}
}

func TestCollector_ReportsSkips(t *testing.T) {
	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/A/Extension/View/malformed.html.twig":      "",
		"Plugins/A/Extension/View/order_top.html.twig":      "",
		"Plugins/A/Extension/View/invoice_footer.html.twig": "",
		"Plugins/A/Extension/View/invoice_top.html.twig":    "",
	})

	reasons := map[string]views.SkipReason{}
	collector := views.NewCollector(root, plugins.Static{"A"}, views.WithSkipObserver(func(s views.Skipped) {
		reasons[filepath.Base(s.Source)] = s.Reason
	}))
	got, err := collector.Collect("invoice.html.twig", "top")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one fragment, got %d", len(got))
	}

	want := map[string]views.SkipReason{
		"malformed.html.twig":      views.SkipTooFewTokens,
		"order_top.html.twig":      views.SkipParentMismatch,
		"invoice_footer.html.twig": views.SkipPositionMismatch,
	}
	if diff := cmp.Diff(want, reasons); diff != "" {
		t.Fatalf("skip reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_WalkErrorIsFatal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}

	root := testsupport.InstallTree(t, testsupport.Files{
		"Plugins/A/Extension/View/invoice_top.html.twig":          "",
		"Plugins/A/Extension/View/Locked/invoice_top_2.html.twig": "",
	})
	locked := filepath.Join(root, "Plugins", "A", "Extension", "View", "Locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := views.NewCollector(root, plugins.Static{"A"}).Collect("invoice.html.twig", "top")
	var walkErr *views.FragmentWalkError
	if !errors.As(err, &walkErr) {
		t.Fatalf("expected FragmentWalkError, got %v", err)
	}
	if walkErr.Plugin != "A" {
		t.Fatalf("expected plugin A in error, got %q", walkErr.Plugin)
	}
}
