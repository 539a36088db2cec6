package assets

import (
	"fmt"
	"path"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// URLResolver backs the asset() template function.
type URLResolver struct {
	route     string
	selection *theme.Selection
}

// NewURLResolver prefixes relative asset paths with route, the base path the
// application is served from ("" or "/" means root).
func NewURLResolver(route string) *URLResolver {
	route = strings.TrimSpace(route)
	route = strings.TrimRight(route, "/")
	return &URLResolver{route: route}
}

// WithTheme selects a theme whose manifest asset keys asset() may use.
func (r *URLResolver) WithTheme(selector theme.ThemeSelector, name, variant string) (*URLResolver, error) {
	if selector == nil {
		return r, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("assets: select theme %q/%q: %w", name, variant, err)
	}
	clone := *r
	clone.selection = selection
	return &clone, nil
}

// Route returns the configured prefix.
func (r *URLResolver) Route() string {
	return r.route
}

// URL maps a reference to a public URL. Theme asset keys resolve through the
// selected manifest, variant files first. Absolute URLs pass through, paths
// already under the route are left alone and duplicate slashes collapse.
func (r *URLResolver) URL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return r.route + "/"
	}
	if themed, ok := r.themeAsset(ref); ok {
		ref = themed
	}
	if isAbsoluteURL(ref) {
		return ref
	}

	clean := collapseSlashes(ref)
	if r.route != "" && (clean == r.route || strings.HasPrefix(clean, r.route+"/")) {
		return clean
	}
	if r.route == "" {
		if strings.HasPrefix(clean, "/") {
			return clean
		}
		return "/" + clean
	}
	return collapseSlashes(r.route + "/" + clean)
}

func (r *URLResolver) themeAsset(key string) (string, bool) {
	if r.selection == nil || r.selection.Manifest == nil {
		return "", false
	}
	manifest := r.selection.Manifest
	prefix := manifest.Assets.Prefix
	if variant, ok := manifest.Variants[r.selection.Variant]; ok {
		if file, ok := variant.Assets.Files[key]; ok {
			if variant.Assets.Prefix != "" {
				prefix = variant.Assets.Prefix
			}
			return joinAsset(prefix, file), true
		}
	}
	if file, ok := manifest.Assets.Files[key]; ok {
		return joinAsset(prefix, file), true
	}
	return "", false
}

func joinAsset(prefix, file string) string {
	if isAbsoluteURL(file) || prefix == "" {
		return file
	}
	if isAbsoluteURL(prefix) {
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
	}
	return path.Join(prefix, file)
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "//") ||
		strings.HasPrefix(ref, "data:")
}

func collapseSlashes(s string) string {
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}
	return s
}
