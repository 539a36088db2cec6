package views

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/abdedarghal111/facturascripts/pkg/plugins"
)

// Skipped describes a file the collector ignored.
type Skipped struct {
	Plugin string
	Source string
	Reason SkipReason
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithExtension overrides the template extension stripped from file names.
func WithExtension(ext string) CollectorOption {
	return func(c *Collector) {
		if ext != "" {
			c.ext = ext
		}
	}
}

// WithSkipObserver receives every skipped file.
func WithSkipObserver(fn func(Skipped)) CollectorOption {
	return func(c *Collector) {
		c.onSkip = fn
	}
}

// Collector finds plugin fragments for an insertion point. It holds no
// results between calls; every Collect walks the filesystem again.
type Collector struct {
	layout  Layout
	plugins plugins.Manager
	ext     string
	onSkip  func(Skipped)
}

// NewCollector scans the extension views of the plugins mgr enables under
// root. A nil manager collects nothing.
func NewCollector(root string, mgr plugins.Manager, opts ...CollectorOption) *Collector {
	c := &Collector{
		layout:  Layout{Root: root},
		plugins: mgr,
		ext:     DefaultExtension,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Collect returns the fragments declared for parent at position, sorted by
// parent, position and padded order using byte-wise comparison. Plugins are
// not a sort key: equal keys keep plugin order, then walk order.
//
// A plugin without an Extension/View directory contributes nothing. An
// Extension/View that is not a directory, or any other filesystem error,
// aborts the collection.
func (c *Collector) Collect(parent, position string) ([]Fragment, error) {
	base := BaseName(parent, c.ext)
	files := []Fragment{}
	if c.plugins == nil {
		return files, nil
	}

	for _, plugin := range c.plugins.EnabledPlugins() {
		root := c.layout.PluginExtensionViews(plugin)
		ok, err := dirExists(root)
		if err != nil {
			return nil, &FragmentWalkError{Plugin: plugin, Path: root, Err: err}
		}
		if !ok {
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return &FragmentWalkError{Plugin: plugin, Path: path, Err: err}
			}
			if d.IsDir() {
				return nil
			}

			name, reason := ParseFragmentName(d.Name(), c.ext)
			if reason == SkipNone {
				reason = name.Match(base, position)
			}
			if reason != SkipNone {
				c.skip(plugin, path, reason)
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return &FragmentWalkError{Plugin: plugin, Path: path, Err: err}
			}
			files = append(files, Fragment{
				Path:     "@" + ExtensionNamespace(plugin) + "/" + filepath.ToSlash(rel),
				Source:   path,
				Plugin:   plugin,
				Parent:   name.Parent,
				Position: name.Position,
				Order:    name.Order,
			})
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.Order < b.Order
	})
	return files, nil
}

func (c *Collector) skip(plugin, path string, reason SkipReason) {
	if c.onSkip != nil {
		c.onSkip(Skipped{Plugin: plugin, Source: path, Reason: reason})
	}
}
