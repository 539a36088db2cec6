// Package deploy rebuilds Dinamic/View, the merged view folder used outside
// debug mode, from the core views and every enabled plugin's views.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/abdedarghal111/facturascripts/pkg/plugins"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

// CoreSource names core files in a Report.
const CoreSource = "Core"

// Override records a file replaced by a later source.
type Override struct {
	Path     string `json:"path"`
	Source   string `json:"source"`
	Replaced string `json:"replaced"`
}

// Report summarises one deploy. Paths are relative to Dinamic/View and use
// forward slashes.
type Report struct {
	Files     []string   `json:"files"`
	Overrides []Override `json:"overrides"`
	Removed   []string   `json:"removed"`
}

// Deployer merges view folders. Plugins listed later win, the same precedence
// debug mode gives them when searching.
type Deployer struct {
	layout  views.Layout
	plugins plugins.Manager
}

// New returns a deployer for the install tree at root.
func New(root string, mgr plugins.Manager) *Deployer {
	return &Deployer{layout: views.Layout{Root: root}, plugins: mgr}
}

type source struct {
	name string
	path string
}

// Deploy writes every winning file into Dinamic/View and removes files no
// source provides any more.
func (d *Deployer) Deploy(ctx context.Context) (Report, error) {
	var report Report

	winners := make(map[string]source)
	if err := collect(ctx, d.layout.CoreViews(), CoreSource, winners, &report, true); err != nil {
		return Report{}, err
	}
	if d.plugins != nil {
		for _, name := range d.plugins.EnabledPlugins() {
			if err := collect(ctx, d.layout.PluginViews(name), name, winners, &report, false); err != nil {
				return Report{}, err
			}
		}
	}

	target := d.layout.DynamicViews()
	if err := os.MkdirAll(target, 0o755); err != nil {
		return Report{}, fmt.Errorf("deploy: create %s: %w", target, err)
	}

	rels := make([]string, 0, len(winners))
	for rel := range winners {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		if err := copyFile(winners[rel].path, filepath.Join(target, filepath.FromSlash(rel))); err != nil {
			return Report{}, err
		}
	}
	report.Files = rels

	removed, err := prune(ctx, target, winners)
	if err != nil {
		return Report{}, err
	}
	report.Removed = removed
	return report, nil
}

func collect(ctx context.Context, dir, name string, winners map[string]source, report *Report, required bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("deploy: %s views: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("deploy: %s views: %w: %s", name, views.ErrNotDirectory, dir)
	}

	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("deploy: walk %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if previous, ok := winners[rel]; ok {
			report.Overrides = append(report.Overrides, Override{Path: rel, Source: name, Replaced: previous.name})
		}
		winners[rel] = source{name: name, path: path}
		return nil
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("deploy: create %s: %w", filepath.Dir(dst), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("deploy: open %s: %w", src, err)
	}
	defer in.Close()

	if err := atomic.WriteFile(dst, in); err != nil {
		return fmt.Errorf("deploy: write %s: %w", dst, err)
	}
	return nil
}

// prune deletes files under target that no source provided, then any
// directories left empty.
func prune(ctx context.Context, target string, keep map[string]source) ([]string, error) {
	var (
		removed []string
		dirs    []string
	)
	err := filepath.WalkDir(target, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("deploy: walk %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == target {
			return nil
		}
		if entry.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, ok := keep[rel]; ok {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("deploy: remove %s: %w", rel, err)
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deepest first so parents empty out after their children.
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil {
			return nil, fmt.Errorf("deploy: read %s: %w", dirs[i], err)
		}
		if len(entries) == 0 {
			if err := os.Remove(dirs[i]); err != nil {
				return nil, fmt.Errorf("deploy: remove %s: %w", dirs[i], err)
			}
		}
	}
	return removed, nil
}
