package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ListFile is the plugin registry location relative to the install root.
const ListFile = "MyFiles/plugins.json"

// Manager lists enabled plugins. The returned order decides precedence among
// plugins contributing the same view or fragment.
type Manager interface {
	EnabledPlugins() []string
}

// Static is a fixed, already ordered plugin list.
type Static []string

// EnabledPlugins returns a copy of the list.
func (s Static) EnabledPlugins() []string {
	out := make([]string, 0, len(s))
	for _, name := range s {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Entry is one record of the plugin registry file.
type Entry struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	Order   int    `yaml:"order"`
	Version any    `yaml:"version,omitempty"`
}

// FileManager reads the plugin registry written by the host application. The
// registry is a JSON array, decoded with the YAML parser (JSON is valid
// YAML) so hand-written YAML registries are accepted as well.
type FileManager struct {
	entries []Entry
}

// Load reads the registry under root. A missing file yields an empty manager.
func Load(root string) (*FileManager, error) {
	return LoadFile(filepath.Join(root, filepath.FromSlash(ListFile)))
}

// LoadFile reads a registry file at an explicit path.
func LoadFile(path string) (*FileManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &FileManager{}, nil
		}
		return nil, fmt.Errorf("plugins: read registry: %w", err)
	}
	return Parse(data)
}

// Parse decodes registry contents.
func Parse(data []byte) (*FileManager, error) {
	var entries []Entry
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("plugins: decode registry: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Name == "" {
			continue
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("plugins: duplicate registry entry %q", entry.Name)
		}
		seen[entry.Name] = struct{}{}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return &FileManager{entries: out}, nil
}

// EnabledPlugins returns enabled plugin names sorted by order, then name.
func (m *FileManager) EnabledPlugins() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		if entry.Enabled {
			out = append(out, entry.Name)
		}
	}
	return out
}

// Entries returns every registry entry, enabled or not.
func (m *FileManager) Entries() []Entry {
	if m == nil {
		return nil
	}
	return append([]Entry(nil), m.entries...)
}

// Discover lists the plugin folders installed under root/Plugins, sorted by
// name. It does not consult the registry.
func Discover(root string) ([]string, error) {
	dirEntries, err := os.ReadDir(filepath.Join(root, "Plugins"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugins: discover: %w", err)
	}
	var names []string
	for _, entry := range dirEntries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
