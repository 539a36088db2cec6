// Package settings holds grouped application settings read by templates
// through the settings() helper and the appSettings global.
package settings

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultGroup is used when a lookup names no group.
const DefaultGroup = "default"

// Store is a read-only set of settings groups. The zero value is empty.
type Store struct {
	groups map[string]map[string]any
}

// New builds a store from group → name → value.
func New(groups map[string]map[string]any) *Store {
	s := &Store{groups: make(map[string]map[string]any, len(groups))}
	for group, values := range groups {
		copied := make(map[string]any, len(values))
		for name, value := range values {
			copied[strings.TrimSpace(name)] = value
		}
		s.groups[normalizeGroup(group)] = copied
	}
	return s
}

// Load reads a YAML (or JSON) document of groups. A missing file yields an
// empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	var groups map[string]map[string]any
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("settings: decode %s: %w", path, err)
	}
	return New(groups), nil
}

// Get returns a setting or nil. An empty group means DefaultGroup.
func (s *Store) Get(name, group string) any {
	if s == nil {
		return nil
	}
	values, ok := s.groups[normalizeGroup(group)]
	if !ok {
		return nil
	}
	return values[strings.TrimSpace(name)]
}

// String returns a setting formatted as a string, or fallback when unset.
func (s *Store) String(name, group, fallback string) string {
	value := s.Get(name, group)
	if value == nil {
		return fallback
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprint(value)
}

// Groups lists group names in lexical order.
func (s *Store) Groups() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.groups))
	for group := range s.groups {
		out = append(out, group)
	}
	sort.Strings(out)
	return out
}

func normalizeGroup(group string) string {
	group = strings.TrimSpace(group)
	if group == "" {
		return DefaultGroup
	}
	return group
}
