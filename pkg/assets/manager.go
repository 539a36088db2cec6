// Package assets collects the CSS and JS files a page asks for while it
// renders and turns asset references into public URLs.
package assets

import (
	"sort"
	"strings"
	"sync"
)

// Kind groups assets by how the layout emits them.
type Kind string

const (
	KindCSS Kind = "css"
	KindJS  Kind = "js"
)

type entry struct {
	url      string
	priority int
	seq      int
}

// Manager is created per render and exposed to templates as assetManager.
// Safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	seq   int
	items map[Kind][]entry
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{items: make(map[Kind][]entry)}
}

// Add queues url under kind. Adding a url twice keeps one entry with the
// higher priority.
func (m *Manager) Add(kind, url string, priority int) {
	url = strings.TrimSpace(url)
	if m == nil || url == "" {
		return
	}
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.items == nil {
		m.items = make(map[Kind][]entry)
	}
	for i, existing := range m.items[k] {
		if existing.url == url {
			if priority > existing.priority {
				m.items[k][i].priority = priority
			}
			return
		}
	}
	m.seq++
	m.items[k] = append(m.items[k], entry{url: url, priority: priority, seq: m.seq})
}

// Get lists urls of kind, higher priority first, then in insertion order.
func (m *Manager) Get(kind string) []string {
	if m == nil {
		return []string{}
	}
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))

	m.mu.Lock()
	entries := append([]entry(nil), m.items[k]...)
	m.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.url
	}
	return out
}

// Clear drops everything queued.
func (m *Manager) Clear() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.items = make(map[Kind][]entry)
	m.mu.Unlock()
}
