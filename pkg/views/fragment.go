package views

import (
	"strings"
)

// Order key defaults for fragment file names without an explicit order.
const (
	DefaultOrder = "10"
	OrderWidth   = 5
)

// SkipReason tells why a file in an extension directory is not a fragment of
// the requested parent and position. Skips are never errors.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipTooFewTokens
	SkipParentMismatch
	SkipPositionMismatch
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipTooFewTokens:
		return "too few name tokens"
	case SkipParentMismatch:
		return "parent mismatch"
	case SkipPositionMismatch:
		return "position mismatch"
	default:
		return "unknown"
	}
}

// FragmentName is the parsed form of "{parent}_{position}[_{order}].ext".
// Order is already padded.
type FragmentName struct {
	Parent   string
	Position string
	Order    string
}

// ParseFragmentName tokenizes a fragment file name. The extension is removed
// when present; tokens after the third are ignored.
func ParseFragmentName(filename, ext string) (FragmentName, SkipReason) {
	stem := strings.TrimSuffix(filename, ext)
	tokens := strings.Split(stem, "_")
	if len(tokens) < 2 {
		return FragmentName{}, SkipTooFewTokens
	}
	order := DefaultOrder
	if len(tokens) > 2 {
		order = tokens[2]
	}
	return FragmentName{
		Parent:   tokens[0],
		Position: tokens[1],
		Order:    PadOrder(order),
	}, SkipNone
}

// Match checks the name against the requested base and position.
func (n FragmentName) Match(base, position string) SkipReason {
	if n.Parent != base {
		return SkipParentMismatch
	}
	if n.Position != position {
		return SkipPositionMismatch
	}
	return SkipNone
}

// PadOrder left-pads an order key with zeros to OrderWidth. Longer keys are
// returned unchanged, so keys of six or more digits no longer sort
// numerically against padded ones.
func PadOrder(key string) string {
	if len(key) >= OrderWidth {
		return key
	}
	return strings.Repeat("0", OrderWidth-len(key)) + key
}

// BaseName reduces a parent template name to the token fragments match on:
// the last path segment without the template extension.
func BaseName(parent, ext string) string {
	if i := strings.LastIndex(parent, "/"); i >= 0 {
		parent = parent[i+1:]
	}
	return strings.TrimSuffix(parent, ext)
}

// Fragment is a plugin-supplied partial view for an insertion point.
type Fragment struct {
	// Path is the logical name to include, "@PluginExtension{Plugin}/{file}".
	Path string `json:"path"`
	// Source is the physical file.
	Source   string `json:"source"`
	Plugin   string `json:"plugin"`
	Parent   string `json:"file"`
	Position string `json:"position"`
	Order    string `json:"order"`
}

// Map returns the fragment as the map shape templates iterate over.
func (f Fragment) Map() map[string]any {
	return map[string]any{
		"path":     f.Path,
		"file":     f.Parent,
		"position": f.Position,
		"order":    f.Order,
		"plugin":   f.Plugin,
	}
}
