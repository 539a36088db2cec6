package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	iconPolicyOnce sync.Once
	iconPolicy     *bluemonday.Policy
)

// IconMarkup renders an icon font element such as
// <i class="fa-solid fa-save" title="Save"></i>. Anything beyond the class
// and title attributes is stripped.
func IconMarkup(classes, title string) string {
	classes = strings.Join(strings.Fields(classes), " ")
	if classes == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<i class="`)
	b.WriteString(html.EscapeString(classes))
	b.WriteString(`"`)
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString(` title="`)
		b.WriteString(html.EscapeString(title))
		b.WriteString(`"`)
	}
	b.WriteString(`></i>`)
	return sanitizeIconMarkup(b.String())
}

func sanitizeIconMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(iconSanitizer().Sanitize(trimmed))
}

func iconSanitizer() *bluemonday.Policy {
	iconPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("i")
		policy.AllowAttrs("title").OnElements("i")
		policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("i")
		iconPolicy = policy
	})
	return iconPolicy
}
