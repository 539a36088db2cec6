// Package i18n translates template strings from per-language catalogs. Core
// catalogs live in Core/Translation/{lang}.json; enabled plugins may ship a
// Translation folder whose keys override the core ones.
package i18n

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/abdedarghal111/facturascripts/pkg/plugins"
)

// DefaultLang is used when no language is configured.
const DefaultLang = "es_ES"

var catalogExtensions = []string{".json", ".yaml", ".yml"}

// Translator looks up messages by key. It is read-only after construction.
type Translator struct {
	lang     string
	catalogs map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// New builds a translator from lang → key → message. Language codes may use
// either "es_ES" or "es-ES".
func New(defaultLang string, catalogs map[string]map[string]string) *Translator {
	if strings.TrimSpace(defaultLang) == "" {
		defaultLang = DefaultLang
	}
	t := &Translator{
		lang:     canonical(defaultLang),
		catalogs: make(map[string]map[string]string, len(catalogs)),
	}
	for lang, messages := range catalogs {
		key := canonical(lang)
		merged := t.catalogs[key]
		if merged == nil {
			merged = make(map[string]string, len(messages))
			t.catalogs[key] = merged
		}
		for k, v := range messages {
			merged[k] = v
		}
	}
	t.buildMatcher()
	return t
}

// Load reads the core catalogs under root and then those of every enabled
// plugin, in plugin order.
func Load(root string, mgr plugins.Manager, defaultLang string) (*Translator, error) {
	catalogs := make(map[string]map[string]string)
	dirs := []string{filepath.Join(root, "Core", "Translation")}
	if mgr != nil {
		for _, name := range mgr.EnabledPlugins() {
			dirs = append(dirs, filepath.Join(root, "Plugins", name, "Translation"))
		}
	}
	for _, dir := range dirs {
		if err := loadDir(dir, catalogs); err != nil {
			return nil, err
		}
	}
	return New(defaultLang, catalogs), nil
}

func loadDir(dir string, into map[string]map[string]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("i18n: read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isCatalog(ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", path, err)
		}
		var messages map[string]string
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("i18n: decode %s: %w", path, err)
		}
		lang := canonical(strings.TrimSuffix(entry.Name(), ext))
		if into[lang] == nil {
			into[lang] = make(map[string]string, len(messages))
		}
		for k, v := range messages {
			into[lang][k] = v
		}
	}
	return nil
}

// Lang returns the default language in canonical form.
func (t *Translator) Lang() string {
	if t == nil {
		return canonical(DefaultLang)
	}
	return t.lang
}

// Languages lists the loaded catalogs.
func (t *Translator) Languages() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.catalogs))
	for lang := range t.catalogs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Trans translates key in the default language.
func (t *Translator) Trans(key string, params map[string]any) string {
	return t.CustomTrans("", key, params)
}

// CustomTrans translates key in lang, falling back to the closest loaded
// language, then the default language, then the key itself.
func (t *Translator) CustomTrans(lang, key string, params map[string]any) string {
	message := key
	if t != nil {
		if found, ok := t.lookup(lang, key); ok {
			message = found
		}
	}
	return substitute(message, params)
}

func (t *Translator) lookup(lang, key string) (string, bool) {
	candidates := []string{}
	if strings.TrimSpace(lang) != "" {
		candidates = append(candidates, canonical(lang))
		if best := t.match(lang); best != "" {
			candidates = append(candidates, best)
		}
	}
	candidates = append(candidates, t.lang)
	for _, candidate := range candidates {
		if message, ok := t.catalogs[candidate][key]; ok {
			return message, true
		}
	}
	return "", false
}

func (t *Translator) match(lang string) string {
	if t.matcher == nil || len(t.tags) == 0 {
		return ""
	}
	requested, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return ""
	}
	_, index, confidence := t.matcher.Match(requested)
	if confidence == language.No || index < 0 || index >= len(t.tags) {
		return ""
	}
	return canonical(t.tags[index].String())
}

func (t *Translator) buildMatcher() {
	langs := t.Languages()
	tags := make([]language.Tag, 0, len(langs))
	// The first tag is the matcher's fallback, so the default goes first.
	if tag, err := language.Parse(strings.ReplaceAll(t.lang, "_", "-")); err == nil {
		if _, ok := t.catalogs[t.lang]; ok {
			tags = append(tags, tag)
		}
	}
	for _, lang := range langs {
		if lang == t.lang {
			continue
		}
		tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return
	}
	t.tags = tags
	t.matcher = language.NewMatcher(tags)
}

func substitute(message string, params map[string]any) string {
	if len(params) == 0 {
		return message
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(params)*2)
	for _, k := range keys {
		placeholder := k
		if !strings.HasPrefix(k, "%") {
			placeholder = "%" + k + "%"
		}
		pairs = append(pairs, placeholder, fmt.Sprint(params[k]))
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

// canonical turns "es-es" or "es_ES" into "es_ES".
func canonical(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "-", "_")
	parts := strings.Split(lang, "_")
	if len(parts) == 0 {
		return lang
	}
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) == 2 {
			parts[i] = strings.ToUpper(parts[i])
		}
	}
	return strings.Join(parts, "_")
}

func isCatalog(ext string) bool {
	for _, candidate := range catalogExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
