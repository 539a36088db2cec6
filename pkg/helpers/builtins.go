package helpers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/abdedarghal111/facturascripts/pkg/attachments"
	"github.com/abdedarghal111/facturascripts/pkg/security"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

// Built-in helper names.
const (
	NameAsset           = "asset"
	NameAttachedFile    = "attachedFile"
	NameFormToken       = "formToken"
	NameGetIncludeViews = "getIncludeViews"
	NameIcon            = "icon"
	NameMoney           = "money"
	NameSettings        = "settings"
	NameTrans           = "trans"
)

type (
	// AssetResolver maps asset references to URLs.
	AssetResolver interface {
		URL(ref string) string
	}
	// AttachmentSource loads stored uploads.
	AttachmentSource interface {
		Get(ctx context.Context, id int64) (attachments.AttachedFile, error)
	}
	// TokenSource issues form tokens.
	TokenSource interface {
		NewToken() string
	}
	// FragmentSource lists extension fragments for a parent and position.
	FragmentSource interface {
		Collect(parent, position string) ([]views.Fragment, error)
	}
	// MoneyFormatter prints amounts.
	MoneyFormatter interface {
		Format(amount float64, code string) string
	}
	// SettingsSource reads grouped settings.
	SettingsSource interface {
		Get(name, group string) any
	}
	// Translator looks up messages.
	Translator interface {
		Trans(key string, params map[string]any) string
		CustomTrans(lang, key string, params map[string]any) string
	}
)

// Deps wires the built-ins to their collaborators. A nil collaborator makes
// its helper degrade to a harmless default.
type Deps struct {
	Context     context.Context
	Assets      AssetResolver
	Attachments AttachmentSource
	Tokens      TokenSource
	Fragments   FragmentSource
	Money       MoneyFormatter
	Settings    SettingsSource
	Translator  Translator
	// OnError observes helper failures.
	OnError func(helper string, err error)
}

// Builtins returns the built-in helpers bound to deps, sorted by name.
func Builtins(deps Deps) []Helper {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	b := builtins{deps: deps}
	list := []Helper{
		{Name: NameAsset, Func: b.asset},
		{Name: NameAttachedFile, Func: b.attachedFile},
		{Name: NameFormToken, Func: b.formToken},
		{Name: NameGetIncludeViews, Func: b.getIncludeViews},
		{Name: NameIcon, Func: b.icon},
		{Name: NameMoney, Func: b.money},
		{Name: NameSettings, Func: b.settings},
		{Name: NameTrans, Func: b.trans},
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// RegisterBuiltins adds Builtins(deps) to r.
func RegisterBuiltins(r *Registry, deps Deps) error {
	for _, h := range Builtins(deps) {
		if err := r.Register(h); err != nil {
			return err
		}
	}
	return nil
}

type builtins struct {
	deps Deps
}

func (b builtins) fail(helper string, err error) error {
	err = fmt.Errorf("%s: %w", helper, err)
	if b.deps.OnError != nil {
		b.deps.OnError(helper, err)
	}
	return err
}

// asset(path)
func (b builtins) asset(ref any) string {
	s := toString(ref)
	if b.deps.Assets == nil {
		return s
	}
	return b.deps.Assets.URL(s)
}

// attachedFile(id) returns an empty record when the id is unknown.
func (b builtins) attachedFile(id any) (attachments.AttachedFile, error) {
	if b.deps.Attachments == nil {
		return attachments.AttachedFile{}, nil
	}
	n, err := toInt64(id)
	if err != nil {
		return attachments.AttachedFile{}, b.fail(NameAttachedFile, err)
	}
	file, err := b.deps.Attachments.Get(b.deps.Context, n)
	if errors.Is(err, attachments.ErrNotFound) {
		return attachments.AttachedFile{}, nil
	}
	if err != nil {
		return attachments.AttachedFile{}, b.fail(NameAttachedFile, err)
	}
	return file, nil
}

// formToken(input=true) returns a hidden input, or the bare token when input
// is false.
func (b builtins) formToken(args ...any) string {
	if b.deps.Tokens == nil {
		return ""
	}
	token := b.deps.Tokens.NewToken()
	if len(args) > 0 && !truthy(args[0]) {
		return token
	}
	return `<input type="hidden" name="` + security.FieldName + `" value="` + html.EscapeString(token) + `"/>`
}

// getIncludeViews(parentTemplate, position)
func (b builtins) getIncludeViews(parent, position any) ([]map[string]any, error) {
	if b.deps.Fragments == nil {
		return []map[string]any{}, nil
	}
	fragments, err := b.deps.Fragments.Collect(toString(parent), toString(position))
	if err != nil {
		return nil, b.fail(NameGetIncludeViews, err)
	}
	out := make([]map[string]any, len(fragments))
	for i, f := range fragments {
		out[i] = f.Map()
	}
	return out, nil
}

// icon(classes, title="")
func (b builtins) icon(classes any, args ...any) string {
	title := ""
	if len(args) > 0 {
		title = toString(args[0])
	}
	return IconMarkup(toString(classes), title)
}

// money(amount, currency="")
func (b builtins) money(amount any, args ...any) (string, error) {
	value, err := toFloat64(amount)
	if err != nil {
		return "", b.fail(NameMoney, err)
	}
	code := ""
	if len(args) > 0 {
		code = toString(args[0])
	}
	if b.deps.Money == nil {
		return strconv.FormatFloat(value, 'f', 2, 64), nil
	}
	return b.deps.Money.Format(value, code), nil
}

// settings(name, group="default")
func (b builtins) settings(name any, args ...any) any {
	if b.deps.Settings == nil {
		return nil
	}
	group := ""
	if len(args) > 0 {
		group = toString(args[0])
	}
	return b.deps.Settings.Get(toString(name), group)
}

// trans(key, params={}, lang="")
func (b builtins) trans(key any, args ...any) string {
	k := toString(key)
	if b.deps.Translator == nil {
		return k
	}
	var (
		params map[string]any
		lang   string
	)
	if len(args) > 0 {
		params = toParams(args[0])
	}
	if len(args) > 1 {
		lang = toString(args[1])
	}
	if lang == "" {
		return b.deps.Translator.Trans(k, params)
	}
	return b.deps.Translator.CustomTrans(lang, k, params)
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid id %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid id of type %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("invalid amount of type %T", v)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case string:
		return t != "" && t != "0" && !strings.EqualFold(t, "false")
	default:
		return true
	}
}

// toParams accepts any string-keyed map, including engine context types.
func toParams(v any) map[string]any {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}
