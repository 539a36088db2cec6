package views

import (
	"path/filepath"
)

// DefaultExtension is the two-part suffix of template files.
const DefaultExtension = ".html.twig"

// Namespace names registered by Build.
const (
	CoreNamespace            = "Core"
	PluginNamespacePrefix    = "Plugin"
	ExtensionNamespacePrefix = "PluginExtension"
)

// Layout maps the install root to the directories the view layer reads.
type Layout struct {
	Root string
}

// CoreViews is {root}/Core/View.
func (l Layout) CoreViews() string {
	return filepath.Join(l.Root, "Core", "View")
}

// DynamicViews is {root}/Dinamic/View, the merged tree produced by deploy.
func (l Layout) DynamicViews() string {
	return filepath.Join(l.Root, "Dinamic", "View")
}

// PluginRoot is {root}/Plugins/{name}.
func (l Layout) PluginRoot(name string) string {
	return filepath.Join(l.Root, "Plugins", name)
}

// PluginViews is {root}/Plugins/{name}/View.
func (l Layout) PluginViews(name string) string {
	return filepath.Join(l.PluginRoot(name), "View")
}

// PluginExtensionViews is {root}/Plugins/{name}/Extension/View.
func (l Layout) PluginExtensionViews(name string) string {
	return filepath.Join(l.PluginRoot(name), "Extension", "View")
}

// MyFiles is {root}/MyFiles, the writable user data folder.
func (l Layout) MyFiles() string {
	return filepath.Join(l.Root, "MyFiles")
}

// PluginNamespace returns "Plugin{name}".
func PluginNamespace(name string) string {
	return PluginNamespacePrefix + name
}

// ExtensionNamespace returns "PluginExtension{name}".
func ExtensionNamespace(name string) string {
	return ExtensionNamespacePrefix + name
}
