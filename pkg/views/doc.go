// Package views decides which physical template file answers to a logical
// template name and which plugin fragments are spliced into a template at a
// named insertion point.
//
// Templates are searched in named namespaces, addressed as "@Name/file", plus
// one unnamed main namespace used by bare names. Build registers the install
// tree the way the host application lays it out:
//
//	Core/View                      namespace "Core"
//	Plugins/{P}/View               namespace "Plugin{P}"
//	Plugins/{P}/Extension/View     namespace "PluginExtension{P}"
//	Dinamic/View or Core/View      main namespace (debug picks Core/View)
//
// In debug mode every plugin and custom directory is also prepended to the
// main namespace, so the last registered directory wins a bare-name lookup.
//
// Fragments follow the file naming convention {base}_{position}[_{order}].ext
// inside each plugin's Extension/View tree. Collector returns them sorted by
// a zero-padded order key.
package views
