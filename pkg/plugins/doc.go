// Package plugins exposes the read-only view of installed plugins that the
// view layer consumes: which plugins are enabled and in what order. Plugin
// lifecycle (install, enable, disable) belongs to the host application.
package plugins
