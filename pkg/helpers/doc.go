// Package helpers holds the functions templates call: the built-in set
// (asset, attachedFile, formToken, getIncludeViews, icon, money, settings,
// trans) and any an application registers next to them.
//
// Helpers take loosely typed arguments because template engines pass
// whatever the template evaluated. Failures are returned as the second
// result and also reported through Deps.OnError, since engines tend to
// flatten the error on its way out.
package helpers
