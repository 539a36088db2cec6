// Package template defines the engine-agnostic renderer contract and the
// error kinds every engine reports: load failures (the template cannot be
// found), syntax failures (it cannot be parsed) and runtime failures (it
// fails while evaluating).
package template
