// Package preflight provides readiness checks for the external tools and
// filesystem paths Scrivener depends on.
//
// The CLI "scrivener check" command prints every result; "scrivener run"
// and "scrivener watch" call CheckSystemDeps and refuse to start when a
// required tool is missing.
package preflight
