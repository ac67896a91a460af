// Package preflight provides readiness checks for the encoder and the
// filesystem paths movconv depends on.
//
// The CLI "movconv check" command runs RunAll and renders each Result. The
// watcher runs the same checks once at startup and refuses to start when a
// required check fails, so a misconfigured job is reported before the first
// event arrives.
package preflight
