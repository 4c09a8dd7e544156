// Package interrupt exposes a process-wide "stop requested" flag set by
// SIGINT or SIGTERM and polled by long-running loops at safe points.
package interrupt
