// Package logs reads the CLI's log file for `scrivener logs`.
//
// Last returns the trailing lines of a file with bounded memory. Follow
// streams lines appended after an offset until the context ends, waking on
// fsnotify write events and falling back to polling. Only complete lines are
// emitted; a partially written line waits for its newline. A file that
// shrinks (rotation or truncation) is read again from the start.
package logs
