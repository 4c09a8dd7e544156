// Package transcriber adapts an external speech-recognition command to the
// pipeline.
//
// The adapter runs the engine once per window against the whole media file
// and returns segments with window-local timestamps. Results are recovered in
// two ways: first from a JSON block printed on stdout (the engine prints
// progress chatter before it), then from the sibling <stem>.json file the
// engine writes into its output directory.
//
// Failure handling is split in two. An engine that cannot start, exits
// non-zero, times out, or is cancelled returns an error so the pipeline halts
// without advancing. An engine that runs but produces nothing parseable
// yields an empty result and a warning, and the window is treated as silent.
package transcriber
