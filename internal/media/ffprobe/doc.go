// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe with an optional timeout and an injectable runner
//
// The pipeline only needs the container duration (Prober.Duration); Inspect
// exposes the full stream listing for the check and show commands.
package ffprobe
