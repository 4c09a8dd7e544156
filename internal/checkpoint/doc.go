// Package checkpoint persists the resumable state of a transcription job.
//
// A Checkpoint records the canonical source path, the stitched transcript,
// captured frames, the cursor (start of the next unprocessed window), and the
// lifecycle state. The Store reads and writes it as indented JSON at
// <output dir>/<source stem>_checkpoint.json, replacing the file atomically
// so a crash mid-write never corrupts the previous valid copy.
//
// Loading is forgiving: an unreadable or malformed file is reported as a
// CorruptError and logged, and callers start fresh. Reading an explicit file
// (ReadFile) is strict because the caller asked for that file by name.
//
// DirLock guards an output directory so two processes never interleave
// writes to the same checkpoint.
package checkpoint
