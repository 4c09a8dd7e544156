// Package export renders a checkpoint's transcript in downloadable formats:
// CSV rows, the raw checkpoint JSON, SubRip subtitles and a Markdown
// document with frame references.
package export
