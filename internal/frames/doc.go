// Package frames extracts single still images from media files with ffmpeg.
//
// Extraction is best effort. Extract reports success as a bool and logs a
// warning on any failure; it never returns an error to the caller.
package frames
