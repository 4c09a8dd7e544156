// Package textutil provides text helpers shared by the pipeline and exporters.
//
// The primary use cases are:
//   - Normalizing transcript text (trim + Unicode NFC) before it is stored
//   - Counting and truncating by user-perceived characters rather than bytes
//   - Sanitizing filenames and path segments for safe filesystem use
package textutil
