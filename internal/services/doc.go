// Package services defines shared utilities consumed by the pipeline and the
// external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, source paths, and window
//     offsets for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (bad input vs. a misbehaving external tool) with errors.Is.
//
// Use these helpers when wiring new adapters so error handling and
// observability stay uniform across the pipeline.
package services
