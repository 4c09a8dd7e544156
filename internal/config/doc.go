// Package config loads, normalizes, and validates Scrivener configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCRIVENER_TRANSCRIBER. The Config type centralizes every knob the pipeline
// and CLI need: output and state directories, the external tool binaries, the
// windowing parameters, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
