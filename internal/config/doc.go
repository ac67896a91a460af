// Package config loads, normalizes, and validates movconv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MOVCONV_FFMPEG. The Config type centralizes every knob the converter, the
// watcher, and the CLI need so encoder flags, history storage, and watch jobs
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
