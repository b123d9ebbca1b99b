// Package config loads and validates the kiin toolchain configuration.
//
// Configuration lives in a single TOML (or YAML) file with one [[types]]
// block per content type. A content type is a configuration record, not
// code: it names the pack file, the JSON fields to read, the palette and
// the per-section timing table. Everything a pipeline stage needs is
// passed in as a value, so stages stay testable without touching the
// filesystem.
//
// Load resolves the file by extension; LoadFromEnv probes KIIN_CONFIG
// and the usual default locations.
package config
