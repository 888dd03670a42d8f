// Package config loads, normalizes, and validates toondex configuration.
//
// Configuration lives in a TOML file (default ~/.config/toondex/config.toml)
// with sections for paths, logging, the two external catalogs, ingestion
// pacing, match tolerances, and relationship resolution. Defaults cover every
// field so a minimal file only needs API credentials.
package config
