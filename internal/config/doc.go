// Package config loads and merges prradar configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PRRADAR_FORMAT, PRRADAR_DIFFER, PRRADAR_GAP_TOLERANCE, etc.)
//  3. Config file ($XDG_CONFIG_HOME/prradar/config.json or config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged and validated [Config], [Save] to write the
// config file, and [SetField] to update a single key.
package config
