// Package config loads, validates, and normalizes the TOML configuration
// shared by the CLI and the monitoring daemon.
package config
