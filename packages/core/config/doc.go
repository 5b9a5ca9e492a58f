// Package config handles configuration loading and management for easyhttp.
//
// It provides functionality for:
//   - Loading session defaults from .easyhttp.json or .easyhttp.yaml files
//   - Default configuration values
//   - Merging a file configuration with command line overrides
package config
