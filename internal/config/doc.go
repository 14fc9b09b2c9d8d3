// Package config loads and validates the application configuration.
//
// Configuration comes from three layers, lowest precedence first: struct
// tag defaults, BROKERSUM_* environment variables, and an optional YAML
// file. Validation combines struct tags with backend-specific checks
// (a GCS bucket is only required when the gcs backend is selected).
package config
