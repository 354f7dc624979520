// Package config loads runtime configuration for the community hub client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with --config / -c. Files ending in
//     .yaml or .yml are decoded with yaml.v3, anything else as JSON.
//  3. Environment variables (COMMUNITY_*), after loading a .env file from
//     the working directory when one exists.
//  4. Command-line flags, but only the ones the user actually set.
//
// # JSON schema
//
// Durations may be strings like "5s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://hub.example.org/api",
//	  "reconcile_timeout": "5s",
//	  "bootstrap_timeout": "10s",
//	  "storage": {"backend": "redis", "redis_addr": "127.0.0.1:6379"}
//	}
package config
