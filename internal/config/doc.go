// Package config loads and validates application settings. Values come from
// built-in defaults, an optional config.yaml, a local .env file, and
// TOURBOOK_-prefixed environment variables, in increasing precedence.
package config
