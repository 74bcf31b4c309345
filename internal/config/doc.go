// Package config loads server, storage, auth and oracle settings from an
// optional .env file, an optional config.yaml and FLUENT_ environment
// variables, and validates them before anything else starts.
package config
