// Package config holds leakwatch settings: built-in defaults, the optional
// YAML file, environment overrides and validation.
package config
