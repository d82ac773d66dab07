// Package config loads, validates, and normalizes snag's TOML configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/snag/config.toml, then ./snag.toml, falling back to built-in
// defaults when no file exists. Path fields are tilde-expanded and made
// absolute during load so downstream packages never deal with relative or
// home-anchored paths.
package config
