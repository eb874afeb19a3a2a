/*
Package config loads site settings from YAML or JSON.

Config wraps a map[string]any with typed accessors that fall back to a
default on missing keys or mismatched types:

	cfg, err := config.FromFile("stapy.yaml")
	depth := cfg.Int("max_depth", 64)

Settings is the resolved form used by the rest of the module:

	settings, err := config.Load("stapy.yaml") // defaults if the file is missing

Config is safe for concurrent reads as long as the wrapped map is not
modified.
*/
package config
