package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Settings are the resolved options of a site.
type Settings struct {
	// SourceDir holds pages/, layout/, template/ and assets/.
	SourceDir string
	// BuildDir receives one subdirectory per environment.
	BuildDir string
	// Environments to build. Empty means every directory under BuildDir.
	Environments []string
	// LocalEnvironment renders in memory and is never written.
	LocalEnvironment string
	// MaxDepth bounds nested template expansion.
	MaxDepth int
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// CachePath is the SQLite page snapshot file. Empty keeps it in memory.
	CachePath string
	// Plugins lists the built-in plugins to enable. Nil enables all.
	Plugins []string
	// WatchDebounce delays rebuilds after a burst of file changes.
	WatchDebounce time.Duration
}

// Defaults returns the settings used when no config file exists.
func Defaults() Settings {
	return Settings{
		SourceDir:        "source",
		BuildDir:         "web",
		LocalEnvironment: "local",
		MaxDepth:         64,
		LogLevel:         "info",
		WatchDebounce:    200 * time.Millisecond,
	}
}

// SettingsFrom reads settings from cfg, falling back to Defaults.
//
//	source_dir: source
//	build_dir: web
//	environments: [prod, staging]
//	local_environment: local
//	max_depth: 64
//	log_level: info
//	cache_path: .stapy/pages.db
//	plugins: [date, markdown]
//	watch_debounce: 200ms
func SettingsFrom(cfg Config) Settings {
	d := Defaults()
	return Settings{
		SourceDir:        cfg.String("source_dir", d.SourceDir),
		BuildDir:         cfg.String("build_dir", d.BuildDir),
		Environments:     cfg.StringSlice("environments", nil),
		LocalEnvironment: cfg.String("local_environment", d.LocalEnvironment),
		MaxDepth:         cfg.Int("max_depth", d.MaxDepth),
		LogLevel:         strings.ToLower(cfg.String("log_level", d.LogLevel)),
		CachePath:        cfg.String("cache_path", ""),
		Plugins:          cfg.StringSlice("plugins", nil),
		WatchDebounce:    cfg.Duration("watch_debounce", d.WatchDebounce),
	}
}

// Validate reports settings that cannot work.
func (s Settings) Validate() error {
	var errs []error
	if s.SourceDir == "" {
		errs = append(errs, errors.New("source_dir is required"))
	}
	if s.BuildDir == "" {
		errs = append(errs, errors.New("build_dir is required"))
	}
	if s.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_depth must be positive, got %d", s.MaxDepth))
	}
	if slices.Contains(s.Environments, s.LocalEnvironment) {
		errs = append(errs, fmt.Errorf("environment %q is the local environment and cannot be built", s.LocalEnvironment))
	}
	if _, err := s.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level converts LogLevel to a slog level.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// PluginEnabled reports whether the named built-in plugin should load.
func (s Settings) PluginEnabled(name string) bool {
	return s.Plugins == nil || slices.Contains(s.Plugins, name)
}
