package site

import (
	"log/slog"

	"github.com/randalmurphal/stapy/pkg/stapy/cache"
	"github.com/randalmurphal/stapy/pkg/stapy/template"
)

// Option configures a Source.
type Option func(*Source)

// WithDispatcher sets the dispatcher for file_content_opened and
// page_data_merged hooks.
func WithDispatcher(d template.Dispatcher) Option {
	return func(s *Source) {
		s.dispatcher = d
	}
}

// WithStore sets the store holding the page-record snapshot.
// The Source does not close it.
func WithStore(store cache.Store) Option {
	return func(s *Source) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}
