package site

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/randalmurphal/stapy/pkg/stapy/cache"
	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/observability"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// AllRecords returns every page record ordered by page path. The first
// call after a Reset walks pages/ and fills the snapshot store; later
// calls read the snapshot.
func (s *Source) AllRecords(ctx context.Context, includeDisabled bool) (record.Collection, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if includeDisabled {
		return all, nil
	}
	out := make(record.Collection, 0, len(all))
	for _, r := range all {
		if r.IsEnabled() {
			out = append(out, r)
		}
	}
	return out, nil
}

// Reset drops the snapshot and reports how many records it held.
func (s *Source) Reset() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.Clear()
	if err != nil {
		return 0, err
	}
	s.generation.Add(1)
	return n, nil
}

// Generation counts resets since the Source was created.
func (s *Source) Generation() uint64 {
	return s.generation.Load()
}

// PageKeys lists the page paths that have a data file, sorted.
func (s *Source) PageKeys() ([]string, error) {
	var keys []string
	err := fs.WalkDir(s.fsys, PagesDir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if name == PagesDir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || path.Ext(name) != dataExt {
			return nil
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, PagesDir), dataExt)
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, &sterrors.IOError{Path: PagesDir, Err: err}
	}
	// WalkDir visits "a/x.html" before "a.html"; stores list keys sorted.
	sort.Strings(keys)
	return keys, nil
}

func (s *Source) snapshot(ctx context.Context) (record.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if all, ok := s.readSnapshot(); ok {
		return all, nil
	}

	keys, err := s.PageKeys()
	if err != nil {
		return nil, err
	}
	all := make(record.Collection, 0, len(keys))
	caching := true
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			s.discard()
			return nil, err
		}
		rec, err := s.LookupRecord(ctx, key)
		if err != nil {
			s.discard()
			return nil, err
		}
		all = append(all, rec)
		if !caching {
			continue
		}
		if err := cache.PutJSON(s.store, key, rec); err != nil {
			observability.LogCacheError(s.logger, "put", key, err)
			caching = false
			s.discard()
		}
	}
	return all, nil
}

// discard empties a partly written snapshot so it is never served.
func (s *Source) discard() {
	if _, err := s.store.Clear(); err != nil {
		observability.LogCacheError(s.logger, "clear", "", err)
	}
}

// readSnapshot loads the stored records. It reports false when the store
// is empty or unreadable, in which case the caller rebuilds.
func (s *Source) readSnapshot() (record.Collection, bool) {
	keys, err := s.store.Keys()
	if err != nil {
		observability.LogCacheError(s.logger, "keys", "", err)
		return nil, false
	}
	if len(keys) == 0 {
		return nil, false
	}
	all := make(record.Collection, 0, len(keys))
	for _, key := range keys {
		var rec record.Record
		if err := cache.GetJSON(s.store, key, &rec); err != nil {
			observability.LogCacheError(s.logger, "get", key, err)
			return nil, false
		}
		all = append(all, rec)
	}
	return all, true
}
