package cache_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/stapy/pkg/stapy/cache"
)

// storeFactories runs the shared contract against every implementation.
func storeFactories(t *testing.T) map[string]func() cache.Store {
	return map[string]func() cache.Store{
		"memory": func() cache.Store { return cache.NewMemoryStore() },
		"sqlite": func() cache.Store {
			s, err := cache.NewSQLiteStore(filepath.Join(t.TempDir(), "pages.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_Contract(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			defer s.Close()

			_, err := s.Get("/index.html")
			assert.ErrorIs(t, err, cache.ErrNotFound)

			require.NoError(t, s.Put("/b.html", []byte(`{"title":"b"}`)))
			require.NoError(t, s.Put("/a.html", []byte(`{"title":"a"}`)))
			require.NoError(t, s.Put("/a.html", []byte(`{"title":"a2"}`)))

			data, err := s.Get("/a.html")
			require.NoError(t, err)
			assert.Equal(t, `{"title":"a2"}`, string(data))

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"/a.html", "/b.html"}, keys)

			n, err := s.Clear()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			keys, err = s.Keys()
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Close())
			require.NoError(t, s.Close(), "close is idempotent")

			assert.ErrorIs(t, s.Put("k", nil), cache.ErrStoreClosed)
			_, err := s.Get("k")
			assert.ErrorIs(t, err, cache.ErrStoreClosed)
			_, err = s.Keys()
			assert.ErrorIs(t, err, cache.ErrStoreClosed)
			_, err = s.Clear()
			assert.ErrorIs(t, err, cache.ErrStoreClosed)
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			defer s.Close()

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := fmt.Sprintf("/p%02d.html", i)
					assert.NoError(t, s.Put(key, []byte(key)))
					data, err := s.Get(key)
					assert.NoError(t, err)
					assert.Equal(t, key, string(data))
				}(i)
			}
			wg.Wait()

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Len(t, keys, 20)
		})
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	s := cache.NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put("k", buf))
	buf[0] = 'x'

	data, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")

	first, err := cache.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Put("/index.html", []byte("persistent")))
	require.NoError(t, first.Close())

	second, err := cache.NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	data, err := second.Get("/index.html")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), data)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := cache.NewSQLiteStore("/nonexistent/path/pages.db")
	assert.Error(t, err)
}

func TestSQLiteStore_Memory(t *testing.T) {
	s, err := cache.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("k", []byte("v")))
	data, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
}

func TestJSONHelpers(t *testing.T) {
	s := cache.NewMemoryStore()
	require.NoError(t, cache.PutJSON(s, "/a.html", map[string]any{"title": "a", "n": 1}))

	var got map[string]any
	require.NoError(t, cache.GetJSON(s, "/a.html", &got))
	assert.Equal(t, map[string]any{"title": "a", "n": float64(1)}, got)

	assert.ErrorIs(t, cache.GetJSON(s, "/missing", &got), cache.ErrNotFound)

	require.NoError(t, s.Put("/bad", []byte("{")))
	assert.ErrorContains(t, cache.GetJSON(s, "/bad", &got), "decode /bad")
}
