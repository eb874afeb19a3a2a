// Package cache stores the page-record snapshot between reads.
//
// The site source renders every page record once and keeps the result in a
// Store until the snapshot is reset. MemoryStore serves a single process;
// SQLiteStore lets a build and a preview process share one snapshot file.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Store holds encoded page records by page key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores data under key, replacing any previous value.
	Put(key string, data []byte) error

	// Get returns the data for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Keys returns every stored key in ascending order.
	Keys() ([]string, error)

	// Clear removes every entry and reports how many there were.
	Clear() (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a key has no entry.
	ErrNotFound = errors.New("cache entry not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("cache store closed")
)

// PutJSON encodes v as JSON and stores it under key.
func PutJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// GetJSON decodes the entry under key into v.
func GetJSON(s Store, key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
