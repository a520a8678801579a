// Package store provides a key-value store abstraction with in-memory and
// Redis backends. It backs minigame sessions and in-flight translation locks.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("store: key not found")

// Store defines the key-value operations the bot depends on.
type Store interface {
	// Set stores a key-value pair. A ttl of 0 means no expiry.
	Set(key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by its key. Returns ErrNotFound for missing keys.
	Get(key string) ([]byte, error)

	// Delete removes a value by its key.
	Delete(key string) error

	// Exists checks if a key exists.
	Exists(key string) (bool, error)

	// SetNX sets a key-value pair if the key does not already exist and
	// reports whether the write happened.
	SetNX(key string, value []byte, ttl time.Duration) (bool, error)

	// Clear removes all data.
	Clear() error

	// Close releases the store's resources.
	Close() error
}
