package store

import (
	"errors"
	"fmt"
)

// Storage is a synchronous string key/value device, the equivalent of a
// browser's localStorage.
type Storage interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Set overwrites the value under key
	Set(key, value string) error
}

// ErrQuotaExceeded is returned by a limited Storage when a write is too large
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// MemoryStorage keeps values in a map. Nothing survives the process.
type MemoryStorage struct {
	data map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.data[key] = value
	return nil
}

// limitedStorage rejects writes larger than maxBytes
type limitedStorage struct {
	Storage
	maxBytes int
}

// Limit wraps s so that any single key plus value larger than maxBytes is
// rejected with ErrQuotaExceeded. A maxBytes of zero or less disables the limit.
func Limit(s Storage, maxBytes int) Storage {
	if maxBytes <= 0 {
		return s
	}
	return &limitedStorage{Storage: s, maxBytes: maxBytes}
}

func (l *limitedStorage) Set(key, value string) error {
	if size := len(key) + len(value); size > l.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrQuotaExceeded, size, l.maxBytes)
	}
	return l.Storage.Set(key, value)
}
