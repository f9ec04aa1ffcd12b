// Package cache provides the geocode lookup cache backends.
package cache

import (
	"context"
	"time"

	"github.com/UnknownOlympus/locus/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a place lookup stays cached. Place names rarely move.
const DefaultTTL = 24 * time.Hour

// Memory keeps geocode results in process memory.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates an in-process cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{store: gocache.New(ttl, 2*ttl)}
}

// Get returns the cached coordinate for key, or nil on a miss.
func (m *Memory) Get(_ context.Context, key string) (*models.Coordinates, error) {
	value, found := m.store.Get(key)
	if !found {
		return nil, nil //nolint:nilnil // a miss is not an error
	}

	coords, ok := value.(models.Coordinates)
	if !ok {
		m.store.Delete(key)
		return nil, nil //nolint:nilnil // a miss is not an error
	}

	return &coords, nil
}

// Set stores coords under key with the default expiration.
func (m *Memory) Set(_ context.Context, key string, coords models.Coordinates) error {
	m.store.Set(key, coords, gocache.DefaultExpiration)
	return nil
}

// Flush drops every entry.
func (m *Memory) Flush() {
	m.store.Flush()
}
