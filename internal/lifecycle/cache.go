package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/TriviaCast_Go/internal/domain"
)

// statusCache remembers PUBLISHED games. PUBLISHED is terminal, so a hit is
// never stale. Every other status can be changed by another instance and is
// read from the database.
type statusCache struct {
	lru *expirable.LRU[uuid.UUID, domain.LifecycleStatus]
}

func newStatusCache(size int, ttl time.Duration) *statusCache {
	return &statusCache{
		lru: expirable.NewLRU[uuid.UUID, domain.LifecycleStatus](size, nil, ttl),
	}
}

// Get returns the cached status for a game
func (c *statusCache) Get(gameID uuid.UUID) (domain.LifecycleStatus, bool) {
	return c.lru.Get(gameID)
}

// Set stores a status. Anything but PUBLISHED is ignored.
func (c *statusCache) Set(gameID uuid.UUID, status domain.LifecycleStatus) {
	if status != domain.StatusPublished {
		return
	}
	c.lru.Add(gameID, status)
}
