package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AvailabilityCache is the eventually-consistent projection of free slot
// counts served to UI reads. The reservation coordinator never consults it;
// it reads fresh inside its transaction.
type AvailabilityCache struct {
	client *redis.Client // nil disables caching
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:available", sessionID)
}

// Get returns the cached free slot count, or ok=false on miss.
func (c *AvailabilityCache) Get(ctx context.Context, sessionID uuid.UUID) (int, bool) {
	if c.client == nil {
		return 0, false
	}

	val, err := c.client.Get(ctx, availabilityKey(sessionID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("availability cache read failed")
		}
		return 0, false
	}

	available, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return available, true
}

// Set stores the free slot count with the configured TTL.
func (c *AvailabilityCache) Set(ctx context.Context, sessionID uuid.UUID, available int) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, availabilityKey(sessionID), strconv.Itoa(available), c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("availability cache write failed")
	}
}

// Invalidate drops the cached count after a committed occupancy change.
func (c *AvailabilityCache) Invalidate(ctx context.Context, sessionID uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, availabilityKey(sessionID)).Err(); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("availability cache invalidation failed")
	}
}
