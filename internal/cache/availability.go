// Package cache keeps availability snapshots in Redis.
//
// Every showtime has a version counter.  Writers bump it after each
// committed lock, reservation or cancellation; readers look a snapshot up
// under the current version and store freshly computed snapshots under the
// version they observed before reading the store.  A snapshot computed
// concurrently with a commit therefore lands under a version nobody reads
// once the commit is acknowledged.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-seat-booking/internal/service"
)

// AvailabilityCache implements service.AvailabilityCache on Redis.
type AvailabilityCache struct {
	rdb    redis.Cmdable
	prefix string
}

var _ service.AvailabilityCache = (*AvailabilityCache)(nil)

// NewAvailabilityCache returns a cache namespaced under prefix.
func NewAvailabilityCache(rdb redis.Cmdable, prefix string) *AvailabilityCache {
	if prefix == "" {
		prefix = "avail"
	}
	return &AvailabilityCache{rdb: rdb, prefix: prefix}
}

// VersionKey is the counter key of a showtime.
func (c *AvailabilityCache) VersionKey(showtimeID uint64) string {
	return fmt.Sprintf("%s:ver:%d", c.prefix, showtimeID)
}

// SnapshotKey is the key a snapshot of the given version is stored under.
func (c *AvailabilityCache) SnapshotKey(showtimeID uint64, version int64) string {
	return fmt.Sprintf("%s:%d:v%d", c.prefix, showtimeID, version)
}

// Load returns the current version of the showtime and the snapshot
// cached for it, or a nil snapshot on a miss.
func (c *AvailabilityCache) Load(ctx context.Context, showtimeID uint64) (*service.Availability, int64, error) {
	version, err := c.rdb.Get(ctx, c.VersionKey(showtimeID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("read version: %w", err)
	}
	raw, err := c.rdb.Get(ctx, c.SnapshotKey(showtimeID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read snapshot: %w", err)
	}
	var a service.Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		// treat a corrupt entry as a miss; Save will overwrite it
		return nil, version, nil
	}
	return &a, version, nil
}

// Save stores a snapshot under version for ttl.
func (c *AvailabilityCache) Save(ctx context.Context, showtimeID uint64, version int64, a *service.Availability, ttl time.Duration) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.SnapshotKey(showtimeID, version), string(data), ttl).Err()
}

// Invalidate moves the showtime to a new version.
func (c *AvailabilityCache) Invalidate(ctx context.Context, showtimeID uint64) error {
	return c.rdb.Incr(ctx, c.VersionKey(showtimeID)).Err()
}
