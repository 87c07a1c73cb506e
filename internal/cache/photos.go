package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"photoshare/internal/logger"
)

const (
	// PhotoIndexPrefix is the key prefix for per-owner photo indexes
	PhotoIndexPrefix = "photos:user:"

	// PhotoIndexTTL is the TTL for an owner's index (7 days)
	PhotoIndexTTL = 7 * 24 * time.Hour
)

// PhotoScore represents a photo with its creation time score for caching
type PhotoScore struct {
	PhotoID   uuid.UUID
	Timestamp int64 // Unix milliseconds
}

// PhotoIndex keeps, per owner, the ids of their photos ordered by creation
// time. The gallery reads page windows from it and falls back to
// the store when an owner's index is absent.
type PhotoIndex interface {
	// Add inserts a photo into an owner's index. It is a no-op when the
	// index has not been warmed, so a partial index is never served.
	Add(ctx context.Context, ownerID int64, photoID uuid.UUID, timestamp int64) error

	// Remove deletes a photo from an owner's index.
	Remove(ctx context.Context, ownerID int64, photoID uuid.UUID) error

	// Window returns photo ids newest first starting at offset, plus the
	// owner's total. found=false means the index is absent and must be warmed.
	Window(ctx context.Context, ownerID int64, offset, limit int) (ids []uuid.UUID, total int, found bool, err error)

	// Warm replaces an owner's index. An empty list drops the index.
	Warm(ctx context.Context, ownerID int64, photos []PhotoScore) error
}

// addIfWarm only touches indexes that already exist.
var addIfWarm = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
	redis.call("PEXPIRE", KEYS[1], ARGV[3])
	return 1
end
return 0
`)

// RedisPhotoIndex implements PhotoIndex using Redis Sorted Sets.
type RedisPhotoIndex struct {
	client *redis.Client
	log    *logger.Logger
}

// NewPhotoIndex creates a new PhotoIndex backed by Redis.
func NewPhotoIndex(client *redis.Client, log *logger.Logger) PhotoIndex {
	return &RedisPhotoIndex{client: client, log: log.With("component", "photo_index")}
}

func indexKey(ownerID int64) string {
	return fmt.Sprintf("%s%d", PhotoIndexPrefix, ownerID)
}

func (c *RedisPhotoIndex) Add(ctx context.Context, ownerID int64, photoID uuid.UUID, timestamp int64) error {
	key := indexKey(ownerID)

	added, err := addIfWarm.Run(ctx, c.client, []string{key},
		timestamp, photoID.String(), PhotoIndexTTL.Milliseconds()).Int()
	if err != nil {
		c.log.Warn("Add failed", "owner_id", ownerID, "photo_id", photoID, "error", err)
		return fmt.Errorf("add photo to index: %w", err)
	}

	c.log.Debug("Add", "owner_id", ownerID, "photo_id", photoID, "applied", added == 1)
	return nil
}

func (c *RedisPhotoIndex) Remove(ctx context.Context, ownerID int64, photoID uuid.UUID) error {
	key := indexKey(ownerID)

	removed, err := c.client.ZRem(ctx, key, photoID.String()).Result()
	if err != nil {
		c.log.Warn("Remove failed", "owner_id", ownerID, "photo_id", photoID, "error", err)
		return fmt.Errorf("remove photo from index: %w", err)
	}

	c.log.Debug("Remove", "owner_id", ownerID, "photo_id", photoID, "removed", removed)
	return nil
}

// Window reads ZCARD and ZREVRANGE in one pipeline.
func (c *RedisPhotoIndex) Window(ctx context.Context, ownerID int64, offset, limit int) ([]uuid.UUID, int, bool, error) {
	key := indexKey(ownerID)
	startTime := time.Now()

	pipe := c.client.Pipeline()
	card := pipe.ZCard(ctx, key)
	members := pipe.ZRevRange(ctx, key, int64(offset), int64(offset+limit-1))
	pipe.Expire(ctx, key, PhotoIndexTTL)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		c.log.Warn("Window failed", "owner_id", ownerID, "error", err)
		return nil, 0, false, fmt.Errorf("read photo index: %w", err)
	}

	total := int(card.Val())
	if total == 0 {
		return nil, 0, false, nil
	}

	ids := make([]uuid.UUID, 0, len(members.Val()))
	for _, m := range members.Val() {
		id, err := uuid.Parse(m)
		if err != nil {
			return nil, 0, false, fmt.Errorf("parse photo id %q: %w", m, err)
		}
		ids = append(ids, id)
	}

	c.log.Debug("Window", "owner_id", ownerID, "offset", offset, "returned", len(ids),
		"total", total, "duration", time.Since(startTime))
	return ids, total, true, nil
}

// Warm replaces an owner's index with the given photos using a pipeline.
func (c *RedisPhotoIndex) Warm(ctx context.Context, ownerID int64, photos []PhotoScore) error {
	key := indexKey(ownerID)
	if len(photos) == 0 {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("drop photo index: %w", err)
		}
		return nil
	}

	startTime := time.Now()

	members := make([]redis.Z, len(photos))
	for i, p := range photos {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: p.PhotoID.String(),
		}
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	pipe.Expire(ctx, key, PhotoIndexTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("Warm failed", "owner_id", ownerID, "photos", len(photos), "error", err)
		return fmt.Errorf("warm photo index: %w", err)
	}

	c.log.Debug("Warm", "owner_id", ownerID, "photos", len(photos), "duration", time.Since(startTime))
	return nil
}
