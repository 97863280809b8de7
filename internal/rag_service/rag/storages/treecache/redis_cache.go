package treecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/outline"
)

// RedisCache is the shared TreeCache for multi-instance deployments.
// Eviction is TTL-based through Redis key expiry.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache creates a RedisCache over an initialized client.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func treeKey(documentID string) string   { return "rag:tree:" + documentID }
func statusKey(documentID string) string { return "rag:tree:status:" + documentID }

// GetTree returns the cached tree or nil on a miss.
func (c *RedisCache) GetTree(ctx context.Context, documentID string) (*outline.Node, error) {
	raw, err := c.rdb.Get(ctx, treeKey(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tree cache read failed: %w", err)
	}
	var tree outline.Node
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("corrupt cached tree for %s: %w", documentID, err)
	}
	return &tree, nil
}

// SetTree caches a tree for ttl.
func (c *RedisCache) SetTree(ctx context.Context, documentID string, tree *outline.Node, ttl time.Duration) error {
	raw, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("cannot serialize tree: %w", err)
	}
	return c.rdb.Set(ctx, treeKey(documentID), raw, ttl).Err()
}

// GetStatus returns the cached readiness state, or "" on a miss.
func (c *RedisCache) GetStatus(ctx context.Context, documentID string) (outline.Status, error) {
	raw, err := c.rdb.Get(ctx, statusKey(documentID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("status cache read failed: %w", err)
	}
	return outline.Status(raw), nil
}

// SetStatus caches a readiness state for ttl.
func (c *RedisCache) SetStatus(ctx context.Context, documentID string, status outline.Status, ttl time.Duration) error {
	return c.rdb.Set(ctx, statusKey(documentID), string(status), ttl).Err()
}

// Evict drops every cached entry for the document.
func (c *RedisCache) Evict(ctx context.Context, documentID string) error {
	return c.rdb.Del(ctx, treeKey(documentID), statusKey(documentID)).Err()
}

var _ interfaces.TreeCache = (*RedisCache)(nil)
