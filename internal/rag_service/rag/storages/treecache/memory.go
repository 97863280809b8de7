// Package treecache fronts the structural-indexing collaborator so
// repeated readiness polls stay cheap. Entries expire on an explicit TTL
// in both implementations; the cache never grows unboundedly.
package treecache

import (
	"context"
	"sync"
	"time"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/outline"
)

type treeEntry struct {
	tree      *outline.Node
	expiresAt time.Time
}

type statusEntry struct {
	status    outline.Status
	expiresAt time.Time
}

// MemoryCache is the in-process TreeCache used in tests and single-node
// deployments.
type MemoryCache struct {
	mu       sync.RWMutex
	trees    map[string]treeEntry
	statuses map[string]statusEntry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		trees:    make(map[string]treeEntry),
		statuses: make(map[string]statusEntry),
	}
}

// GetTree returns the cached tree or nil after expiry.
func (c *MemoryCache) GetTree(_ context.Context, documentID string) (*outline.Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.trees[documentID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.tree, nil
}

// SetTree caches a tree for ttl.
func (c *MemoryCache) SetTree(_ context.Context, documentID string, tree *outline.Node, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[documentID] = treeEntry{tree: tree, expiresAt: time.Now().Add(ttl)}
	return nil
}

// GetStatus returns the cached readiness state, or "" when unknown.
func (c *MemoryCache) GetStatus(_ context.Context, documentID string) (outline.Status, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.statuses[documentID]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.status, nil
}

// SetStatus caches a readiness state for ttl.
func (c *MemoryCache) SetStatus(_ context.Context, documentID string, status outline.Status, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[documentID] = statusEntry{status: status, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Evict drops every cached entry for the document.
func (c *MemoryCache) Evict(_ context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.trees, documentID)
	delete(c.statuses, documentID)
	return nil
}

var _ interfaces.TreeCache = (*MemoryCache)(nil)
