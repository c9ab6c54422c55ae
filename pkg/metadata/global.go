package metadata

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beam-cloud/s3meta/pkg/clients"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// treeSnapshot holds the bucket trees of one cache epoch. A clear replaces the
// whole snapshot, so a reader holding an older snapshot keeps a frozen view.
type treeSnapshot struct {
	epoch uint64
	trees sync.Map // bucket -> *types.MetadataNode
}

func (s *treeSnapshot) get(bucket string) (*types.MetadataNode, bool) {
	v, ok := s.trees.Load(bucket)
	if !ok {
		return nil, false
	}
	return v.(*types.MetadataNode), true
}

// GlobalCache maps bucket names to their trees for the current epoch.
// Lookups never take a lock; population is per bucket.
type GlobalCache struct {
	current     atomic.Pointer[treeSnapshot]
	registry    *clients.Registry
	group       singleflight.Group
	pageTimeout time.Duration

	mu        sync.Mutex
	listeners []func(epoch uint64)
}

func NewGlobalCache(registry *clients.Registry, pageTimeout time.Duration) *GlobalCache {
	c := &GlobalCache{
		registry:    registry,
		pageTimeout: pageTimeout,
	}
	c.current.Store(&treeSnapshot{epoch: 1})
	return c
}

// Epoch returns the current cache epoch. It increases with every Clear.
func (c *GlobalCache) Epoch() uint64 {
	return c.current.Load().epoch
}

// Lookup returns the cached tree for bucket without building it.
func (c *GlobalCache) Lookup(bucket string) (*types.MetadataNode, bool) {
	return c.current.Load().get(bucket)
}

// GetTree returns the tree for perm.Bucket, listing the bucket on a miss.
// Concurrent misses for the same bucket in the same epoch share one build.
// A build is stored into the epoch it started in; if a Clear happens while
// it runs, the result is returned to its callers but not served afterwards.
func (c *GlobalCache) GetTree(ctx context.Context, perm types.BucketPermission) (*types.MetadataNode, error) {
	snap := c.current.Load()
	if tree, ok := snap.get(perm.Bucket); ok {
		return tree, nil
	}

	key := fmt.Sprintf("%d:%s", snap.epoch, perm.Bucket)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if tree, ok := snap.get(perm.Bucket); ok {
			return tree, nil
		}

		// Builds are shared between requests and are not cancelled when the
		// request that started them goes away.
		buildCtx := context.WithoutCancel(ctx)

		client, err := c.registry.GetOrCreate(buildCtx, perm)
		if err != nil {
			return nil, err
		}

		tree, err := BuildBucketTree(buildCtx, client, c.pageTimeout)
		if err != nil {
			return nil, err
		}

		snap.trees.Store(perm.Bucket, tree)
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.MetadataNode), nil
}

// Clear starts a new epoch: the tree map is replaced wholesale, every bucket
// client is released and clear listeners run before Clear returns.
func (c *GlobalCache) Clear() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current.Load()
	next := &treeSnapshot{epoch: prev.epoch + 1}
	c.current.Store(next)

	if c.registry != nil {
		c.registry.Clear()
	}
	for _, fn := range c.listeners {
		fn(next.epoch)
	}

	log.Info().Uint64("epoch", next.epoch).Msg("metadata cache cleared")
	return next.epoch
}

// OnClear registers fn to run synchronously at the end of every Clear.
func (c *GlobalCache) OnClear(fn func(epoch uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Buckets returns the buckets cached in the current epoch.
func (c *GlobalCache) Buckets() []string {
	var buckets []string
	c.current.Load().trees.Range(func(k, _ any) bool {
		buckets = append(buckets, k.(string))
		return true
	})
	return buckets
}
