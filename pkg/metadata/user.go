package metadata

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beam-cloud/s3meta/pkg/repository"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// UserView is the part of the global cache one user may see. Trees are shared
// with the global cache and must be treated as read-only.
type UserView struct {
	UserId         string
	Epoch          uint64
	AllowedBuckets map[string]struct{}
	Buckets        []string // permissioned bucket names, sorted
	Trees          map[string]*types.MetadataNode
	Errors         map[string]error
	BuiltAt        time.Time
}

// SortedTrees returns the visible trees ordered by bucket name.
func (v *UserView) SortedTrees() []*types.MetadataNode {
	trees := make([]*types.MetadataNode, 0, len(v.Trees))
	for _, bucket := range v.Buckets {
		if tree, ok := v.Trees[bucket]; ok {
			trees = append(trees, tree)
		}
	}
	return trees
}

// AllowedList returns the allowed bucket set as a sorted slice.
func (v *UserView) AllowedList() []string {
	return sortedSet(v.AllowedBuckets)
}

type viewSnapshot struct {
	epoch uint64
	views *expirable.LRU[string, *UserView]
}

// UserCache holds per-user views for the current epoch. ClearAll swaps in an
// empty store, so no view built before the clear is served after it.
type UserCache struct {
	current     atomic.Pointer[viewSnapshot]
	resolver    repository.PermissionRepository
	global      *GlobalCache
	size        int
	concurrency int
}

// UserCacheConfig bounds the per-epoch view store and the number of buckets
// resolved in parallel for one view.
type UserCacheConfig struct {
	Size        int
	Concurrency int
}

// NewUserCache creates the cache and subscribes it to global clears.
func NewUserCache(resolver repository.PermissionRepository, global *GlobalCache, cfg UserCacheConfig) *UserCache {
	if cfg.Size <= 0 {
		cfg.Size = types.DefaultUserCacheSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = types.DefaultBuildConcurrency
	}

	c := &UserCache{
		resolver:    resolver,
		global:      global,
		size:        cfg.Size,
		concurrency: cfg.Concurrency,
	}
	c.current.Store(c.newSnapshot(global.Epoch()))
	global.OnClear(c.ClearAll)
	return c
}

// Views expire only through epoch changes. A TTL would start a janitor
// goroutine per snapshot that outlives the swap.
func (c *UserCache) newSnapshot(epoch uint64) *viewSnapshot {
	return &viewSnapshot{
		epoch: epoch,
		views: expirable.NewLRU[string, *UserView](c.size, nil, 0),
	}
}

// Get returns the cached view for userId in the current epoch.
func (c *UserCache) Get(userId string) (*UserView, bool) {
	snap := c.current.Load()
	view, ok := snap.views.Get(userId)
	if !ok || view.Epoch != c.global.Epoch() {
		return nil, false
	}
	return view, true
}

// MetadataFor returns the cached view for user, building it on a miss.
func (c *UserCache) MetadataFor(ctx context.Context, user types.UserIdentity) (*UserView, error) {
	if view, ok := c.Get(user.UserId); ok {
		return view, nil
	}
	log.Info().Str("user_id", user.UserId).Msg("initializing metadata for user")
	return c.build(ctx, user)
}

// Rebuild drops the user's view and builds a fresh one. Bucket trees are still
// served from the global cache.
func (c *UserCache) Rebuild(ctx context.Context, user types.UserIdentity) (*UserView, error) {
	c.Invalidate(user.UserId)
	return c.build(ctx, user)
}

// Invalidate drops the view for a single user.
func (c *UserCache) Invalidate(userId string) {
	c.current.Load().views.Remove(userId)
}

// ClearAll drops every view. It runs as a global clear listener.
func (c *UserCache) ClearAll(epoch uint64) {
	prev := c.current.Swap(c.newSnapshot(epoch))
	log.Debug().Uint64("epoch", epoch).Int("views", prev.views.Len()).Msg("user metadata cleared")
}

// Len returns the number of views in the current epoch.
func (c *UserCache) Len() int {
	return c.current.Load().views.Len()
}

func (c *UserCache) build(ctx context.Context, user types.UserIdentity) (*UserView, error) {
	snap := c.current.Load()

	perms, err := c.resolver.AllowedBuckets(ctx, user.Groups)
	if err != nil {
		return nil, &types.PermissionResolutionError{UserId: user.UserId, Err: err}
	}
	perms = dedupePermissions(perms)

	view := &UserView{
		UserId:         user.UserId,
		Epoch:          snap.epoch,
		AllowedBuckets: make(map[string]struct{}, len(perms)),
		Buckets:        make([]string, 0, len(perms)),
		Trees:          make(map[string]*types.MetadataNode, len(perms)),
		Errors:         make(map[string]error),
	}
	for _, p := range perms {
		view.AllowedBuckets[p.NormalizedBucket()] = struct{}{}
		view.Buckets = append(view.Buckets, p.Bucket)
	}

	var mu sync.Mutex
	eg := new(errgroup.Group)
	eg.SetLimit(c.concurrency)
	for _, p := range perms {
		eg.Go(func() error {
			tree, err := c.global.GetTree(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("user_id", user.UserId).Str("bucket", p.Bucket).Msg("bucket omitted from user metadata")
				view.Errors[p.Bucket] = err
				return nil
			}
			view.Trees[p.Bucket] = tree
			return nil
		})
	}
	eg.Wait()

	view.BuiltAt = time.Now()
	snap.views.Add(user.UserId, view)
	return view, nil
}

// dedupePermissions orders perms by bucket name so tree construction order is
// deterministic, then keeps the first permission per normalized bucket. Grants
// for case variants of one bucket yield a single tree, named by the first.
func dedupePermissions(perms []types.BucketPermission) []types.BucketPermission {
	sorted := append([]types.BucketPermission(nil), perms...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Bucket < sorted[j].Bucket })

	seen := make(map[string]struct{}, len(sorted))
	out := make([]types.BucketPermission, 0, len(sorted))
	for _, p := range sorted {
		key := p.NormalizedBucket()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
