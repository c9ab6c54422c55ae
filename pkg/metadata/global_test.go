package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beam-cloud/s3meta/pkg/clients"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedClient blocks every listing until release is closed.
type gatedClient struct {
	bucket  string
	release chan struct{}
	started atomic.Int32
}

func newGatedClient(bucket string) *gatedClient {
	return &gatedClient{bucket: bucket, release: make(chan struct{})}
}

func (c *gatedClient) Bucket() string { return c.bucket }

func (c *gatedClient) ListPage(ctx context.Context, token string) (*clients.ObjectPage, error) {
	c.started.Add(1)
	select {
	case <-c.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &clients.ObjectPage{Keys: []string{"a/b"}}, nil
}

func perm(bucket string) types.BucketPermission {
	return types.BucketPermission{Group: "g", Bucket: bucket, AccessId: "id", AccessKey: "key"}
}

func TestGetTreeCachesWithinEpoch(t *testing.T) {
	client := clients.NewMemoryBucketClient("photos", 10, "a.jpg", "b/c.jpg")
	cache := NewGlobalCache(clients.NewRegistry(clients.NewMemoryClientFactory(client)), 0)

	first, err := cache.GetTree(context.Background(), perm("photos"))
	require.NoError(t, err)
	second, err := cache.GetTree(context.Background(), perm("photos"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, client.Lists())

	cached, ok := cache.Lookup("photos")
	assert.True(t, ok)
	assert.Same(t, first, cached)
	assert.Equal(t, []string{"photos"}, cache.Buckets())
}

func TestClearStartsNewEpoch(t *testing.T) {
	client := clients.NewMemoryBucketClient("photos", 10, "a.jpg")
	registry := clients.NewRegistry(clients.NewMemoryClientFactory(client))
	cache := NewGlobalCache(registry, 0)

	before, err := cache.GetTree(context.Background(), perm("photos"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cache.Epoch())
	assert.Equal(t, 1, registry.Len())

	var seen []uint64
	cache.OnClear(func(epoch uint64) { seen = append(seen, epoch) })

	assert.Equal(t, uint64(2), cache.Clear())
	assert.Equal(t, []uint64{2}, seen)
	assert.Equal(t, 0, registry.Len())

	_, ok := cache.Lookup("photos")
	assert.False(t, ok)
	assert.Empty(t, cache.Buckets())

	client.SetKeys("a.jpg", "new.jpg")
	after, err := cache.GetTree(context.Background(), perm("photos"))
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, 2, after.FileCount())
	assert.Equal(t, 2, client.Lists())
}

func TestGetTreeSharesConcurrentBuilds(t *testing.T) {
	client := newGatedClient("shared")
	var factoryCalls atomic.Int32
	registry := clients.NewRegistry(func(ctx context.Context, p types.BucketPermission) (clients.BucketClient, error) {
		factoryCalls.Add(1)
		return client, nil
	})
	cache := NewGlobalCache(registry, 0)

	const callers = 8
	trees := make([]*types.MetadataNode, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tree, err := cache.GetTree(context.Background(), perm("shared"))
			assert.NoError(t, err)
			trees[i] = tree
		}(i)
	}

	require.Eventually(t, func() bool { return client.started.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.Equal(t, int32(1), client.started.Load())
	assert.Equal(t, int32(1), factoryCalls.Load())
	for _, tree := range trees {
		assert.Same(t, trees[0], tree)
	}
}

func TestBuildSpanningClearIsNotServedAfterwards(t *testing.T) {
	client := newGatedClient("slow")
	cache := NewGlobalCache(clients.NewRegistry(func(ctx context.Context, p types.BucketPermission) (clients.BucketClient, error) {
		return client, nil
	}), 0)

	done := make(chan *types.MetadataNode)
	go func() {
		tree, err := cache.GetTree(context.Background(), perm("slow"))
		assert.NoError(t, err)
		done <- tree
	}()

	require.Eventually(t, func() bool { return client.started.Load() == 1 }, time.Second, time.Millisecond)
	cache.Clear()
	close(client.release)

	tree := <-done
	assert.NotNil(t, tree)

	_, ok := cache.Lookup("slow")
	assert.False(t, ok)
}

func TestGetTreeDoesNotCacheFailures(t *testing.T) {
	client := clients.NewMemoryBucketClient("flaky", 10, "k")
	client.FailWith(errors.New("throttled"))
	cache := NewGlobalCache(clients.NewRegistry(clients.NewMemoryClientFactory(client)), 0)

	_, err := cache.GetTree(context.Background(), perm("flaky"))
	require.Error(t, err)
	assert.True(t, types.IsListingError(err))

	_, ok := cache.Lookup("flaky")
	assert.False(t, ok)

	client.FailWith(nil)
	tree, err := cache.GetTree(context.Background(), perm("flaky"))
	require.NoError(t, err)
	assert.Equal(t, 1, tree.FileCount())
}

func TestGetTreeClientCreationFailure(t *testing.T) {
	cache := NewGlobalCache(clients.NewRegistry(clients.NewMemoryClientFactory()), 0)

	_, err := cache.GetTree(context.Background(), perm("missing"))
	assert.True(t, types.IsClientCreationError(err))
}

func TestGetTreeBuildSurvivesCallerCancellation(t *testing.T) {
	client := newGatedClient("detached")
	cache := NewGlobalCache(clients.NewRegistry(func(ctx context.Context, p types.BucketPermission) (clients.BucketClient, error) {
		return client, nil
	}), 0)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := cache.GetTree(ctx, perm("detached"))
		errs <- err
	}()

	require.Eventually(t, func() bool { return client.started.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	close(client.release)

	assert.NoError(t, <-errs)
	_, ok := cache.Lookup("detached")
	assert.True(t, ok)
}
