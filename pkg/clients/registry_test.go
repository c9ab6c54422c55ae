package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreateCachesClient(t *testing.T) {
	calls := 0
	registry := NewRegistry(func(ctx context.Context, perm types.BucketPermission) (BucketClient, error) {
		calls++
		return NewMemoryBucketClient(perm.Bucket, 10), nil
	})

	perm := types.BucketPermission{Bucket: "photos", AccessId: "id", AccessKey: "key"}
	first, err := registry.GetOrCreate(context.Background(), perm)
	require.NoError(t, err)

	second, err := registry.GetOrCreate(context.Background(), perm)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	got, ok := registry.Get("photos")
	assert.True(t, ok)
	assert.Same(t, first, got)
}

func TestRegistryFailuresAreNotCached(t *testing.T) {
	fail := true
	registry := NewRegistry(func(ctx context.Context, perm types.BucketPermission) (BucketClient, error) {
		if fail {
			return nil, errors.New("bad endpoint")
		}
		return NewMemoryBucketClient(perm.Bucket, 10), nil
	})

	perm := types.BucketPermission{Bucket: "logs"}
	_, err := registry.GetOrCreate(context.Background(), perm)
	require.Error(t, err)
	assert.True(t, types.IsClientCreationError(err))
	assert.Equal(t, 0, registry.Len())

	var creationErr *types.ClientCreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Equal(t, "logs", creationErr.Bucket)

	fail = false
	c, err := registry.GetOrCreate(context.Background(), perm)
	require.NoError(t, err)
	assert.Equal(t, "logs", c.Bucket())
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryClear(t *testing.T) {
	registry := NewRegistry(NewMemoryClientFactory(
		NewMemoryBucketClient("a", 10),
		NewMemoryBucketClient("b", 10),
	))

	for _, bucket := range []string{"a", "b"} {
		_, err := registry.GetOrCreate(context.Background(), types.BucketPermission{Bucket: bucket})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, registry.Len())

	registry.Clear()
	assert.Equal(t, 0, registry.Len())

	_, ok := registry.Get("a")
	assert.False(t, ok)
}

func TestNewS3BucketClientRejectsMissingCredentials(t *testing.T) {
	_, err := NewS3BucketClient(context.Background(), types.MetadataConfig{}.WithDefaults(), types.BucketPermission{Bucket: "photos"})
	require.Error(t, err)
	assert.True(t, types.IsClientCreationError(err))

	_, err = NewS3BucketClient(context.Background(), types.MetadataConfig{}.WithDefaults(), types.BucketPermission{AccessId: "id", AccessKey: "key"})
	require.Error(t, err)
	assert.True(t, types.IsClientCreationError(err))
}

func TestMemoryBucketClientPages(t *testing.T) {
	c := NewMemoryBucketClient("b", 2, "k1", "k2", "k3")

	page, err := c.ListPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, page.Keys)
	assert.Equal(t, "2", page.NextToken)

	page, err = c.ListPage(context.Background(), page.NextToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"k3"}, page.Keys)
	assert.Empty(t, page.NextToken)
	assert.Equal(t, 2, c.Lists())
}
