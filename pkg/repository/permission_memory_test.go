package repository

import (
	"context"
	"testing"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPermissionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPermissionRepository([]types.BucketPermission{
		{Group: "ops", Bucket: "logs", AccessId: "a", AccessKey: "b"},
		{Group: "eng", Bucket: "logs", AccessId: "c", AccessKey: "d", Shareable: true},
		{Group: "eng", Bucket: "data", AccessId: "e", AccessKey: "f"},
		{Group: "hr", Bucket: "payroll", AccessId: "g", AccessKey: "h", Shareable: true},
	})

	t.Run("allowed buckets by group", func(t *testing.T) {
		perms, err := repo.AllowedBuckets(ctx, []string{"eng", "ops"})
		require.NoError(t, err)

		var got [][2]string
		for _, p := range perms {
			got = append(got, [2]string{p.Bucket, p.Group})
		}
		assert.Equal(t, [][2]string{{"data", "eng"}, {"logs", "eng"}, {"logs", "ops"}}, got)
	})

	t.Run("no groups", func(t *testing.T) {
		perms, err := repo.AllowedBuckets(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, perms)
	})

	t.Run("shareable", func(t *testing.T) {
		buckets, err := repo.ShareableBuckets(ctx, []string{"eng"})
		require.NoError(t, err)
		assert.Equal(t, []string{"logs"}, buckets)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.AllowedBuckets(cctx, []string{"eng"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryPermissionStore(t *testing.T) {
	testPermissionAdmin(t, NewMemoryPermissionRepository(nil))
}

func TestMemoryPermissionRepositoryAdmin(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPermissionRepositoryForTest("eng", "logs")

	require.NoError(t, repo.PutPermission(ctx, types.BucketPermission{Group: "eng", Bucket: "logs", AccessId: "new", AccessKey: "new"}))
	require.NoError(t, repo.PutPermission(ctx, types.BucketPermission{Group: "eng", Bucket: "data", AccessId: "x", AccessKey: "y"}))

	perms, err := repo.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, "data", perms[0].Bucket)
	assert.Equal(t, "new", perms[1].AccessId)

	require.NoError(t, repo.DeletePermission(ctx, "eng", "data"))
	require.NoError(t, repo.DeletePermission(ctx, "eng", "missing"))

	perms, err = repo.AllowedBuckets(ctx, []string{"eng"})
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "logs", perms[0].Bucket)
}
