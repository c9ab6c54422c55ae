package repository

import (
	"context"
	"testing"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPermissionAdmin runs the behaviour every permission store must share
// against an empty repo.
func testPermissionAdmin(t *testing.T, repo PermissionAdmin) {
	ctx := context.Background()

	seed := []types.BucketPermission{
		{Group: "ops", Bucket: "logs", AccessId: "a", AccessKey: "b"},
		{Group: "eng", Bucket: "logs", AccessId: "c", AccessKey: "d", Shareable: true},
		{Group: "eng", Bucket: "data", AccessId: "e", AccessKey: "f"},
		{Group: "hr", Bucket: "payroll", AccessId: "g", AccessKey: "h", Shareable: true},
		{Group: "ops", Bucket: "archive", AccessId: "i", AccessKey: "j", Shareable: true},
	}
	for _, p := range seed {
		require.NoError(t, repo.PutPermission(ctx, p))
	}

	t.Run("allowed buckets ordered by bucket then group", func(t *testing.T) {
		perms, err := repo.AllowedBuckets(ctx, []string{"eng", "ops"})
		require.NoError(t, err)

		var got [][2]string
		for _, p := range perms {
			got = append(got, [2]string{p.Bucket, p.Group})
		}
		assert.Equal(t, [][2]string{{"archive", "ops"}, {"data", "eng"}, {"logs", "eng"}, {"logs", "ops"}}, got)
		assert.Equal(t, "e", perms[1].AccessId)
		assert.Equal(t, "f", perms[1].AccessKey)
	})

	t.Run("no groups", func(t *testing.T) {
		perms, err := repo.AllowedBuckets(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, perms)
	})

	t.Run("shareable buckets are distinct", func(t *testing.T) {
		require.NoError(t, repo.PutPermission(ctx, types.BucketPermission{Group: "ops", Bucket: "logs", AccessId: "a", AccessKey: "b", Shareable: true}))

		buckets, err := repo.ShareableBuckets(ctx, []string{"eng", "ops"})
		require.NoError(t, err)
		assert.Equal(t, []string{"archive", "logs"}, buckets)
	})

	t.Run("put replaces existing grant", func(t *testing.T) {
		require.NoError(t, repo.PutPermission(ctx, types.BucketPermission{Group: "eng", Bucket: "data", AccessId: "new", AccessKey: "key", Shareable: true}))

		perms, err := repo.AllowedBuckets(ctx, []string{"eng"})
		require.NoError(t, err)
		require.Len(t, perms, 2)
		assert.Equal(t, "data", perms[0].Bucket)
		assert.Equal(t, "new", perms[0].AccessId)
		assert.True(t, perms[0].Shareable)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeletePermission(ctx, "eng", "data"))
		require.NoError(t, repo.DeletePermission(ctx, "eng", "missing"))

		perms, err := repo.ListPermissions(ctx)
		require.NoError(t, err)
		require.Len(t, perms, len(seed)-1)
		for _, p := range perms {
			assert.False(t, p.Group == "eng" && p.Bucket == "data")
		}
	})
}
