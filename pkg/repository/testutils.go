package repository

import (
	"github.com/alicebob/miniredis/v2"
	"github.com/beam-cloud/s3meta/pkg/common"
	"github.com/beam-cloud/s3meta/pkg/types"
)

// NewRedisClientForTest creates a Redis client backed by miniredis for testing
func NewRedisClientForTest() (*common.RedisClient, *miniredis.Miniredis, error) {
	s, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}

	rdb, err := common.NewRedisClient(types.RedisConfig{
		Addrs: []string{s.Addr()},
		Mode:  types.RedisModeSingle,
	})
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	return rdb, s, nil
}

// NewMemoryPermissionRepositoryForTest seeds a memory repository with one
// readable permission per bucket for group.
func NewMemoryPermissionRepositoryForTest(group string, buckets ...string) *MemoryPermissionRepository {
	perms := make([]types.BucketPermission, 0, len(buckets))
	for _, b := range buckets {
		perms = append(perms, types.BucketPermission{Group: group, Bucket: b, AccessId: "test", AccessKey: "test"})
	}
	return NewMemoryPermissionRepository(perms)
}
