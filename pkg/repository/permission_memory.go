package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/beam-cloud/s3meta/pkg/types"
)

type permissionKey struct {
	group  string
	bucket string
}

// MemoryPermissionRepository serves permissions from memory. It backs local
// mode, where permissions come from the config file.
type MemoryPermissionRepository struct {
	mu    sync.RWMutex
	perms map[permissionKey]types.BucketPermission
}

func NewMemoryPermissionRepository(perms []types.BucketPermission) *MemoryPermissionRepository {
	r := &MemoryPermissionRepository{}
	r.Replace(perms)
	return r
}

// Replace swaps the whole permission set, e.g. after a config reload.
func (r *MemoryPermissionRepository) Replace(perms []types.BucketPermission) {
	next := make(map[permissionKey]types.BucketPermission, len(perms))
	for _, p := range perms {
		next[permissionKey{p.Group, p.Bucket}] = p
	}

	r.mu.Lock()
	r.perms = next
	r.mu.Unlock()
}

func (r *MemoryPermissionRepository) AllowedBuckets(ctx context.Context, groups []string) ([]types.BucketPermission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	member := groupSet(groups)
	var out []types.BucketPermission
	for k, p := range r.perms {
		if _, ok := member[k.group]; ok {
			out = append(out, p)
		}
	}
	sortPermissions(out)
	return out, nil
}

func (r *MemoryPermissionRepository) ShareableBuckets(ctx context.Context, groups []string) ([]string, error) {
	perms, err := r.AllowedBuckets(ctx, groups)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, p := range perms {
		// perms are sorted by bucket, so repeats are adjacent
		if p.Shareable && (len(out) == 0 || out[len(out)-1] != p.Bucket) {
			out = append(out, p.Bucket)
		}
	}
	return out, nil
}

func (r *MemoryPermissionRepository) PutPermission(ctx context.Context, perm types.BucketPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perms[permissionKey{perm.Group, perm.Bucket}] = perm
	return nil
}

func (r *MemoryPermissionRepository) DeletePermission(ctx context.Context, group, bucket string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.perms, permissionKey{group, bucket})
	return nil
}

func (r *MemoryPermissionRepository) ListPermissions(ctx context.Context) ([]types.BucketPermission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.BucketPermission, 0, len(r.perms))
	for _, p := range r.perms {
		out = append(out, p)
	}
	sortPermissions(out)
	return out, nil
}

func sortPermissions(perms []types.BucketPermission) {
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Bucket != perms[j].Bucket {
			return perms[i].Bucket < perms[j].Bucket
		}
		return perms[i].Group < perms[j].Group
	})
}

func groupSet(groups []string) map[string]struct{} {
	set := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	return set
}
