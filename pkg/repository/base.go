package repository

import (
	"context"
	"database/sql"

	"github.com/beam-cloud/s3meta/pkg/types"
)

// PermissionRepository resolves bucket permissions for a set of groups.
// Results are not cached here; callers cache per user.
type PermissionRepository interface {
	// AllowedBuckets returns the readable buckets for groups, with credentials,
	// ordered by bucket name. A bucket granted to several groups may appear
	// more than once.
	AllowedBuckets(ctx context.Context, groups []string) ([]types.BucketPermission, error)

	// ShareableBuckets returns the names of buckets flagged shareable for groups.
	ShareableBuckets(ctx context.Context, groups []string) ([]string, error)
}

// PermissionAdmin manages the permission rows behind a PermissionRepository.
type PermissionAdmin interface {
	PermissionRepository
	PutPermission(ctx context.Context, perm types.BucketPermission) error
	DeletePermission(ctx context.Context, group, bucket string) error
	ListPermissions(ctx context.Context) ([]types.BucketPermission, error)
}

// BackendRepository is the Postgres repository for persistent data.
type BackendRepository interface {
	PermissionAdmin

	// Database access
	DB() *sql.DB

	// Utilities
	Ping(ctx context.Context) error
	Close() error
	RunMigrations() error
}
