package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/lib/pq"
)

const permissionColumns = `group_name, bucket, access_id, access_key, shareable`

func (b *PostgresBackend) AllowedBuckets(ctx context.Context, groups []string) ([]types.BucketPermission, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + permissionColumns + `
		FROM s3_query_permission
		WHERE group_name = ANY($1)
		ORDER BY bucket ASC, group_name ASC
	`

	rows, err := b.db.QueryContext(ctx, query, pq.Array(groups))
	if err != nil {
		return nil, fmt.Errorf("query allowed buckets: %w", err)
	}
	return scanPermissions(rows)
}

func (b *PostgresBackend) ShareableBuckets(ctx context.Context, groups []string) ([]string, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT bucket
		FROM s3_query_permission
		WHERE group_name = ANY($1) AND shareable
		ORDER BY bucket ASC
	`

	rows, err := b.db.QueryContext(ctx, query, pq.Array(groups))
	if err != nil {
		return nil, fmt.Errorf("query shareable buckets: %w", err)
	}
	defer rows.Close()

	var buckets []string
	for rows.Next() {
		var bucket string
		if err := rows.Scan(&bucket); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

func (b *PostgresBackend) PutPermission(ctx context.Context, perm types.BucketPermission) error {
	query := `
		INSERT INTO s3_query_permission (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_name, bucket) DO UPDATE
		SET access_id = EXCLUDED.access_id,
			access_key = EXCLUDED.access_key,
			shareable = EXCLUDED.shareable,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := b.db.ExecContext(ctx, query, perm.Group, perm.Bucket, perm.AccessId, perm.AccessKey, perm.Shareable)
	if err != nil {
		return fmt.Errorf("put permission: %w", err)
	}
	return nil
}

func (b *PostgresBackend) DeletePermission(ctx context.Context, group, bucket string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM s3_query_permission WHERE group_name = $1 AND bucket = $2`, group, bucket)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}

func (b *PostgresBackend) ListPermissions(ctx context.Context) ([]types.BucketPermission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM s3_query_permission
		ORDER BY bucket ASC, group_name ASC
	`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return scanPermissions(rows)
}

func scanPermissions(rows *sql.Rows) ([]types.BucketPermission, error) {
	defer rows.Close()

	var perms []types.BucketPermission
	for rows.Next() {
		var p types.BucketPermission
		if err := rows.Scan(&p.Group, &p.Bucket, &p.AccessId, &p.AccessKey, &p.Shareable); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
