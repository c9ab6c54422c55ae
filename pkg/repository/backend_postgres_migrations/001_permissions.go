package backend_postgres_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upPermissions, downPermissions)
}

func upPermissions(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS s3_query_permission (
			id SERIAL PRIMARY KEY,
			group_name VARCHAR(255) NOT NULL,
			bucket VARCHAR(255) NOT NULL,
			access_id TEXT NOT NULL,
			access_key TEXT NOT NULL,
			shareable BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_permission_group_bucket ON s3_query_permission(group_name, bucket)`,
		`CREATE INDEX IF NOT EXISTS idx_permission_bucket ON s3_query_permission(bucket)`,
		`CREATE INDEX IF NOT EXISTS idx_permission_shareable ON s3_query_permission(group_name) WHERE shareable = true`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func downPermissions(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS s3_query_permission`)
	return err
}
