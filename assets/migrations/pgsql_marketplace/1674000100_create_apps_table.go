package pgsql_marketplace

import (
	"context"
	"fmt"
)

// CreateAppsTable1674000100 is struct to define a migration with ID 1674000100_create_apps_table
type CreateAppsTable1674000100 struct{}

// ID return unique identifier for each migration. The prefix is unix time when this migration is created.
func (m CreateAppsTable1674000100) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1674000100, "create_apps_table")
}

// SequenceNumber return current time when the migration is created,
// this useful to see the current status of the migration.
func (m CreateAppsTable1674000100) SequenceNumber(ctx context.Context) int {
	return 1674000100
}

// Up return sql migration for sync database
func (m CreateAppsTable1674000100) Up(ctx context.Context) (sql string, err error) {
	sql = `
CREATE TABLE IF NOT EXISTS apps (
	id VARCHAR NOT NULL PRIMARY KEY,
	vendor VARCHAR NOT NULL,
	name VARCHAR NOT NULL DEFAULT '',
	type VARCHAR NOT NULL DEFAULT 'other',
	repo_type VARCHAR NOT NULL DEFAULT '',
	repo_uri VARCHAR NOT NULL DEFAULT '',
	repo_tag VARCHAR NOT NULL DEFAULT '',
	repo_options JSONB NOT NULL DEFAULT '{}',
	short_description VARCHAR NOT NULL DEFAULT '',
	long_description TEXT NOT NULL DEFAULT '',
	license_url VARCHAR NOT NULL DEFAULT '',
	documentation_url VARCHAR NOT NULL DEFAULT '',
	required_memory VARCHAR NOT NULL DEFAULT '',
	process_timeout BIGINT NOT NULL DEFAULT 0,
	encryption BOOL NOT NULL DEFAULT false,
	default_bucket BOOL NOT NULL DEFAULT false,
	forward_token BOOL NOT NULL DEFAULT false,
	fees BOOL NOT NULL DEFAULT false,
	is_visible BOOL NOT NULL DEFAULT true,
	is_public BOOL NOT NULL DEFAULT false,
	is_approved BOOL NOT NULL DEFAULT false,
	limits VARCHAR NOT NULL DEFAULT '',
	legacy_uri VARCHAR NOT NULL DEFAULT '',
	icon32 VARCHAR NOT NULL DEFAULT '',
	icon64 VARCHAR NOT NULL DEFAULT '',
	icon_version BIGINT NOT NULL DEFAULT 0,
	version BIGINT NOT NULL DEFAULT 1,
	created_by VARCHAR NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL DEFAULT 0,
	deleted_at BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX idx_apps_vendor ON apps (vendor);
CREATE INDEX idx_apps_catalog ON apps (is_public) WHERE deleted_at = 0;
`

	return
}

// Down return sql migration for rollback database
func (m CreateAppsTable1674000100) Down(ctx context.Context) (sql string, err error) {
	sql = `DROP TABLE IF EXISTS apps;`
	return
}
