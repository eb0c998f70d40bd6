package pgsql_marketplace

import (
	"context"
	"fmt"
)

// CreateVendorsTable1674000000 is struct to define a migration with ID 1674000000_create_vendors_table
type CreateVendorsTable1674000000 struct{}

// ID return unique identifier for each migration. The prefix is unix time when this migration is created.
func (m CreateVendorsTable1674000000) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1674000000, "create_vendors_table")
}

// SequenceNumber return current time when the migration is created,
// this useful to see the current status of the migration.
func (m CreateVendorsTable1674000000) SequenceNumber(ctx context.Context) int {
	return 1674000000
}

// Up return sql migration for sync database
func (m CreateVendorsTable1674000000) Up(ctx context.Context) (sql string, err error) {
	sql = `
CREATE TABLE IF NOT EXISTS vendors (
	id VARCHAR NOT NULL PRIMARY KEY,
	name VARCHAR NOT NULL DEFAULT '',
	address VARCHAR NOT NULL DEFAULT '',
	email VARCHAR NOT NULL DEFAULT '',
	is_public BOOL NOT NULL DEFAULT false,
	is_approved BOOL NOT NULL DEFAULT false,
	created_at BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL DEFAULT 0
);
`

	return
}

// Down return sql migration for rollback database
func (m CreateVendorsTable1674000000) Down(ctx context.Context) (sql string, err error) {
	sql = `DROP TABLE IF EXISTS vendors;`
	return
}
