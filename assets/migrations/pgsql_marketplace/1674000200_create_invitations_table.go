package pgsql_marketplace

import (
	"context"
	"fmt"
)

// CreateInvitationsTable1674000200 is struct to define a migration with ID 1674000200_create_invitations_table
type CreateInvitationsTable1674000200 struct{}

// ID return unique identifier for each migration. The prefix is unix time when this migration is created.
func (m CreateInvitationsTable1674000200) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1674000200, "create_invitations_table")
}

// SequenceNumber return current time when the migration is created,
// this useful to see the current status of the migration.
func (m CreateInvitationsTable1674000200) SequenceNumber(ctx context.Context) int {
	return 1674000200
}

// Up return sql migration for sync database
func (m CreateInvitationsTable1674000200) Up(ctx context.Context) (sql string, err error) {
	sql = `
CREATE TABLE IF NOT EXISTS invitations (
	vendor VARCHAR NOT NULL,
	email VARCHAR NOT NULL,
	code VARCHAR NOT NULL,
	created_at BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (vendor, email)
);
`

	return
}

// Down return sql migration for rollback database
func (m CreateInvitationsTable1674000200) Down(ctx context.Context) (sql string, err error) {
	sql = `DROP TABLE IF EXISTS invitations;`
	return
}
