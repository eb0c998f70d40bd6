package vendorrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/komponen/marketplace/pkg/validator"
)

const (
	sqlCreateVendor = `
		INSERT INTO vendors (id, name, address, email, is_public, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)
		RETURNING *;
`

	sqlGetVendor = `SELECT * FROM vendors WHERE id = $1 LIMIT 1;`

	sqlListVendorsCount   = `SELECT COUNT(*) as total FROM vendors;`
	sqlListVendors        = `SELECT * FROM vendors ORDER BY id ASC LIMIT $1;`
	sqlListVendorsAfterID = `SELECT * FROM vendors WHERE id > $1 ORDER BY id ASC LIMIT $2;`

	sqlApproveVendor = `UPDATE vendors SET is_approved = TRUE, updated_at = $1 WHERE id = $2 RETURNING *;`
)

const pqUniqueViolation = "23505"

type RepoPostgresConfig struct {
	Connection sqlx.QueryerContext `validate:"required"`
}

type RepoPostgres struct {
	Config RepoPostgresConfig
}

var _ Repo = (*RepoPostgres)(nil)

// Postgres return repo interface which implements using PgSQL
func Postgres(conf RepoPostgresConfig) (service *RepoPostgres, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	service = &RepoPostgres{
		Config: conf,
	}
	return
}

func (p *RepoPostgres) Create(ctx context.Context, in InputCreate) (out OutCreate, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	vendor := in.Vendor
	vendor.ID = strings.TrimSpace(vendor.ID)

	insertedVendor := Vendor{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &insertedVendor, sqlCreateVendor,
		vendor.ID, vendor.Name, vendor.Address, vendor.Email, vendor.IsPublic,
		vendor.CreatedAt, vendor.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		err = fmt.Errorf("%w: id %s", ErrConflict, vendor.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutCreate{
		Vendor: insertedVendor,
	}
	return
}

func (p *RepoPostgres) Get(ctx context.Context, in InputGet) (out OutGet, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	vendorData := Vendor{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &vendorData, sqlGetVendor, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %s", ErrNotFound, in.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutGet{
		Vendor: vendorData,
	}
	return
}

// List query is exclusive, the AfterID cursor itself will not be in
// the result.
func (p *RepoPostgres) List(ctx context.Context, in InputList) (out OutList, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	count := struct {
		Total int64 `db:"total"`
	}{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &count, sqlListVendorsCount)
	if err != nil {
		err = fmt.Errorf("cannot count list of vendors: %w", err)
		return
	}

	if count.Total <= 0 {
		return
	}

	vendorData := make([]Vendor, 0)
	if in.AfterID == "" {
		err = sqlx.SelectContext(ctx, p.Config.Connection, &vendorData, sqlListVendors, in.Limit)
	} else {
		err = sqlx.SelectContext(ctx, p.Config.Connection, &vendorData, sqlListVendorsAfterID, in.AfterID, in.Limit)
	}

	if err != nil {
		err = fmt.Errorf("cannot get list of vendors: %w", err)
		return
	}

	out = OutList{
		Total:   count.Total,
		Vendors: vendorData,
	}
	return
}

func (p *RepoPostgres) Approve(ctx context.Context, in InputApprove) (out OutApprove, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	vendorData := Vendor{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &vendorData, sqlApproveVendor, in.UpdatedAt, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %s", ErrNotFound, in.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutApprove{
		Vendor: vendorData,
	}
	return
}
