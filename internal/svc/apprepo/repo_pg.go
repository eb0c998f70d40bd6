package apprepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/trace"

	"github.com/komponen/marketplace/pkg/tracer"
	"github.com/komponen/marketplace/pkg/validator"
)

const (
	sqlCreateApp = `
		INSERT INTO apps (
			id, vendor, name, type,
			repo_type, repo_uri, repo_tag, repo_options,
			short_description, long_description, license_url, documentation_url,
			required_memory, process_timeout,
			encryption, default_bucket, forward_token, fees, is_visible, is_public, is_approved,
			limits, legacy_uri, icon32, icon64, icon_version, version,
			created_by, created_at, updated_at, deleted_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14,
			$15, $16, $17, $18, $19, $20, FALSE,
			$21, '', '', '', 0, 1,
			$22, $23, $24, 0
		) RETURNING *;
`

	sqlGetAppByID = `SELECT * FROM apps WHERE id = $1 LIMIT 1;`

	sqlSoftDeleteApp = `UPDATE apps SET deleted_at = $1 WHERE id = $2 AND deleted_at = 0 RETURNING *;`

	sqlListPublishedApps = `SELECT * FROM apps WHERE deleted_at = 0 AND is_public = TRUE ORDER BY id ASC;`

	sqlListVendorAppsCount   = `SELECT COUNT(*) as total FROM apps WHERE vendor = $1 AND deleted_at = 0;`
	sqlListVendorApps        = `SELECT * FROM apps WHERE vendor = $1 AND deleted_at = 0 ORDER BY id ASC LIMIT $2;`
	sqlListVendorAppsAfterID = `SELECT * FROM apps WHERE vendor = $1 AND id > $2 AND deleted_at = 0 ORDER BY id ASC LIMIT $3;`

	sqlGetVendorOfApp = `SELECT vendor FROM apps WHERE id = $1 LIMIT 1;`

	// One statement so the counter bump and the derived thumbnail
	// pointers can never drift apart.
	sqlAddAppIcon = `
		UPDATE apps SET
		    icon_version = icon_version + 1,
		    icon32 = 'icons/' || id || '/32/' || (icon_version + 1) || '.png',
		    icon64 = 'icons/' || id || '/64/' || (icon_version + 1) || '.png'
		WHERE id = $1 AND deleted_at = 0
		RETURNING icon_version, icon32, icon64;
`
)

// updatableColumns is the set of columns the patch path may touch.
// System managed columns (version, icon pointers, audit fields) and
// contract columns (forward_token, required_memory, process_timeout)
// are bumped or kept by dedicated operations only.
var updatableColumns = map[string]struct{}{
	"name":              {},
	"type":              {},
	"repo_type":         {},
	"repo_uri":          {},
	"repo_tag":          {},
	"repo_options":      {},
	"short_description": {},
	"long_description":  {},
	"license_url":       {},
	"documentation_url": {},
	"encryption":        {},
	"default_bucket":    {},
	"fees":              {},
	"limits":            {},
	"is_visible":        {},
	"is_public":         {},
}

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

	app := in.App
	app.ID = strings.TrimSpace(app.ID)

	insertedApp := App{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &insertedApp, sqlCreateApp,
		app.ID, app.Vendor, app.Name, app.Type,
		app.RepoType, app.RepoURI, app.RepoTag, app.RepoOptions,
		app.ShortDescription, app.LongDescription, app.LicenseURL, app.DocumentationURL,
		app.RequiredMemory, app.ProcessTimeout,
		app.Encryption, app.DefaultBucket, app.ForwardToken, app.Fees, app.IsVisible, app.IsPublic,
		app.Limits,
		app.CreatedBy, app.CreatedAt, app.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		err = fmt.Errorf("%w: id %s", ErrConflict, app.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutCreate{
		App: insertedApp,
	}
	return
}

func (p *RepoPostgres) GetByID(ctx context.Context, in InputGetByID) (out OutGetByID, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.GetByID")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	appData := App{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &appData, sqlGetAppByID, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %s", ErrNotFound, in.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutGetByID{
		App: appData,
	}
	return
}

// Update merges the given fields into the stored row. The version bump
// happens inside the same UPDATE statement, so concurrent updates
// serialize on the row lock and versions never collide.
func (p *RepoPostgres) Update(ctx context.Context, in InputUpdate) (out OutUpdate, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	columns := make([]string, 0, len(in.Fields))
	for column := range in.Fields {
		if _, ok := updatableColumns[column]; !ok {
			err = fmt.Errorf("%w: column %s is not updatable", ErrValidation, column)
			return
		}

		columns = append(columns, column)
	}

	sort.Strings(columns)

	setClauses := make([]string, 0, len(columns)+2)
	args := make([]interface{}, 0, len(columns)+2)
	for i, column := range columns {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, in.Fields[column])
	}

	setClauses = append(setClauses, "version = version + 1")
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(columns)+1))
	args = append(args, in.UpdatedAt)
	args = append(args, in.ID)

	query := fmt.Sprintf(
		`UPDATE apps SET %s WHERE id = $%d AND deleted_at = 0 RETURNING *;`,
		strings.Join(setClauses, ", "), len(columns)+2,
	)

	updatedApp := App{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &updatedApp, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %s", ErrNotFound, in.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutUpdate{
		App: updatedApp,
	}
	return
}

func (p *RepoPostgres) SoftDelete(ctx context.Context, in InputSoftDelete) (out OutSoftDelete, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	appData := App{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &appData, sqlSoftDeleteApp, in.DeletedAt, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %s", ErrNotFound, in.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutSoftDelete{
		App: appData,
	}
	return
}

func (p *RepoPostgres) ListPublished(ctx context.Context, in InputListPublished) (out OutListPublished, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.ListPublished")
	defer span.End()

	appData := make([]App, 0)
	err = sqlx.SelectContext(ctx, p.Config.Connection, &appData, sqlListPublishedApps)
	if err != nil {
		err = fmt.Errorf("cannot get list of published apps: %w", err)
		return
	}

	out = OutListPublished{
		Apps: appData,
	}
	return
}

// ListForVendor query is exclusive, the AfterID cursor itself will not
// be in the result.
func (p *RepoPostgres) ListForVendor(ctx context.Context, in InputListForVendor) (out OutListForVendor, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	count := struct {
		Total int64 `db:"total"`
	}{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &count, sqlListVendorAppsCount, in.Vendor)
	if err != nil {
		err = fmt.Errorf("cannot count apps of vendor %s: %w", in.Vendor, err)
		return
	}

	if count.Total <= 0 {
		return
	}

	appData := make([]App, 0)
	if in.AfterID == "" {
		err = sqlx.SelectContext(ctx, p.Config.Connection, &appData, sqlListVendorApps, in.Vendor, in.Limit)
	} else {
		err = sqlx.SelectContext(ctx, p.Config.Connection, &appData, sqlListVendorAppsAfterID, in.Vendor, in.AfterID, in.Limit)
	}

	if err != nil {
		err = fmt.Errorf("cannot get apps of vendor %s: %w", in.Vendor, err)
		return
	}

	out = OutListForVendor{
		Total: count.Total,
		Apps:  appData,
	}
	return
}

func (p *RepoPostgres) GetVendorOfApp(ctx context.Context, in InputGetVendorOfApp) (out OutGetVendorOfApp, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	owner := struct {
		Vendor string `db:"vendor"`
	}{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &owner, sqlGetVendorOfApp, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %s", ErrNotFound, in.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutGetVendorOfApp{
		Vendor: owner.Vendor,
	}
	return
}

func (p *RepoPostgres) AddIcon(ctx context.Context, in InputAddIcon) (out OutAddIcon, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	counter := struct {
		IconVersion int64  `db:"icon_version"`
		Icon32      string `db:"icon32"`
		Icon64      string `db:"icon64"`
	}{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &counter, sqlAddAppIcon, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %s", ErrNotFound, in.ID)
		return
	}

	if err != nil {
		return
	}

	out = OutAddIcon{
		IconVersion: counter.IconVersion,
		Icon32:      counter.Icon32,
		Icon64:      counter.Icon64,
	}
	return
}
