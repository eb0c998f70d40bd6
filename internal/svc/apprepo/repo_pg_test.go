package apprepo

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return sqlx.NewDb(db, "sqlmock"), mock
}

func appColumns() []string {
	return []string{
		"id", "vendor", "name", "type",
		"repo_type", "repo_uri", "repo_tag", "repo_options",
		"short_description", "long_description", "license_url", "documentation_url",
		"required_memory", "process_timeout",
		"encryption", "default_bucket", "forward_token", "fees", "is_visible", "is_public", "is_approved",
		"limits", "legacy_uri", "icon32", "icon64", "icon_version", "version",
		"created_by", "created_at", "updated_at", "deleted_at",
	}
}

func appRow(id, vendor string, version int64, updatedAt int64) []driverValueArgs {
	return []driverValueArgs{
		id, vendor, "My App", "extractor",
		"dockerhub", "repo/image", "latest", []byte("{}"),
		"short", "long", "", "",
		"", int64(0),
		false, false, false, false, true, true, false,
		"", "", "", "", int64(0), version,
		"owner@example.com", int64(1), updatedAt, int64(0),
	}
}

type driverValueArgs = driver.Value

func TestRepoPostgresUpdate(t *testing.T) {
	t.Run("bumps version inside the update statement", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		assert.NoError(t, err)

		mock.ExpectQuery(`UPDATE apps SET is_public = $1, name = $2, version = version + 1, updated_at = $3 WHERE id = $4 AND deleted_at = 0 RETURNING *;`).
			WithArgs(true, "My App", int64(99), "_v1.my-app").
			WillReturnRows(sqlmock.NewRows(appColumns()).AddRow(appRow("_v1.my-app", "_v1", 2, 99)...))

		out, err := repo.Update(context.Background(), InputUpdate{
			ID: "_v1.my-app",
			Fields: map[string]interface{}{
				"name":      "My App",
				"is_public": true,
			},
			UpdatedAt: 99,
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), out.App.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects column outside the updatable set", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		assert.NoError(t, err)

		_, err = repo.Update(context.Background(), InputUpdate{
			ID: "_v1.my-app",
			Fields: map[string]interface{}{
				"version": int64(10),
			},
			UpdatedAt: 99,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		assert.NoError(t, err)

		mock.ExpectQuery(`UPDATE apps SET name = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND deleted_at = 0 RETURNING *;`).
			WithArgs("My App", int64(99), "_v1.gone").
			WillReturnRows(sqlmock.NewRows(appColumns()))

		_, err = repo.Update(context.Background(), InputUpdate{
			ID: "_v1.gone",
			Fields: map[string]interface{}{
				"name": "My App",
			},
			UpdatedAt: 99,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepoPostgresAddIcon(t *testing.T) {
	db, mock := newMockDB(t)
	repo, err := Postgres(RepoPostgresConfig{Connection: db})
	assert.NoError(t, err)

	mock.ExpectQuery(sqlAddAppIcon).
		WithArgs("_v1.my-app").
		WillReturnRows(sqlmock.NewRows([]string{"icon_version", "icon32", "icon64"}).
			AddRow(int64(4), "icons/_v1.my-app/32/4.png", "icons/_v1.my-app/64/4.png"))

	out, err := repo.AddIcon(context.Background(), InputAddIcon{ID: "_v1.my-app"})
	assert.NoError(t, err)
	assert.Equal(t, int64(4), out.IconVersion)
	assert.Equal(t, "icons/_v1.my-app/64/4.png", out.Icon64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoPostgresGetVendorOfApp(t *testing.T) {
	t.Run("returns owning vendor", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		assert.NoError(t, err)

		mock.ExpectQuery(sqlGetVendorOfApp).
			WithArgs("_v1.my-app").
			WillReturnRows(sqlmock.NewRows([]string{"vendor"}).AddRow("_v1"))

		out, err := repo.GetVendorOfApp(context.Background(), InputGetVendorOfApp{ID: "_v1.my-app"})
		assert.NoError(t, err)
		assert.Equal(t, "_v1", out.Vendor)
	})

	t.Run("unknown app maps to not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		assert.NoError(t, err)

		mock.ExpectQuery(sqlGetVendorOfApp).
			WithArgs("_v1.gone").
			WillReturnRows(sqlmock.NewRows([]string{"vendor"}))

		_, err = repo.GetVendorOfApp(context.Background(), InputGetVendorOfApp{ID: "_v1.gone"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepoPostgresSoftDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo, err := Postgres(RepoPostgresConfig{Connection: db})
	assert.NoError(t, err)

	mock.ExpectQuery(sqlSoftDeleteApp).
		WithArgs(int64(77), "_v1.my-app").
		WillReturnRows(sqlmock.NewRows(appColumns()).AddRow(appRow("_v1.my-app", "_v1", 3, 77)...))

	out, err := repo.SoftDelete(context.Background(), InputSoftDelete{ID: "_v1.my-app", DeletedAt: 77})
	assert.NoError(t, err)
	assert.Equal(t, "_v1.my-app", out.App.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
