package inviterepo_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/internal/svc/inviterepo"
)

func newRepo(t *testing.T) (inviterepo.Repo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)

	repo, err := inviterepo.Postgres(inviterepo.RepoPostgresConfig{
		Connection: sqlx.NewDb(db, "postgres"),
	})
	assert.NoError(t, err)

	return repo, mock
}

func invitationColumns() []string {
	return []string{"vendor", "email", "code", "created_at"}
}

const sqlUpsert = `
		INSERT INTO invitations (vendor, email, code, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (vendor, email)
		DO UPDATE SET
		    code = EXCLUDED.code,
		    created_at = EXCLUDED.created_at
		RETURNING *;
`

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("email is stored lowercased", func(t *testing.T) {
		repo, mock := newRepo(t)

		rows := sqlmock.NewRows(invitationColumns()).
			AddRow("_v1", "new.user@example.com", "ABC123", int64(1000))

		mock.ExpectQuery(sqlUpsert).
			WithArgs("_v1", "new.user@example.com", "ABC123", int64(1000)).
			WillReturnRows(rows)

		out, err := repo.Create(ctx, inviterepo.InputCreate{
			Invitation: inviterepo.Invitation{
				Vendor:    "_v1",
				Email:     " New.User@Example.com ",
				Code:      "ABC123",
				CreatedAt: 1000,
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, "new.user@example.com", out.Invitation.Email)
		assert.Equal(t, "ABC123", out.Invitation.Code)
	})

	t.Run("re-invite replaces the code", func(t *testing.T) {
		repo, mock := newRepo(t)

		rows := sqlmock.NewRows(invitationColumns()).
			AddRow("_v1", "new.user@example.com", "XYZ789", int64(2000))

		mock.ExpectQuery(sqlUpsert).
			WithArgs("_v1", "new.user@example.com", "XYZ789", int64(2000)).
			WillReturnRows(rows)

		out, err := repo.Create(ctx, inviterepo.InputCreate{
			Invitation: inviterepo.Invitation{
				Vendor:    "_v1",
				Email:     "new.user@example.com",
				Code:      "XYZ789",
				CreatedAt: 2000,
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, "XYZ789", out.Invitation.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		repo, _ := newRepo(t)

		_, err := repo.Create(ctx, inviterepo.InputCreate{
			Invitation: inviterepo.Invitation{
				Vendor: "_v1",
				Email:  "not-an-email",
			},
		})
		assert.ErrorIs(t, err, inviterepo.ErrValidation)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup uses lowered email", func(t *testing.T) {
		repo, mock := newRepo(t)

		rows := sqlmock.NewRows(invitationColumns()).
			AddRow("_v1", "new.user@example.com", "ABC123", int64(1000))

		mock.ExpectQuery(`SELECT * FROM invitations WHERE vendor = $1 AND LOWER(email) = $2 LIMIT 1;`).
			WithArgs("_v1", "new.user@example.com").
			WillReturnRows(rows)

		out, err := repo.Get(ctx, inviterepo.InputGet{
			Vendor: "_v1",
			Email:  "New.User@Example.com",
		})
		assert.NoError(t, err)
		assert.Equal(t, "ABC123", out.Invitation.Code)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepo(t)

		mock.ExpectQuery(`SELECT * FROM invitations WHERE vendor = $1 AND LOWER(email) = $2 LIMIT 1;`).
			WithArgs("_v1", "nobody@example.com").
			WillReturnRows(sqlmock.NewRows(invitationColumns()))

		_, err := repo.Get(ctx, inviterepo.InputGet{
			Vendor: "_v1",
			Email:  "nobody@example.com",
		})
		assert.ErrorIs(t, err, inviterepo.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted row reports success", func(t *testing.T) {
		repo, mock := newRepo(t)

		rows := sqlmock.NewRows(invitationColumns()).
			AddRow("_v1", "new.user@example.com", "ABC123", int64(1000))

		mock.ExpectQuery(`DELETE FROM invitations WHERE vendor = $1 AND LOWER(email) = $2 RETURNING *;`).
			WithArgs("_v1", "new.user@example.com").
			WillReturnRows(rows)

		out, err := repo.Delete(ctx, inviterepo.InputDelete{
			Vendor: "_v1",
			Email:  "new.user@example.com",
		})
		assert.NoError(t, err)
		assert.True(t, out.Success)
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		repo, mock := newRepo(t)

		mock.ExpectQuery(`DELETE FROM invitations WHERE vendor = $1 AND LOWER(email) = $2 RETURNING *;`).
			WithArgs("_v1", "nobody@example.com").
			WillReturnRows(sqlmock.NewRows(invitationColumns()))

		out, err := repo.Delete(ctx, inviterepo.InputDelete{
			Vendor: "_v1",
			Email:  "nobody@example.com",
		})
		assert.NoError(t, err)
		assert.False(t, out.Success)
	})
}
