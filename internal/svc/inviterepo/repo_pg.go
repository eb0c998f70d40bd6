package inviterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/komponen/marketplace/pkg/validator"
)

const (
	sqlCreateInvitation = `
		INSERT INTO invitations (vendor, email, code, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (vendor, email)
		DO UPDATE SET
		    code = EXCLUDED.code,
		    created_at = EXCLUDED.created_at
		RETURNING *;
`

	sqlGetInvitation = `SELECT * FROM invitations WHERE vendor = $1 AND LOWER(email) = $2 LIMIT 1;`

	sqlDeleteInvitation = `DELETE FROM invitations WHERE vendor = $1 AND LOWER(email) = $2 RETURNING *;`
)

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

	invitation := in.Invitation
	invitation.Email = strings.TrimSpace(strings.ToLower(invitation.Email))

	inserted := Invitation{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &inserted, sqlCreateInvitation,
		invitation.Vendor, invitation.Email, invitation.Code, invitation.CreatedAt,
	)
	if err != nil {
		return
	}

	out = OutCreate{
		Invitation: inserted,
	}
	return
}

func (p *RepoPostgres) Get(ctx context.Context, in InputGet) (out OutGet, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))

	invitation := Invitation{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &invitation, sqlGetInvitation, in.Vendor, email)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: vendor %s email %s", ErrNotFound, in.Vendor, email)
		return
	}

	if err != nil {
		return
	}

	out = OutGet{
		Invitation: invitation,
	}
	return
}

func (p *RepoPostgres) Delete(ctx context.Context, in InputDelete) (out OutDelete, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))

	deleted := Invitation{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &deleted, sqlDeleteInvitation, in.Vendor, email)
	if errors.Is(err, sql.ErrNoRows) {
		out = OutDelete{
			Success: false,
		}

		err = nil // discard error
		return
	}

	if err != nil {
		return
	}

	out = OutDelete{
		Success: true,
	}
	return
}
