package inviterepo

import (
	"context"
	"errors"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("invitation not found")
)

// Invitation is a transient join artifact between a vendor and a not
// yet member user, keyed by (vendor, email).
type Invitation struct {
	Vendor string `json:"vendor" db:"vendor" validate:"required"`
	Email  string `json:"email" db:"email" validate:"required,email"`
	Code   string `json:"code" db:"code" validate:"required"`

	// Timestamp using integer as unix microsecond in UTC
	CreatedAt int64 `json:"created_at" db:"created_at" validate:"required"`
}

// Repo is the Invitation repository service.
type Repo interface {
	// Create stores the invitation, replacing the code when one already
	// exists for the same (vendor, email) pair.
	Create(ctx context.Context, in InputCreate) (out OutCreate, err error)
	Get(ctx context.Context, in InputGet) (out OutGet, err error)
	Delete(ctx context.Context, in InputDelete) (out OutDelete, err error)
}

type InputCreate struct {
	Invitation Invitation `validate:"required"`
}

type OutCreate struct {
	Invitation Invitation
}

type InputGet struct {
	Vendor string `validate:"required"`
	Email  string `validate:"required,email"`
}

type OutGet struct {
	Invitation Invitation
}

type InputDelete struct {
	Vendor string `validate:"required"`
	Email  string `validate:"required,email"`
}

type OutDelete struct {
	Success bool
}
