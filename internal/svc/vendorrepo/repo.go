package vendorrepo

import (
	"context"
	"errors"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("vendor not found")
	ErrConflict   = errors.New("vendor id already exists")
)

// Repo is the Vendor repository service.
type Repo interface {
	Create(ctx context.Context, in InputCreate) (out OutCreate, err error)
	Get(ctx context.Context, in InputGet) (out OutGet, err error)
	List(ctx context.Context, in InputList) (out OutList, err error)
	Approve(ctx context.Context, in InputApprove) (out OutApprove, err error)
}

type InputCreate struct {
	Vendor Vendor `validate:"required"`
}

type OutCreate struct {
	Vendor Vendor
}

type InputGet struct {
	ID string `validate:"required"`
}

type OutGet struct {
	Vendor Vendor
}

type InputList struct {
	Limit   int64  `validate:"required,min=1"`
	AfterID string `validate:"-"` // exclusive cursor, empty means from the beginning
}

type OutList struct {
	Total   int64
	Vendors []Vendor
}

type InputApprove struct {
	ID        string `validate:"required"`
	UpdatedAt int64  `validate:"required"`
}

type OutApprove struct {
	Vendor Vendor
}
