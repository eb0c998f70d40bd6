package apprepo

import (
	"context"
	"errors"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("app not found")
	ErrConflict   = errors.New("app id already exists")
)

// Repo is the App repository service.
type Repo interface {
	Create(ctx context.Context, in InputCreate) (out OutCreate, err error)
	GetByID(ctx context.Context, in InputGetByID) (out OutGetByID, err error)
	Update(ctx context.Context, in InputUpdate) (out OutUpdate, err error)
	SoftDelete(ctx context.Context, in InputSoftDelete) (out OutSoftDelete, err error)
	ListPublished(ctx context.Context, in InputListPublished) (out OutListPublished, err error)
	ListForVendor(ctx context.Context, in InputListForVendor) (out OutListForVendor, err error)
	GetVendorOfApp(ctx context.Context, in InputGetVendorOfApp) (out OutGetVendorOfApp, err error)
	AddIcon(ctx context.Context, in InputAddIcon) (out OutAddIcon, err error)
}

type InputCreate struct {
	App App `validate:"required"`
}

type OutCreate struct {
	App App
}

type InputGetByID struct {
	ID string `validate:"required"`
}

type OutGetByID struct {
	App App
}

type InputUpdate struct {
	ID string `validate:"required"`

	// Fields maps column name to new value. Keys must be in the
	// updatable column set, the repo rejects anything else.
	Fields map[string]interface{} `validate:"required,min=1"`

	UpdatedAt int64 `validate:"required"`
}

type OutUpdate struct {
	App App
}

type InputSoftDelete struct {
	ID        string `validate:"required"`
	DeletedAt int64  `validate:"required"`
}

type OutSoftDelete struct {
	App App
}

type InputListPublished struct{}

type OutListPublished struct {
	Apps []App
}

type InputListForVendor struct {
	Vendor  string `validate:"required"`
	Limit   int64  `validate:"required,min=1"`
	AfterID string `validate:"-"` // exclusive cursor, empty means from the beginning
}

type OutListForVendor struct {
	Total int64
	Apps  []App
}

type InputGetVendorOfApp struct {
	ID string `validate:"required"`
}

type OutGetVendorOfApp struct {
	Vendor string
}

type InputAddIcon struct {
	ID string `validate:"required"`
}

type OutAddIcon struct {
	IconVersion int64
	Icon32      string
	Icon64      string
}
