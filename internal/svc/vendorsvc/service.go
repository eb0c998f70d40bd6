package vendorsvc

import (
	"context"
	"time"

	"github.com/komponen/marketplace/pkg/userpool"
)

// Service covers the vendor account lifecycle: creation and approval,
// user membership through invitations or direct joins, and service
// credential issuance.
type Service interface {
	CreateVendor(ctx context.Context, input InputCreateVendor) (out OutCreateVendor, err error)
	GetVendor(ctx context.Context, input InputGetVendor) (out OutGetVendor, err error)
	ListVendors(ctx context.Context, input InputListVendors) (out OutListVendors, err error)
	ApproveVendor(ctx context.Context, input InputApproveVendor) (out OutApproveVendor, err error)

	InviteUser(ctx context.Context, input InputInviteUser) (out OutInviteUser, err error)
	AcceptInvitation(ctx context.Context, input InputAcceptInvitation) (out OutAcceptInvitation, err error)

	AddUser(ctx context.Context, input InputAddUser) (out OutAddUser, err error)
	RemoveUser(ctx context.Context, input InputRemoveUser) (out OutRemoveUser, err error)
	ListUsers(ctx context.Context, input InputListUsers) (out OutListUsers, err error)

	CreateCredentials(ctx context.Context, input InputCreateCredentials) (out OutCreateCredentials, err error)
}

// Vendor is like vendorrepo.Vendor but for returning output via
// external service.
type Vendor struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	Email      string    `json:"email"`
	IsPublic   bool      `json:"is_public"`
	IsApproved bool      `json:"is_approved"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

type InputCreateVendor struct {
	User    userpool.User `validate:"required"`
	Name    string        `validate:"required"`
	Address string        `validate:"-"`
	Email   string        `validate:"required,email"`
}

type OutCreateVendor struct {
	Vendor Vendor
}

type InputGetVendor struct {
	Vendor string `validate:"required"`
}

type OutGetVendor struct {
	Vendor Vendor
}

type InputListVendors struct {
	Limit   int64  `validate:"min=0"`
	AfterID string `validate:"-"`
}

type OutListVendors struct {
	Total   int64
	Limit   int64
	Vendors []Vendor
}

type InputApproveVendor struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
}

type OutApproveVendor struct {
	Vendor Vendor
}

type InputInviteUser struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	Email  string        `validate:"required,email"`
}

type OutInviteUser struct {
	Vendor string
	Email  string

	// MailSent is false when the invitation mail failed; the
	// invitation record itself still stands.
	MailSent bool
}

type InputAcceptInvitation struct {
	Vendor string `validate:"required"`
	Email  string `validate:"required,email"`
	Code   string `validate:"required"`
}

type OutAcceptInvitation struct {
	Vendor  string
	Email   string
	Vendors []string // the user's membership after joining
}

type InputAddUser struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	Email  string        `validate:"required,email"`
}

type OutAddUser struct {
	Vendors []string
}

type InputRemoveUser struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	Email  string        `validate:"required,email"`
}

type OutRemoveUser struct {
	Vendors []string
}

type InputListUsers struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
}

type OutListUsers struct {
	Users []userpool.User
}

type InputCreateCredentials struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	Name   string        `validate:"required,alphanum,lowercase"`
}

type OutCreateCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
