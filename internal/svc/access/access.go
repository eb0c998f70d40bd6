package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/pkg/validator"
)

var ErrNotAuthorized = errors.New("not authorized for vendor")

// Checker decides whether a caller may touch a vendor scoped resource.
// Every mutating operation calls it before writing anything.
type Checker interface {
	// CheckVendor fails with ErrNotAuthorized unless the user is a
	// member of the vendor.
	CheckVendor(user userpool.User, vendor string) error

	// CheckApp resolves the app's owning vendor first. The caller gets
	// apprepo.ErrNotFound when the app does not exist or when the
	// vendor path segment does not match the owner, and
	// ErrNotAuthorized when membership is missing.
	CheckApp(ctx context.Context, user userpool.User, vendor, appID string) error
}

type DefaultCheckerConfig struct {
	AppRepo apprepo.Repo `validate:"required"`
}

type DefaultChecker struct {
	Config DefaultCheckerConfig
}

var _ Checker = (*DefaultChecker)(nil)

func New(conf DefaultCheckerConfig) (*DefaultChecker, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	checker := &DefaultChecker{
		Config: conf,
	}
	return checker, nil
}

func (c *DefaultChecker) CheckVendor(user userpool.User, vendor string) error {
	if !user.HasVendor(vendor) {
		return fmt.Errorf("%w: user %s vendor %s", ErrNotAuthorized, user.Email, vendor)
	}

	return nil
}

func (c *DefaultChecker) CheckApp(ctx context.Context, user userpool.User, vendor, appID string) (err error) {
	owner, err := c.Config.AppRepo.GetVendorOfApp(ctx, apprepo.InputGetVendorOfApp{ID: appID})
	if err != nil {
		return
	}

	if owner.Vendor != vendor {
		err = fmt.Errorf("%w: id %s under vendor %s", apprepo.ErrNotFound, appID, vendor)
		return
	}

	err = c.CheckVendor(user, vendor)
	return
}
