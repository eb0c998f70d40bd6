package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/internal/mocks"
	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/pkg/userpool"
)

func TestCheckVendor(t *testing.T) {
	checker, err := access.New(access.DefaultCheckerConfig{AppRepo: &mocks.AppRepo{}})
	assert.NoError(t, err)

	member := userpool.User{Email: "dev@example.com", Vendors: []string{"_v1", "_v2"}}

	t.Run("member passes", func(t *testing.T) {
		assert.NoError(t, checker.CheckVendor(member, "_v1"))
	})

	t.Run("non member is rejected", func(t *testing.T) {
		err := checker.CheckVendor(member, "_v9")
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})
}

func TestCheckApp(t *testing.T) {
	repo := &mocks.AppRepo{
		GetVendorOfAppFunc: func(ctx context.Context, in apprepo.InputGetVendorOfApp) (apprepo.OutGetVendorOfApp, error) {
			if in.ID == "_v1.my-app" {
				return apprepo.OutGetVendorOfApp{Vendor: "_v1"}, nil
			}

			return apprepo.OutGetVendorOfApp{}, apprepo.ErrNotFound
		},
	}

	checker, err := access.New(access.DefaultCheckerConfig{AppRepo: repo})
	assert.NoError(t, err)

	member := userpool.User{Email: "dev@example.com", Vendors: []string{"_v1"}}
	stranger := userpool.User{Email: "other@example.com", Vendors: []string{"_v9"}}

	t.Run("owner member passes", func(t *testing.T) {
		assert.NoError(t, checker.CheckApp(context.Background(), member, "_v1", "_v1.my-app"))
	})

	t.Run("unknown app is not found", func(t *testing.T) {
		err := checker.CheckApp(context.Background(), member, "_v1", "_v1.gone")
		assert.ErrorIs(t, err, apprepo.ErrNotFound)
	})

	t.Run("vendor path mismatch is not found, not unauthorized", func(t *testing.T) {
		err := checker.CheckApp(context.Background(), member, "_v2", "_v1.my-app")
		assert.ErrorIs(t, err, apprepo.ErrNotFound)
	})

	t.Run("non member of owning vendor is rejected", func(t *testing.T) {
		err := checker.CheckApp(context.Background(), stranger, "_v1", "_v1.my-app")
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})
}
