package appsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/internal/mocks"
	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/internal/svc/appsvc"
	"github.com/komponen/marketplace/pkg/cache"
	"github.com/komponen/marketplace/pkg/userpool"
)

var (
	member   = userpool.User{Email: "dev@example.com", Vendors: []string{"_v1"}}
	stranger = userpool.User{Email: "other@example.com", Vendors: []string{"_v9"}}
)

func newService(t *testing.T, repo *mocks.AppRepo) appsvc.Service {
	if repo.GetVendorOfAppFunc == nil {
		repo.GetVendorOfAppFunc = func(ctx context.Context, in apprepo.InputGetVendorOfApp) (apprepo.OutGetVendorOfApp, error) {
			return apprepo.OutGetVendorOfApp{Vendor: "_v1"}, nil
		}
	}

	checker, err := access.New(access.DefaultCheckerConfig{AppRepo: repo})
	assert.NoError(t, err)

	memCache, err := cache.NewInMemory()
	assert.NoError(t, err)

	svc, err := appsvc.New(appsvc.DefaultServiceConfig{
		AppRepo:    repo,
		Access:     checker,
		Cache:      memCache,
		CatalogTTL: time.Minute,
	})
	assert.NoError(t, err)

	return svc
}

func TestCreateApp(t *testing.T) {
	t.Run("composes id and stamps creator", func(t *testing.T) {
		var created apprepo.App
		repo := &mocks.AppRepo{
			CreateFunc: func(ctx context.Context, in apprepo.InputCreate) (apprepo.OutCreate, error) {
				created = in.App
				created.Version = 1
				return apprepo.OutCreate{App: created}, nil
			},
		}

		svc := newService(t, repo)
		out, err := svc.CreateApp(context.Background(), appsvc.InputCreateApp{
			User:   member,
			Vendor: "_v1",
			ID:     "my-app",
			Name:   "My App",
			Type:   "extractor",
		})
		assert.NoError(t, err)
		assert.Equal(t, "_v1.my-app", created.ID)
		assert.Equal(t, "dev@example.com", created.CreatedBy)
		assert.Equal(t, int64(1), out.App.Version)
		assert.Nil(t, out.App.DeletedOn)
	})

	t.Run("rejects bad local id before any write", func(t *testing.T) {
		repoCalled := false
		repo := &mocks.AppRepo{
			CreateFunc: func(ctx context.Context, in apprepo.InputCreate) (apprepo.OutCreate, error) {
				repoCalled = true
				return apprepo.OutCreate{}, nil
			},
		}

		svc := newService(t, repo)
		_, err := svc.CreateApp(context.Background(), appsvc.InputCreateApp{
			User:   member,
			Vendor: "_v1",
			ID:     "my app!",
			Name:   "My App",
			Type:   "extractor",
		})
		assert.ErrorIs(t, err, apprepo.ErrValidation)
		assert.False(t, repoCalled)
	})

	t.Run("non member cannot create", func(t *testing.T) {
		svc := newService(t, &mocks.AppRepo{})
		_, err := svc.CreateApp(context.Background(), appsvc.InputCreateApp{
			User:   stranger,
			Vendor: "_v1",
			ID:     "my-app",
			Name:   "My App",
			Type:   "extractor",
		})
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})
}

func TestUpdateApp(t *testing.T) {
	t.Run("valid patch reaches the repo with column values", func(t *testing.T) {
		var gotFields map[string]interface{}
		repo := &mocks.AppRepo{
			UpdateFunc: func(ctx context.Context, in apprepo.InputUpdate) (apprepo.OutUpdate, error) {
				gotFields = in.Fields
				return apprepo.OutUpdate{App: apprepo.App{ID: in.ID, Vendor: "_v1", Version: 2}}, nil
			},
		}

		svc := newService(t, repo)
		out, err := svc.UpdateApp(context.Background(), appsvc.InputUpdateApp{
			User:   member,
			Vendor: "_v1",
			AppID:  "_v1.my-app",
			Patch: map[string]interface{}{
				"name":      "Renamed",
				"is_public": true,
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), out.App.Version)
		assert.Equal(t, "Renamed", gotFields["name"])
		assert.Equal(t, true, gotFields["is_public"])
	})

	t.Run("forbidden field fails naming the field, no repo call", func(t *testing.T) {
		for _, field := range []string{"id", "vendor", "is_approved", "version", "created_by", "forward_token", "icon32", "legacy_uri"} {
			repoCalled := false
			repo := &mocks.AppRepo{
				UpdateFunc: func(ctx context.Context, in apprepo.InputUpdate) (apprepo.OutUpdate, error) {
					repoCalled = true
					return apprepo.OutUpdate{}, nil
				},
			}

			svc := newService(t, repo)
			_, err := svc.UpdateApp(context.Background(), appsvc.InputUpdateApp{
				User:   member,
				Vendor: "_v1",
				AppID:  "_v1.my-app",
				Patch:  map[string]interface{}{field: "x"},
			})
			assert.ErrorIs(t, err, apprepo.ErrValidation, field)
			assert.ErrorContains(t, err, field)
			assert.False(t, repoCalled, field)
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		svc := newService(t, &mocks.AppRepo{})
		_, err := svc.UpdateApp(context.Background(), appsvc.InputUpdateApp{
			User:   member,
			Vendor: "_v1",
			AppID:  "_v1.my-app",
			Patch:  map[string]interface{}{"no_such_field": 1},
		})
		assert.ErrorIs(t, err, apprepo.ErrValidation)
	})

	t.Run("wrong value type is rejected", func(t *testing.T) {
		svc := newService(t, &mocks.AppRepo{})
		_, err := svc.UpdateApp(context.Background(), appsvc.InputUpdateApp{
			User:   member,
			Vendor: "_v1",
			AppID:  "_v1.my-app",
			Patch:  map[string]interface{}{"is_public": "yes"},
		})
		assert.ErrorIs(t, err, apprepo.ErrValidation)
	})

	t.Run("non member cannot update", func(t *testing.T) {
		svc := newService(t, &mocks.AppRepo{})
		_, err := svc.UpdateApp(context.Background(), appsvc.InputUpdateApp{
			User:   stranger,
			Vendor: "_v1",
			AppID:  "_v1.my-app",
			Patch:  map[string]interface{}{"name": "Renamed"},
		})
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})
}

func TestDeleteApp(t *testing.T) {
	now := time.Now().UTC().UnixMicro()
	repo := &mocks.AppRepo{
		SoftDeleteFunc: func(ctx context.Context, in apprepo.InputSoftDelete) (apprepo.OutSoftDelete, error) {
			return apprepo.OutSoftDelete{App: apprepo.App{ID: in.ID, Vendor: "_v1", Version: 1, DeletedAt: now}}, nil
		},
	}

	svc := newService(t, repo)
	out, err := svc.DeleteApp(context.Background(), appsvc.InputDeleteApp{
		User:   member,
		Vendor: "_v1",
		AppID:  "_v1.my-app",
	})
	assert.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotNil(t, out.App.DeletedOn)
}

func TestListPublishedApps(t *testing.T) {
	calls := 0
	repo := &mocks.AppRepo{
		ListPublishedFunc: func(ctx context.Context, in apprepo.InputListPublished) (apprepo.OutListPublished, error) {
			calls++
			return apprepo.OutListPublished{Apps: []apprepo.App{
				{ID: "_v1.my-app", Vendor: "_v1", Name: "My App", IsPublic: true, Version: 1},
			}}, nil
		},
	}

	svc := newService(t, repo)

	out, err := svc.ListPublishedApps(context.Background(), appsvc.InputListPublishedApps{})
	assert.NoError(t, err)
	assert.Len(t, out.Apps, 1)
	assert.Equal(t, 1, calls)

	// second read is served from cache
	out, err = svc.ListPublishedApps(context.Background(), appsvc.InputListPublishedApps{})
	assert.NoError(t, err)
	assert.Len(t, out.Apps, 1)
	assert.Equal(t, 1, calls)
}

func TestCatalogDropsMutatedApps(t *testing.T) {
	ctx := context.Background()

	published := []apprepo.App{
		{ID: "_v1.my-app", Vendor: "_v1", Name: "My App", IsPublic: true, Version: 1},
	}

	repo := &mocks.AppRepo{
		ListPublishedFunc: func(ctx context.Context, in apprepo.InputListPublished) (apprepo.OutListPublished, error) {
			return apprepo.OutListPublished{Apps: published}, nil
		},
		SoftDeleteFunc: func(ctx context.Context, in apprepo.InputSoftDelete) (apprepo.OutSoftDelete, error) {
			published = nil
			return apprepo.OutSoftDelete{App: apprepo.App{ID: in.ID, Vendor: "_v1", Version: 1, DeletedAt: in.DeletedAt}}, nil
		},
		UpdateFunc: func(ctx context.Context, in apprepo.InputUpdate) (apprepo.OutUpdate, error) {
			published = nil
			return apprepo.OutUpdate{App: apprepo.App{ID: in.ID, Vendor: "_v1", Version: 2}}, nil
		},
	}

	t.Run("deleted app leaves the catalog immediately", func(t *testing.T) {
		published = []apprepo.App{
			{ID: "_v1.my-app", Vendor: "_v1", Name: "My App", IsPublic: true, Version: 1},
		}

		svc := newService(t, repo)

		out, err := svc.ListPublishedApps(ctx, appsvc.InputListPublishedApps{})
		assert.NoError(t, err)
		assert.Len(t, out.Apps, 1)

		_, err = svc.DeleteApp(ctx, appsvc.InputDeleteApp{
			User:   member,
			Vendor: "_v1",
			AppID:  "_v1.my-app",
		})
		assert.NoError(t, err)

		// the cached entry must be gone, no TTL wait involved
		out, err = svc.ListPublishedApps(ctx, appsvc.InputListPublishedApps{})
		assert.NoError(t, err)
		assert.Len(t, out.Apps, 0)
	})

	t.Run("app marked private leaves the catalog immediately", func(t *testing.T) {
		published = []apprepo.App{
			{ID: "_v1.my-app", Vendor: "_v1", Name: "My App", IsPublic: true, Version: 1},
		}

		svc := newService(t, repo)

		out, err := svc.ListPublishedApps(ctx, appsvc.InputListPublishedApps{})
		assert.NoError(t, err)
		assert.Len(t, out.Apps, 1)

		_, err = svc.UpdateApp(ctx, appsvc.InputUpdateApp{
			User:   member,
			Vendor: "_v1",
			AppID:  "_v1.my-app",
			Patch:  map[string]interface{}{"is_public": false},
		})
		assert.NoError(t, err)

		out, err = svc.ListPublishedApps(ctx, appsvc.InputListPublishedApps{})
		assert.NoError(t, err)
		assert.Len(t, out.Apps, 0)
	})
}
