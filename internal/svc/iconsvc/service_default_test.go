package iconsvc_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/internal/mocks"
	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/internal/svc/iconsvc"
	"github.com/komponen/marketplace/pkg/objstore"
	"github.com/komponen/marketplace/pkg/userpool"
)

type fakeOpener struct {
	repo    apprepo.Repo
	openErr error
	opened  int
	closed  int
}

func (f *fakeOpener) OpenAppRepo(_ context.Context) (apprepo.Repo, func() error, error) {
	if f.openErr != nil {
		return nil, nil, f.openErr
	}

	f.opened++
	return f.repo, func() error {
		f.closed++
		return nil
	}, nil
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for x := 0; x < 128; x++ {
		for y := 0; y < 128; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x7f, A: 0xff})
		}
	}

	buf := bytes.NewBuffer(nil)
	assert.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func newService(t *testing.T, store objstore.Storage, opener iconsvc.RepoOpener) iconsvc.Service {
	appRepo := &mocks.AppRepo{
		GetVendorOfAppFunc: func(ctx context.Context, in apprepo.InputGetVendorOfApp) (apprepo.OutGetVendorOfApp, error) {
			return apprepo.OutGetVendorOfApp{Vendor: "_v1"}, nil
		},
	}

	checker, err := access.New(access.DefaultCheckerConfig{AppRepo: appRepo})
	assert.NoError(t, err)

	svc, err := iconsvc.New(iconsvc.DefaultServiceConfig{
		Storage:      store,
		RepoOpener:   opener,
		Access:       checker,
		LinkValidity: time.Hour,
	})
	assert.NoError(t, err)

	return svc
}

func TestGetUploadLink(t *testing.T) {
	store := objstore.NewInMemory()
	svc := newService(t, store, &fakeOpener{repo: &mocks.AppRepo{}})

	member := userpool.User{Email: "dev@example.com", Vendors: []string{"_v1"}}
	out, err := svc.GetUploadLink(context.Background(), iconsvc.InputGetUploadLink{
		User:   member,
		Vendor: "_v1",
		AppID:  "_v1.my-app",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, out.Link)
	assert.Equal(t, int64(3600), out.ExpiresIn)

	// the signed url must pin the png content type
	assert.Contains(t, out.Link, "contentType=image/png")

	t.Run("non member is rejected", func(t *testing.T) {
		stranger := userpool.User{Email: "other@example.com", Vendors: []string{"_v9"}}
		_, err := svc.GetUploadLink(context.Background(), iconsvc.InputGetUploadLink{
			User:   stranger,
			Vendor: "_v1",
			AppID:  "_v1.my-app",
		})
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	const appID = "_v1.my-app"
	const staging = "icons/_v1.my-app/upload.png"

	t.Run("full pipeline on a staged object", func(t *testing.T) {
		store := objstore.NewInMemory()
		assert.NoError(t, store.Put(ctx, staging, pngBytes(t), "image/png"))

		addIconCalls := 0
		opener := &fakeOpener{repo: &mocks.AppRepo{
			AddIconFunc: func(ctx context.Context, in apprepo.InputAddIcon) (apprepo.OutAddIcon, error) {
				addIconCalls++
				return apprepo.OutAddIcon{IconVersion: 3}, nil
			},
		}}

		svc := newService(t, store, opener)
		out, err := svc.Upload(ctx, iconsvc.InputUpload{AppID: appID, SourceKey: staging})
		assert.NoError(t, err)
		assert.Equal(t, int64(3), out.IconVersion)
		assert.Equal(t, "icons/_v1.my-app/32/3.png", out.Icon32)
		assert.Equal(t, "icons/_v1.my-app/64/3.png", out.Icon64)
		assert.Equal(t, 1, addIconCalls)
		assert.Equal(t, 1, opener.opened)
		assert.Equal(t, 1, opener.closed)

		// staged source removed, canonical and thumbnails present
		_, err = store.Head(ctx, staging)
		assert.ErrorIs(t, err, objstore.ErrNotFound)

		_, err = store.Head(ctx, "icons/_v1.my-app/latest.png")
		assert.NoError(t, err)

		_, err = store.Head(ctx, out.Icon32)
		assert.NoError(t, err)

		_, err = store.Head(ctx, out.Icon64)
		assert.NoError(t, err)
	})

	t.Run("never staged object is a not found no-op", func(t *testing.T) {
		store := objstore.NewInMemory()
		opener := &fakeOpener{repo: &mocks.AppRepo{}}

		svc := newService(t, store, opener)
		_, err := svc.Upload(ctx, iconsvc.InputUpload{AppID: appID, SourceKey: staging})
		assert.ErrorIs(t, err, objstore.ErrNotFound)
		assert.Equal(t, 0, opener.opened)

		_, err = store.Head(ctx, "icons/_v1.my-app/latest.png")
		assert.ErrorIs(t, err, objstore.ErrNotFound)
	})

	t.Run("foreign source key is rejected", func(t *testing.T) {
		store := objstore.NewInMemory()
		svc := newService(t, store, &fakeOpener{repo: &mocks.AppRepo{}})

		_, err := svc.Upload(ctx, iconsvc.InputUpload{AppID: appID, SourceKey: "icons/_v2.other/upload.png"})
		assert.ErrorIs(t, err, apprepo.ErrValidation)
	})

	t.Run("counter error still closes the connection", func(t *testing.T) {
		store := objstore.NewInMemory()
		assert.NoError(t, store.Put(ctx, staging, pngBytes(t), "image/png"))

		opener := &fakeOpener{repo: &mocks.AppRepo{
			AddIconFunc: func(ctx context.Context, in apprepo.InputAddIcon) (apprepo.OutAddIcon, error) {
				return apprepo.OutAddIcon{}, apprepo.ErrNotFound
			},
		}}

		svc := newService(t, store, opener)
		_, err := svc.Upload(ctx, iconsvc.InputUpload{AppID: appID, SourceKey: staging})
		assert.ErrorIs(t, err, apprepo.ErrNotFound)
		assert.Equal(t, 1, opener.opened)
		assert.Equal(t, 1, opener.closed)
	})

	t.Run("resize failure reports but the promote stands", func(t *testing.T) {
		store := objstore.NewInMemory()
		assert.NoError(t, store.Put(ctx, staging, []byte("not a png"), "image/png"))

		opener := &fakeOpener{repo: &mocks.AppRepo{
			AddIconFunc: func(ctx context.Context, in apprepo.InputAddIcon) (apprepo.OutAddIcon, error) {
				return apprepo.OutAddIcon{IconVersion: 1}, nil
			},
		}}

		svc := newService(t, store, opener)
		_, err := svc.Upload(ctx, iconsvc.InputUpload{AppID: appID, SourceKey: staging})
		assert.Error(t, err)
		assert.Equal(t, 1, opener.closed)

		_, err = store.Head(ctx, "icons/_v1.my-app/latest.png")
		assert.NoError(t, err)
	})
}
