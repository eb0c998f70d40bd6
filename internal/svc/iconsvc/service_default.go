package iconsvc

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/yusufsyaifudin/ylog"

	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/pkg/objstore"
	"github.com/komponen/marketplace/pkg/validator"
)

// Thumbnail edge sizes in pixels, largest first.
var thumbSizes = []int{64, 32}

// iconContentType is pinned into the signed upload url, only PNG
// bodies can be staged.
const iconContentType = "image/png"

func stagingKey(appID string) string {
	return fmt.Sprintf("icons/%s/upload.png", appID)
}

func latestKey(appID string) string {
	return fmt.Sprintf("icons/%s/latest.png", appID)
}

func thumbKey(appID string, size int, version int64) string {
	return fmt.Sprintf("icons/%s/%d/%d.png", appID, size, version)
}

type DefaultServiceConfig struct {
	Storage    objstore.Storage `validate:"required"`
	RepoOpener RepoOpener       `validate:"required"`
	Access     access.Checker   `validate:"required"`

	// LinkValidity bounds the signed upload url lifetime.
	LinkValidity time.Duration `validate:"min=0"`
}

type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func New(dep DefaultServiceConfig) (*DefaultService, error) {
	if err := validator.Validate(dep); err != nil {
		return nil, err
	}

	if dep.LinkValidity <= 0 {
		dep.LinkValidity = time.Hour
	}

	return &DefaultService{
		Config: dep,
	}, nil
}

func (d *DefaultService) GetUploadLink(ctx context.Context, input InputGetUploadLink) (out OutGetUploadLink, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", apprepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckApp(ctx, input.User, input.Vendor, input.AppID)
	if err != nil {
		return
	}

	link, err := d.Config.Storage.SignedUploadURL(ctx, stagingKey(input.AppID), iconContentType, d.Config.LinkValidity)
	if err != nil {
		err = fmt.Errorf("cannot sign upload url for app %s: %w", input.AppID, err)
		return
	}

	out = OutGetUploadLink{
		Link:      link,
		ExpiresIn: int64(d.Config.LinkValidity.Seconds()),
	}
	return
}

// Upload runs the post upload pipeline strictly in order: confirm the
// staged object, promote it to latest.png, bump the icon counter, then
// derive the thumbnails. The counter bump uses its own database
// connection which is closed on success and failure alike.
func (d *DefaultService) Upload(ctx context.Context, input InputUpload) (out OutUpload, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", apprepo.ErrValidation, err)
		return
	}

	staged := stagingKey(input.AppID)
	if input.SourceKey != staged {
		err = fmt.Errorf("%w: source key %s is not the staging key of app %s", apprepo.ErrValidation, input.SourceKey, input.AppID)
		return
	}

	// (a) the event may arrive for an object that was never uploaded
	// or was already handled, both look like a missing staged object
	_, err = d.Config.Storage.Head(ctx, staged)
	if err != nil {
		err = fmt.Errorf("staged icon of app %s: %w", input.AppID, err)
		return
	}

	// (b) promote, delete the staged source only after the copy stands
	latest := latestKey(input.AppID)
	err = d.Config.Storage.Copy(ctx, staged, latest)
	if err != nil {
		err = fmt.Errorf("promote staged icon of app %s: %w", input.AppID, err)
		return
	}

	err = d.Config.Storage.Delete(ctx, staged)
	if err != nil {
		err = fmt.Errorf("delete staged icon of app %s: %w", input.AppID, err)
		return
	}

	// (c) record the new icon version on a dedicated connection
	iconOut, err := d.addIcon(ctx, input.AppID)
	if err != nil {
		return
	}

	out = OutUpload{
		IconVersion: iconOut.IconVersion,
		Icon32:      thumbKey(input.AppID, 32, iconOut.IconVersion),
		Icon64:      thumbKey(input.AppID, 64, iconOut.IconVersion),
	}

	// (d) thumbnails derive from latest.png; a failure here is
	// reported but latest.png already stands as the source of truth
	err = d.deriveThumbnails(ctx, input.AppID, iconOut.IconVersion)
	if err != nil {
		err = fmt.Errorf("derive thumbnails of app %s: %w", input.AppID, err)
		return
	}

	return
}

func (d *DefaultService) addIcon(ctx context.Context, appID string) (out apprepo.OutAddIcon, err error) {
	repo, closeFn, err := d.Config.RepoOpener.OpenAppRepo(ctx)
	if err != nil {
		err = fmt.Errorf("open app repo connection: %w", err)
		return
	}

	defer func() {
		if _err := closeFn(); _err != nil {
			ylog.Error(ctx, "close app repo connection error", ylog.KV("error", _err))
		}
	}()

	out, err = repo.AddIcon(ctx, apprepo.InputAddIcon{ID: appID})
	if err != nil {
		err = fmt.Errorf("record icon version of app %s: %w", appID, err)
		return
	}

	return
}

func (d *DefaultService) deriveThumbnails(ctx context.Context, appID string, version int64) (err error) {
	raw, err := d.Config.Storage.Get(ctx, latestKey(appID))
	if err != nil {
		err = fmt.Errorf("fetch latest icon: %w", err)
		return
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		err = fmt.Errorf("decode latest icon: %w", err)
		return
	}

	for _, size := range thumbSizes {
		resized := imaging.Resize(img, size, size, imaging.Lanczos)

		buf := bytes.NewBuffer(nil)
		err = imaging.Encode(buf, resized, imaging.PNG)
		if err != nil {
			err = fmt.Errorf("encode %dpx thumbnail: %w", size, err)
			return
		}

		err = d.Config.Storage.Put(ctx, thumbKey(appID, size, version), buf.Bytes(), iconContentType)
		if err != nil {
			err = fmt.Errorf("store %dpx thumbnail: %w", size, err)
			return
		}
	}

	return
}
