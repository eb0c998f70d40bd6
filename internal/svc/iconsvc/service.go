package iconsvc

import (
	"context"

	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/pkg/userpool"
)

// Service drives the icon pipeline: signed upload link issuance and,
// once the storage event fires, promotion of the staged image plus
// thumbnail derivation.
type Service interface {
	GetUploadLink(ctx context.Context, input InputGetUploadLink) (out OutGetUploadLink, err error)
	Upload(ctx context.Context, input InputUpload) (out OutUpload, err error)
}

// RepoOpener hands out a short lived app repo bound to a fresh
// database connection. Upload opens one per event and must close it on
// every path.
type RepoOpener interface {
	OpenAppRepo(ctx context.Context) (repo apprepo.Repo, closeFn func() error, err error)
}

type InputGetUploadLink struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	AppID  string        `validate:"required"`
}

type OutGetUploadLink struct {
	Link      string `json:"link"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

// InputUpload comes from the out of band storage event, not from the
// end user, so there is no caller identity here.
type InputUpload struct {
	AppID     string `validate:"required"`
	SourceKey string `validate:"required"`
}

type OutUpload struct {
	IconVersion int64  `json:"icon_version"`
	Icon32      string `json:"icon32"`
	Icon64      string `json:"icon64"`
}
