package appsvc

import (
	"encoding/json"
	"time"

	"github.com/komponen/marketplace/internal/svc/apprepo"
)

func AppFromRepo(app apprepo.App) App {
	a := App{
		ID:     app.ID,
		Vendor: app.Vendor,
		Name:   app.Name,
		Type:   app.Type,

		RepoType:    app.RepoType,
		RepoURI:     app.RepoURI,
		RepoTag:     app.RepoTag,
		RepoOptions: json.RawMessage(app.RepoOptions),

		ShortDescription: app.ShortDescription,
		LongDescription:  app.LongDescription,
		LicenseURL:       app.LicenseURL,
		DocumentationURL: app.DocumentationURL,

		RequiredMemory: app.RequiredMemory,
		ProcessTimeout: app.ProcessTimeout,

		Encryption:    app.Encryption,
		DefaultBucket: app.DefaultBucket,
		ForwardToken:  app.ForwardToken,
		Fees:          app.Fees,
		IsVisible:     app.IsVisible,
		IsPublic:      app.IsPublic,
		IsApproved:    app.IsApproved,

		Limits:    app.Limits,
		LegacyURI: app.LegacyURI,

		Icon32:      app.Icon32,
		Icon64:      app.Icon64,
		IconVersion: app.IconVersion,

		Version: app.Version,

		CreatedBy: app.CreatedBy,
		CreatedOn: time.UnixMicro(app.CreatedAt).UTC(),
		UpdatedOn: time.UnixMicro(app.UpdatedAt).UTC(),
	}

	if app.DeletedAt != 0 {
		deletedOn := time.UnixMicro(app.DeletedAt).UTC()
		a.DeletedOn = &deletedOn
	}

	return a
}
