package appsvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/komponen/marketplace/pkg/userpool"
)

// Service is an interface of final business logic.
// Any input and output from/to this function should be SAFE for external party to consume,
// i.e: request or response from HTTP handler
type Service interface {
	CreateApp(ctx context.Context, input InputCreateApp) (out OutCreateApp, err error)
	GetAppForVendor(ctx context.Context, input InputGetAppForVendor) (out OutGetAppForVendor, err error)
	UpdateApp(ctx context.Context, input InputUpdateApp) (out OutUpdateApp, err error)
	DeleteApp(ctx context.Context, input InputDeleteApp) (out OutDeleteApp, err error)
	ListPublishedApps(ctx context.Context, input InputListPublishedApps) (out OutListPublishedApps, err error)
	ListAppsForVendor(ctx context.Context, input InputListAppsForVendor) (out OutListAppsForVendor, err error)
}

// App is like apprepo.App but for returning output via external service.
// Timestamps become time.Time here, DeletedOn stays nil while the app
// is live. Json tag is shared by the HTTP layer and the catalog cache.
type App struct {
	ID     string `json:"id"`
	Vendor string `json:"vendor"`
	Name   string `json:"name"`
	Type   string `json:"type"`

	RepoType    string          `json:"repo_type,omitempty"`
	RepoURI     string          `json:"repo_uri,omitempty"`
	RepoTag     string          `json:"repo_tag,omitempty"`
	RepoOptions json.RawMessage `json:"repo_options,omitempty"`

	ShortDescription string `json:"short_description,omitempty"`
	LongDescription  string `json:"long_description,omitempty"`
	LicenseURL       string `json:"license_url,omitempty"`
	DocumentationURL string `json:"documentation_url,omitempty"`

	RequiredMemory string `json:"required_memory,omitempty"`
	ProcessTimeout int64  `json:"process_timeout,omitempty"`

	Encryption    bool `json:"encryption"`
	DefaultBucket bool `json:"default_bucket"`
	ForwardToken  bool `json:"forward_token"`
	Fees          bool `json:"fees"`
	IsVisible     bool `json:"is_visible"`
	IsPublic      bool `json:"is_public"`
	IsApproved    bool `json:"is_approved"`

	Limits    string `json:"limits,omitempty"`
	LegacyURI string `json:"legacy_uri,omitempty"`

	Icon32      string `json:"icon32,omitempty"`
	Icon64      string `json:"icon64,omitempty"`
	IconVersion int64  `json:"icon_version"`

	Version int64 `json:"version"`

	CreatedBy string     `json:"created_by"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn time.Time  `json:"updated_on"`
	DeletedOn *time.Time `json:"deleted_on"`
}

// InputCreateApp carries the creatable attributes. The final app id is
// "<vendor>.<id>" and never changes afterwards.
type InputCreateApp struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`

	ID   string `validate:"required,min=3,max=64"`
	Name string `validate:"required"`
	Type string `validate:"required,oneof=extractor application writer other transformation processor"`

	RepoType    string          `validate:"omitempty,oneof=dockerhub quay"`
	RepoURI     string          `validate:"-"`
	RepoTag     string          `validate:"-"`
	RepoOptions json.RawMessage `validate:"-"`

	ShortDescription string `validate:"-"`
	LongDescription  string `validate:"-"`
	LicenseURL       string `validate:"omitempty,url"`
	DocumentationURL string `validate:"omitempty,url"`

	Encryption    bool `validate:"-"`
	DefaultBucket bool `validate:"-"`
	Fees          bool `validate:"-"`
	IsVisible     bool `validate:"-"`
	IsPublic      bool `validate:"-"`

	Limits string `validate:"-"`
}

type OutCreateApp struct {
	App App
}

type InputGetAppForVendor struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	AppID  string        `validate:"required"`
}

type OutGetAppForVendor struct {
	App App
}

type InputUpdateApp struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	AppID  string        `validate:"required"`

	// Patch holds the decoded JSON body, key by json field name.
	Patch map[string]interface{} `validate:"required,min=1"`
}

type OutUpdateApp struct {
	App App
}

type InputDeleteApp struct {
	User   userpool.User `validate:"required"`
	Vendor string        `validate:"required"`
	AppID  string        `validate:"required"`
}

type OutDeleteApp struct {
	Success bool
	App     App
}

type InputListPublishedApps struct{}

type OutListPublishedApps struct {
	Apps []App `json:"apps"`
}

type InputListAppsForVendor struct {
	User    userpool.User `validate:"required"`
	Vendor  string        `validate:"required"`
	Limit   int64         `validate:"min=0"`
	AfterID string        `validate:"-"`
}

type OutListAppsForVendor struct {
	Total int64
	Limit int64
	Apps  []App
}
