package apprepo

import "github.com/jmoiron/sqlx/types"

// App is one marketplace component record. The primary key is the
// composite "<vendor>.<local name>" assigned at creation and never
// changed afterwards. Json tag is used for caching and API responses.
type App struct {
	ID     string `json:"id" db:"id" validate:"required"`         // primary key, "<vendor>.<name>"
	Vendor string `json:"vendor" db:"vendor" validate:"required"` // owning vendor id
	Name   string `json:"name" db:"name" validate:"required"`     // human readable title

	Type string `json:"type" db:"type" validate:"required,oneof=extractor application writer other transformation processor"`

	RepoType    string         `json:"repo_type" db:"repo_type" validate:"omitempty,oneof=dockerhub quay"`
	RepoURI     string         `json:"repo_uri" db:"repo_uri" validate:"-"`
	RepoTag     string         `json:"repo_tag" db:"repo_tag" validate:"-"`
	RepoOptions types.JSONText `json:"repo_options" db:"repo_options" validate:"-"`

	ShortDescription string `json:"short_description" db:"short_description" validate:"-"`
	LongDescription  string `json:"long_description" db:"long_description" validate:"-"`
	LicenseURL       string `json:"license_url" db:"license_url" validate:"omitempty,url"`
	DocumentationURL string `json:"documentation_url" db:"documentation_url" validate:"omitempty,url"`

	RequiredMemory string `json:"required_memory" db:"required_memory" validate:"-"`
	ProcessTimeout int64  `json:"process_timeout" db:"process_timeout" validate:"min=0"`

	Encryption    bool `json:"encryption" db:"encryption" validate:"-"`
	DefaultBucket bool `json:"default_bucket" db:"default_bucket" validate:"-"`
	ForwardToken  bool `json:"forward_token" db:"forward_token" validate:"-"`
	Fees          bool `json:"fees" db:"fees" validate:"-"`
	IsVisible     bool `json:"is_visible" db:"is_visible" validate:"-"`
	IsPublic      bool `json:"is_public" db:"is_public" validate:"-"`
	IsApproved    bool `json:"is_approved" db:"is_approved" validate:"-"`

	Limits    string `json:"limits" db:"limits" validate:"-"`
	LegacyURI string `json:"legacy_uri" db:"legacy_uri" validate:"-"`

	Icon32      string `json:"icon32" db:"icon32" validate:"-"`
	Icon64      string `json:"icon64" db:"icon64" validate:"-"`
	IconVersion int64  `json:"icon_version" db:"icon_version" validate:"min=0"`

	// Version starts at 1 and is bumped by exactly one on every update.
	Version int64 `json:"version" db:"version" validate:"min=0"`

	CreatedBy string `json:"created_by" db:"created_by" validate:"required,email"`

	// Timestamp using integer as unix microsecond in UTC.
	// DeletedAt stays 0 while the app is live.
	CreatedAt int64 `json:"created_at" db:"created_at" validate:"required"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at" validate:"required"`
	DeletedAt int64 `json:"deleted_at" db:"deleted_at" validate:"-"`
}
