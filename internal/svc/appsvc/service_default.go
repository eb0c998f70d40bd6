package appsvc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"

	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/pkg/cache"
	"github.com/komponen/marketplace/pkg/tracer"
	"github.com/komponen/marketplace/pkg/validator"

	jsonenc "github.com/segmentio/encoding/json"
)

const cacheKeyPublishedApps = "marketplace:apps:published"

// appLocalIDPattern limits the creator chosen part of the app id.
var appLocalIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// forbiddenPatchFields can never go through the update path. They are
// either immutable (id, vendor, audit fields), system managed (version,
// icon pointers) or contract level flags changed out of band only.
var forbiddenPatchFields = map[string]struct{}{
	"id":              {},
	"vendor":          {},
	"is_approved":     {},
	"created_by":      {},
	"created_on":      {},
	"created_at":      {},
	"updated_on":      {},
	"updated_at":      {},
	"deleted_on":      {},
	"deleted_at":      {},
	"version":         {},
	"forward_token":   {},
	"required_memory": {},
	"process_timeout": {},
	"icon32":          {},
	"icon64":          {},
	"icon_version":    {},
	"legacy_uri":      {},
}

type patchFieldSpec struct {
	kind string // string, bool or json
	rule string // validator tag applied to string values
}

// patchableFields maps json field name to its shape. Field names equal
// the database column names for everything updatable.
var patchableFields = map[string]patchFieldSpec{
	"name":              {kind: "string", rule: "required"},
	"type":              {kind: "string", rule: "oneof=extractor application writer other transformation processor"},
	"repo_type":         {kind: "string", rule: "omitempty,oneof=dockerhub quay"},
	"repo_uri":          {kind: "string"},
	"repo_tag":          {kind: "string"},
	"repo_options":      {kind: "json"},
	"short_description": {kind: "string"},
	"long_description":  {kind: "string"},
	"license_url":       {kind: "string", rule: "omitempty,url"},
	"documentation_url": {kind: "string", rule: "omitempty,url"},
	"encryption":        {kind: "bool"},
	"default_bucket":    {kind: "bool"},
	"fees":              {kind: "bool"},
	"limits":            {kind: "string"},
	"is_visible":        {kind: "bool"},
	"is_public":         {kind: "bool"},
}

type DefaultServiceConfig struct {
	AppRepo    apprepo.Repo   `validate:"required"`
	Access     access.Checker `validate:"required"`
	Cache      cache.Cache    `validate:"required"`
	CatalogTTL time.Duration  `validate:"min=0"`
}

type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func New(dep DefaultServiceConfig) (*DefaultService, error) {
	if err := validator.Validate(dep); err != nil {
		return nil, err
	}

	if dep.CatalogTTL <= 0 {
		dep.CatalogTTL = time.Minute
	}

	return &DefaultService{
		Config: dep,
	}, nil
}

// CreateApp is a function that knows business logic.
// It doesn't know whether the input come from HTTP or GRPC or any input.
func (d *DefaultService) CreateApp(ctx context.Context, input InputCreateApp) (out OutCreateApp, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", apprepo.ErrValidation, err)
		return
	}

	if !appLocalIDPattern.MatchString(input.ID) {
		err = fmt.Errorf("%w: app id '%s' may only contain letters, digits, dash and underscore", apprepo.ErrValidation, input.ID)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, input.Vendor)
	if err != nil {
		return
	}

	now := time.Now().UTC()
	appInput := apprepo.App{
		ID:     fmt.Sprintf("%s.%s", input.Vendor, strings.ToLower(input.ID)),
		Vendor: input.Vendor,
		Name:   input.Name,
		Type:   input.Type,

		RepoType:    input.RepoType,
		RepoURI:     input.RepoURI,
		RepoTag:     input.RepoTag,
		RepoOptions: []byte(input.RepoOptions),

		ShortDescription: input.ShortDescription,
		LongDescription:  input.LongDescription,
		LicenseURL:       input.LicenseURL,
		DocumentationURL: input.DocumentationURL,

		Encryption:    input.Encryption,
		DefaultBucket: input.DefaultBucket,
		Fees:          input.Fees,
		IsVisible:     input.IsVisible,
		IsPublic:      input.IsPublic,

		Limits: input.Limits,

		CreatedBy: input.User.Email,
		CreatedAt: now.UnixMicro(),
		UpdatedAt: now.UnixMicro(),
	}

	appOut, err := d.Config.AppRepo.Create(ctx, apprepo.InputCreate{
		App: appInput,
	})
	if err != nil {
		return
	}

	d.invalidateCatalog(ctx)

	out = OutCreateApp{
		App: AppFromRepo(appOut.App),
	}
	return
}

// invalidateCatalog drops the cached published list after any app
// mutation, otherwise a deleted or newly private app keeps being
// served until the entry expires.
func (d *DefaultService) invalidateCatalog(ctx context.Context) {
	if err := d.Config.Cache.Delete(ctx, cacheKeyPublishedApps); err != nil {
		ylog.Error(ctx, "published apps cache invalidation error", ylog.KV("error", err))
	}
}

func (d *DefaultService) GetAppForVendor(ctx context.Context, input InputGetAppForVendor) (out OutGetAppForVendor, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.GetAppForVendor")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", apprepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckApp(ctx, input.User, input.Vendor, input.AppID)
	if err != nil {
		return
	}

	outGetApp, err := d.Config.AppRepo.GetByID(ctx, apprepo.InputGetByID{ID: input.AppID})
	if err != nil {
		return
	}

	out = OutGetAppForVendor{
		App: AppFromRepo(outGetApp.App),
	}
	return
}

// UpdateApp merges the patch into the stored record. Forbidden and
// unknown fields fail before the access check runs, so invalid input
// never reaches the database.
func (d *DefaultService) UpdateApp(ctx context.Context, input InputUpdateApp) (out OutUpdateApp, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", apprepo.ErrValidation, err)
		return
	}

	fields, err := patchToColumns(input.Patch)
	if err != nil {
		return
	}

	err = d.Config.Access.CheckApp(ctx, input.User, input.Vendor, input.AppID)
	if err != nil {
		return
	}

	outUpdate, err := d.Config.AppRepo.Update(ctx, apprepo.InputUpdate{
		ID:        input.AppID,
		Fields:    fields,
		UpdatedAt: time.Now().UTC().UnixMicro(),
	})
	if err != nil {
		return
	}

	d.invalidateCatalog(ctx)

	out = OutUpdateApp{
		App: AppFromRepo(outUpdate.App),
	}
	return
}

func (d *DefaultService) DeleteApp(ctx context.Context, input InputDeleteApp) (out OutDeleteApp, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", apprepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckApp(ctx, input.User, input.Vendor, input.AppID)
	if err != nil {
		return
	}

	outDel, err := d.Config.AppRepo.SoftDelete(ctx, apprepo.InputSoftDelete{
		ID:        input.AppID,
		DeletedAt: time.Now().UTC().UnixMicro(),
	})
	if err != nil {
		return
	}

	d.invalidateCatalog(ctx)

	out = OutDeleteApp{
		Success: true,
		App:     AppFromRepo(outDel.App),
	}
	return
}

// ListPublishedApps is the public marketplace catalog. The whole list
// is cached as one value, dropped on every app mutation and bounded by
// the configured TTL otherwise.
func (d *DefaultService) ListPublishedApps(ctx context.Context, _ InputListPublishedApps) (out OutListPublishedApps, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.ListPublishedApps")
	defer span.End()

	cached := OutListPublishedApps{}
	err = d.Config.Cache.GetAs(ctx, cacheKeyPublishedApps, &cached)
	if err == nil && cached.Apps != nil {
		out = cached
		return
	}

	if err != nil && !errors.Is(err, cache.ErrKeyNotExist) {
		// log and then discard error, the database still serves
		ylog.Error(ctx, "published apps cache read error", ylog.KV("error", err))
	}
	err = nil

	outList, err := d.Config.AppRepo.ListPublished(ctx, apprepo.InputListPublished{})
	if err != nil {
		err = fmt.Errorf("list published apps error: %w", err)
		return
	}

	apps := make([]App, 0)
	for _, app := range outList.Apps {
		apps = append(apps, AppFromRepo(app))
	}

	out = OutListPublishedApps{
		Apps: apps,
	}

	if _err := d.Config.Cache.SetExp(ctx, cacheKeyPublishedApps, out, d.Config.CatalogTTL); _err != nil {
		ylog.Error(ctx, "published apps cache write error", ylog.KV("error", _err))
	}

	return
}

func (d *DefaultService) ListAppsForVendor(ctx context.Context, input InputListAppsForVendor) (out OutListAppsForVendor, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", apprepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, input.Vendor)
	if err != nil {
		return
	}

	// set to the default value
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 100
	}

	outList, err := d.Config.AppRepo.ListForVendor(ctx, apprepo.InputListForVendor{
		Vendor:  input.Vendor,
		Limit:   input.Limit,
		AfterID: input.AfterID,
	})
	if err != nil {
		err = fmt.Errorf("list apps of vendor %s error: %w", input.Vendor, err)
		return
	}

	apps := make([]App, 0)
	for _, app := range outList.Apps {
		apps = append(apps, AppFromRepo(app))
	}

	out = OutListAppsForVendor{
		Total: outList.Total,
		Limit: input.Limit,
		Apps:  apps,
	}

	return
}

// patchToColumns validates the decoded patch body and converts it to
// repo column values. All checks run before anything touches storage.
func patchToColumns(patch map[string]interface{}) (fields map[string]interface{}, err error) {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields = make(map[string]interface{}, len(keys))
	for _, key := range keys {
		if _, forbidden := forbiddenPatchFields[key]; forbidden {
			err = fmt.Errorf("%w: field %s cannot be updated", apprepo.ErrValidation, key)
			return
		}

		spec, ok := patchableFields[key]
		if !ok {
			err = fmt.Errorf("%w: unknown field %s", apprepo.ErrValidation, key)
			return
		}

		value := patch[key]
		switch spec.kind {
		case "bool":
			boolVal, isBool := value.(bool)
			if !isBool {
				err = fmt.Errorf("%w: field %s must be a boolean", apprepo.ErrValidation, key)
				return
			}

			fields[key] = boolVal

		case "json":
			raw, _err := jsonenc.Marshal(value)
			if _err != nil {
				err = fmt.Errorf("%w: field %s is not valid json: %s", apprepo.ErrValidation, key, _err)
				return
			}

			fields[key] = raw

		default:
			strVal, isStr := value.(string)
			if !isStr {
				err = fmt.Errorf("%w: field %s must be a string", apprepo.ErrValidation, key)
				return
			}

			if spec.rule != "" {
				if _err := validator.Var(strVal, spec.rule); _err != nil {
					err = fmt.Errorf("%w: field %s: %s", apprepo.ErrValidation, key, _err)
					return
				}
			}

			fields[key] = strVal
		}
	}

	return
}
