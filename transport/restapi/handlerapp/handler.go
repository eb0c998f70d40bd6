package handlerapp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	jsonenc "github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"

	"github.com/komponen/marketplace/internal/svc/appsvc"
	"github.com/komponen/marketplace/pkg/respbuilder"
	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/pkg/validator"
	"github.com/komponen/marketplace/transport/restapi/httperr"
)

var queryDecoder = func() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}()

type HandlerConfig struct {
	AppService appsvc.Service `validate:"required"`
}

type Handler struct {
	Config HandlerConfig
}

func NewHandler(conf HandlerConfig) (*Handler, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	return &Handler{Config: conf}, nil
}

type CreateAppReq struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`

	RepoType    string          `json:"repo_type"`
	RepoURI     string          `json:"repo_uri"`
	RepoTag     string          `json:"repo_tag"`
	RepoOptions json.RawMessage `json:"repo_options"`

	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`
	LicenseURL       string `json:"license_url"`
	DocumentationURL string `json:"documentation_url"`

	Encryption    bool `json:"encryption"`
	DefaultBucket bool `json:"default_bucket"`
	Fees          bool `json:"fees"`
	IsVisible     bool `json:"is_visible"`
	IsPublic      bool `json:"is_public"`

	Limits string `json:"limits"`
}

type AppResp struct {
	App appsvc.App `json:"app"`
}

// CreateApp registers a new app under the vendor. The final app id is
// "<vendor>.<id>" and the caller must be a member of the vendor.
// Path         : POST /vendors/{vendor}/apps
// Request Body : CreateAppReq
// Response     : AppResp
func (h *Handler) CreateApp() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody CreateAppReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		createOut, err := h.Config.AppService.CreateApp(ctx, appsvc.InputCreateApp{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),

			ID:   reqBody.ID,
			Name: reqBody.Name,
			Type: reqBody.Type,

			RepoType:    reqBody.RepoType,
			RepoURI:     reqBody.RepoURI,
			RepoTag:     reqBody.RepoTag,
			RepoOptions: reqBody.RepoOptions,

			ShortDescription: reqBody.ShortDescription,
			LongDescription:  reqBody.LongDescription,
			LicenseURL:       reqBody.LicenseURL,
			DocumentationURL: reqBody.DocumentationURL,

			Encryption:    reqBody.Encryption,
			DefaultBucket: reqBody.DefaultBucket,
			Fees:          reqBody.Fees,
			IsVisible:     reqBody.IsVisible,
			IsPublic:      reqBody.IsPublic,

			Limits: reqBody.Limits,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, AppResp{App: createOut.App})
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
	}

	return handler
}

// GetApp returns one app of the vendor, deleted ones included.
// Path     : GET /vendors/{vendor}/apps/{app_id}
// Response : AppResp
func (h *Handler) GetApp() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		getOut, err := h.Config.AppService.GetAppForVendor(ctx, appsvc.InputGetAppForVendor{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			AppID:  chi.URLParam(r, "app_id"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, AppResp{App: getOut.App})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// UpdateApp applies a partial update. The body is decoded as a raw
// map so the service can reject forbidden and unknown fields by name.
// Path         : PATCH /vendors/{vendor}/apps/{app_id}
// Request Body : JSON object of updatable fields
// Response     : AppResp
func (h *Handler) UpdateApp() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var patch map[string]interface{}
		if !decodeBody(w, r, &patch) {
			return
		}

		updateOut, err := h.Config.AppService.UpdateApp(ctx, appsvc.InputUpdateApp{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			AppID:  chi.URLParam(r, "app_id"),
			Patch:  patch,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, AppResp{App: updateOut.App})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type DeleteAppResp struct {
	Success bool       `json:"success"`
	App     appsvc.App `json:"app"`
}

// DeleteApp soft deletes the app. It disappears from the public
// catalog but stays readable through GetApp.
// Path     : DELETE /vendors/{vendor}/apps/{app_id}
// Response : DeleteAppResp
func (h *Handler) DeleteApp() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		deleteOut, err := h.Config.AppService.DeleteApp(ctx, appsvc.InputDeleteApp{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			AppID:  chi.URLParam(r, "app_id"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := DeleteAppResp{
			Success: deleteOut.Success,
			App:     deleteOut.App,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ListVendorAppsQuery struct {
	Limit   int64  `schema:"limit"`
	AfterID string `schema:"after_id"`
}

type ListVendorAppsResp struct {
	Total int64        `json:"total"`
	Limit int64        `json:"limit"`
	Apps  []appsvc.App `json:"apps"`
}

// ListVendorApps pages through the vendor's live apps ordered by id.
// Path     : GET /vendors/{vendor}/apps?limit=10&after_id=...
// Response : ListVendorAppsResp
func (h *Handler) ListVendorApps() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query ListVendorAppsQuery
		err := queryDecoder.Decode(&query, r.URL.Query())
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		listOut, err := h.Config.AppService.ListAppsForVendor(ctx, appsvc.InputListAppsForVendor{
			User:    userpool.MustExtract(ctx),
			Vendor:  chi.URLParam(r, "vendor"),
			Limit:   query.Limit,
			AfterID: query.AfterID,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := ListVendorAppsResp{
			Total: listOut.Total,
			Limit: listOut.Limit,
			Apps:  listOut.Apps,
		}
		if respBody.Apps == nil {
			respBody.Apps = []appsvc.App{}
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ListPublishedAppsResp struct {
	Apps []appsvc.App `json:"apps"`
}

// ListPublishedApps serves the anonymous catalog of public live apps.
// Path     : GET /apps
// Response : ListPublishedAppsResp
func (h *Handler) ListPublishedApps() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		listOut, err := h.Config.AppService.ListPublishedApps(ctx, appsvc.InputListPublishedApps{})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := ListPublishedAppsResp{Apps: listOut.Apps}
		if respBody.Apps == nil {
			respBody.Apps = []appsvc.App{}
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	ctx := r.Context()

	if r.Body == nil {
		err := fmt.Errorf("request body is nil")
		resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
		respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
		return false
	}

	defer func() {
		if _err := r.Body.Close(); _err != nil {
			ylog.Error(ctx, "cannot close request body", ylog.KV("error", _err))
		}
	}()

	dec := jsonenc.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err != nil {
		resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
		respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
		return false
	}

	return true
}
