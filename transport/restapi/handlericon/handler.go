package handlericon

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"

	"github.com/komponen/marketplace/internal/svc/iconsvc"
	"github.com/komponen/marketplace/pkg/respbuilder"
	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/pkg/validator"
	"github.com/komponen/marketplace/transport/restapi/httperr"
)

type HandlerConfig struct {
	IconService iconsvc.Service `validate:"required"`

	// Bucket is the bucket icons live in, events for any other bucket
	// are rejected.
	Bucket string `validate:"required"`
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

// GetUploadLink issues a signed URL the vendor uploads the raw icon
// to. The actual processing happens when the storage event arrives.
// Path     : POST /vendors/{vendor}/apps/{app_id}/icon
// Response : iconsvc.OutGetUploadLink
func (h *Handler) GetUploadLink() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		linkOut, err := h.Config.IconService.GetUploadLink(ctx, iconsvc.InputGetUploadLink{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			AppID:  chi.URLParam(r, "app_id"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, linkOut)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type UploadEventReq struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// UploadEvent is the object storage notification hook. The app id is
// carved out of the staged object key "icons/<app_id>/upload.png".
// Path         : POST /events/icons
// Request Body : UploadEventReq
// Response     : iconsvc.OutUpload
func (h *Handler) UploadEvent() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody UploadEventReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		if reqBody.Bucket != h.Config.Bucket {
			err := fmt.Errorf("bucket %q is not the icon bucket", reqBody.Bucket)
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		appID, err := appIDFromKey(reqBody.Key)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		uploadOut, err := h.Config.IconService.Upload(ctx, iconsvc.InputUpload{
			AppID:     appID,
			SourceKey: reqBody.Key,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, uploadOut)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

func appIDFromKey(key string) (string, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != "icons" || parts[1] == "" || parts[2] != "upload.png" {
		return "", fmt.Errorf("object key %q is not a staged icon", key)
	}

	return parts[1], nil
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

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err != nil {
		resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
		respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
		return false
	}

	return true
}
