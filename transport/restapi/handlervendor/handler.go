package handlervendor

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"

	"github.com/komponen/marketplace/internal/svc/vendorsvc"
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
	VendorService vendorsvc.Service `validate:"required"`
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

type CreateVendorReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

type VendorResp struct {
	Vendor vendorsvc.Vendor `json:"vendor"`
}

// CreateVendor registers a vendor account. The id is generated, the
// creator becomes the first member and approval waits for an admin.
// Path         : POST /vendors
// Request Body : CreateVendorReq
// Response     : VendorResp
func (h *Handler) CreateVendor() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody CreateVendorReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		createOut, err := h.Config.VendorService.CreateVendor(ctx, vendorsvc.InputCreateVendor{
			User:    userpool.MustExtract(ctx),
			Name:    reqBody.Name,
			Address: reqBody.Address,
			Email:   reqBody.Email,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, VendorResp{Vendor: createOut.Vendor})
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
	}

	return handler
}

// GetVendor returns one vendor by id.
// Path     : GET /vendors/{vendor}
// Response : VendorResp
func (h *Handler) GetVendor() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		getOut, err := h.Config.VendorService.GetVendor(ctx, vendorsvc.InputGetVendor{
			Vendor: chi.URLParam(r, "vendor"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, VendorResp{Vendor: getOut.Vendor})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ListVendorsQuery struct {
	Limit   int64  `schema:"limit"`
	AfterID string `schema:"after_id"`
}

type ListVendorsResp struct {
	Total   int64              `json:"total"`
	Limit   int64              `json:"limit"`
	Vendors []vendorsvc.Vendor `json:"vendors"`
}

// ListVendors pages through vendors ordered by id.
// Path     : GET /vendors?limit=10&after_id=...
// Response : ListVendorsResp
func (h *Handler) ListVendors() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query ListVendorsQuery
		err := queryDecoder.Decode(&query, r.URL.Query())
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		listOut, err := h.Config.VendorService.ListVendors(ctx, vendorsvc.InputListVendors{
			Limit:   query.Limit,
			AfterID: query.AfterID,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := ListVendorsResp{
			Total:   listOut.Total,
			Limit:   listOut.Limit,
			Vendors: listOut.Vendors,
		}
		if respBody.Vendors == nil {
			respBody.Vendors = []vendorsvc.Vendor{}
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// ApproveVendor marks the vendor approved. Only members of the
// reserved admin vendor may call it.
// Path     : POST /vendors/{vendor}/approve
// Response : VendorResp
func (h *Handler) ApproveVendor() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		approveOut, err := h.Config.VendorService.ApproveVendor(ctx, vendorsvc.InputApproveVendor{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, VendorResp{Vendor: approveOut.Vendor})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type InviteUserReq struct {
	Email string `json:"email"`
}

type InviteUserResp struct {
	Vendor   string `json:"vendor"`
	Email    string `json:"email"`
	MailSent bool   `json:"mail_sent"`
}

// InviteUser stores an invitation and mails the accept link. A failed
// mail is reported through mail_sent, the invitation still stands.
// Path         : POST /vendors/{vendor}/invitations
// Request Body : InviteUserReq
// Response     : InviteUserResp
func (h *Handler) InviteUser() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody InviteUserReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		inviteOut, err := h.Config.VendorService.InviteUser(ctx, vendorsvc.InputInviteUser{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			Email:  reqBody.Email,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := InviteUserResp{
			Vendor:   inviteOut.Vendor,
			Email:    inviteOut.Email,
			MailSent: inviteOut.MailSent,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
	}

	return handler
}

type AcceptInvitationResp struct {
	Vendor  string   `json:"vendor"`
	Email   string   `json:"email"`
	Vendors []string `json:"vendors"`
}

// AcceptInvitation consumes the invitation when the code matches and
// joins the invited user to the vendor. Reached from the mailed link,
// so it serves anonymous traffic.
// Path     : GET /vendors/{vendor}/invitations/{email}/{code}
// Response : AcceptInvitationResp
func (h *Handler) AcceptInvitation() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		acceptOut, err := h.Config.VendorService.AcceptInvitation(ctx, vendorsvc.InputAcceptInvitation{
			Vendor: chi.URLParam(r, "vendor"),
			Email:  chi.URLParam(r, "email"),
			Code:   chi.URLParam(r, "code"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := AcceptInvitationResp{
			Vendor:  acceptOut.Vendor,
			Email:   acceptOut.Email,
			Vendors: acceptOut.Vendors,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type AddUserReq struct {
	Email string `json:"email"`
}

type MembershipResp struct {
	Vendors []string `json:"vendors"`
}

// AddUser joins an existing pool user to the vendor directly, without
// the invitation roundtrip.
// Path         : POST /vendors/{vendor}/users
// Request Body : AddUserReq
// Response     : MembershipResp
func (h *Handler) AddUser() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody AddUserReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		addOut, err := h.Config.VendorService.AddUser(ctx, vendorsvc.InputAddUser{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			Email:  reqBody.Email,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, MembershipResp{Vendors: addOut.Vendors})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// RemoveUser drops the user's membership in the vendor.
// Path     : DELETE /vendors/{vendor}/users/{email}
// Response : MembershipResp
func (h *Handler) RemoveUser() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		removeOut, err := h.Config.VendorService.RemoveUser(ctx, vendorsvc.InputRemoveUser{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			Email:  chi.URLParam(r, "email"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, MembershipResp{Vendors: removeOut.Vendors})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type UserResp struct {
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	IsServiceUser bool   `json:"is_service_user"`
}

type ListUsersResp struct {
	Users []UserResp `json:"users"`
}

// ListUsers returns the members of the vendor, service users included.
// Path     : GET /vendors/{vendor}/users
// Response : ListUsersResp
func (h *Handler) ListUsers() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		listOut, err := h.Config.VendorService.ListUsers(ctx, vendorsvc.InputListUsers{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := ListUsersResp{Users: make([]UserResp, 0, len(listOut.Users))}
		for _, user := range listOut.Users {
			respBody.Users = append(respBody.Users, UserResp{
				Email:         user.Email,
				Name:          user.Name,
				IsServiceUser: user.IsServiceUser,
			})
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type CreateCredentialsReq struct {
	Name string `json:"name"`
}

// CreateCredentials issues a machine account "<vendor>+<name>" with a
// generated password. The password is shown once in this response.
// Path         : POST /vendors/{vendor}/credentials
// Request Body : CreateCredentialsReq
// Response     : vendorsvc.OutCreateCredentials
func (h *Handler) CreateCredentials() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody CreateCredentialsReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		credOut, err := h.Config.VendorService.CreateCredentials(ctx, vendorsvc.InputCreateCredentials{
			User:   userpool.MustExtract(ctx),
			Vendor: chi.URLParam(r, "vendor"),
			Name:   reqBody.Name,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, credOut)
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
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

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err != nil {
		resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
		respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
		return false
	}

	return true
}
