package handlerauth

import (
	"fmt"
	"net/http"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"

	"github.com/komponen/marketplace/internal/svc/authsvc"
	"github.com/komponen/marketplace/pkg/respbuilder"
	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/pkg/validator"
	"github.com/komponen/marketplace/transport/restapi/httperr"
)

type HandlerConfig struct {
	AuthService authsvc.Service `validate:"required"`
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

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResp struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
}

// Login exchanges email and password for tokens.
// Path         : POST /auth/login
// Request Body : LoginReq
// Response     : LoginResp
func (h *Handler) Login() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody LoginReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		loginOut, err := h.Config.AuthService.Login(ctx, authsvc.InputLogin{
			Email:    reqBody.Email,
			Password: reqBody.Password,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		respBody := LoginResp{
			AccessToken:  loginOut.Tokens.AccessToken,
			IDToken:      loginOut.Tokens.IDToken,
			RefreshToken: loginOut.Tokens.RefreshToken,
			ExpiresIn:    loginOut.Tokens.ExpiresIn,
			TokenType:    loginOut.Tokens.TokenType,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type SignUpReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type SignUpResp struct {
	Email string `json:"email"`
}

// SignUp registers a new user in the pool.
// Path         : POST /auth/signup
// Request Body : SignUpReq
// Response     : SignUpResp
func (h *Handler) SignUp() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody SignUpReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		signUpOut, err := h.Config.AuthService.SignUp(ctx, authsvc.InputSignUp{
			Email:    reqBody.Email,
			Name:     reqBody.Name,
			Password: reqBody.Password,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, SignUpResp{Email: signUpOut.Email})
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
	}

	return handler
}

type ForgotPasswordReq struct {
	Email string `json:"email"`
}

type ForgotPasswordResp struct {
	Email string `json:"email"`
}

// ForgotPassword starts the reset flow, the pool mails the code.
// Path         : POST /auth/forgot
// Request Body : ForgotPasswordReq
// Response     : ForgotPasswordResp
func (h *Handler) ForgotPassword() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody ForgotPasswordReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		forgotOut, err := h.Config.AuthService.ForgotPassword(ctx, authsvc.InputForgotPassword{
			Email: reqBody.Email,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, ForgotPasswordResp{Email: forgotOut.Email})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ConfirmForgotPasswordReq struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type ConfirmForgotPasswordResp struct {
	Email string `json:"email"`
}

// ConfirmForgotPassword completes the reset flow with the mailed code.
// Path         : POST /auth/forgot/confirm
// Request Body : ConfirmForgotPasswordReq
// Response     : ConfirmForgotPasswordResp
func (h *Handler) ConfirmForgotPassword() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody ConfirmForgotPasswordReq
		if !decodeBody(w, r, &reqBody) {
			return
		}

		confirmOut, err := h.Config.AuthService.ConfirmForgotPassword(ctx, authsvc.InputConfirmForgotPassword{
			Email:       reqBody.Email,
			Code:        reqBody.Code,
			NewPassword: reqBody.NewPassword,
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		resp := respbuilder.Success(ctx, ConfirmForgotPasswordResp{Email: confirmOut.Email})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ProfileResp struct {
	Email         string   `json:"email"`
	Name          string   `json:"name,omitempty"`
	Vendors       []string `json:"vendors"`
	IsServiceUser bool     `json:"is_service_user"`
}

// Profile returns the authenticated caller.
// Path     : GET /auth/profile
// Response : ProfileResp
func (h *Handler) Profile() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		profileOut, err := h.Config.AuthService.Profile(ctx, authsvc.InputProfile{
			User: userpool.MustExtract(ctx),
		})
		if err != nil {
			httperr.Write(ctx, w, r, err)
			return
		}

		user := profileOut.User
		respBody := ProfileResp{
			Email:         user.Email,
			Name:          user.Name,
			Vendors:       user.Vendors,
			IsServiceUser: user.IsServiceUser,
		}
		if respBody.Vendors == nil {
			respBody.Vendors = []string{}
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// decodeBody reads the JSON request body into dst, writing the error
// response itself when the body is absent or malformed.
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
