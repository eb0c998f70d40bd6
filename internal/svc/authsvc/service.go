package authsvc

import (
	"context"

	"github.com/komponen/marketplace/pkg/userpool"
)

// Service is the self service auth surface: login, signup and the
// password reset flow. Everything delegates to the user pool, this
// layer only validates input shape.
type Service interface {
	Login(ctx context.Context, input InputLogin) (out OutLogin, err error)
	SignUp(ctx context.Context, input InputSignUp) (out OutSignUp, err error)
	ForgotPassword(ctx context.Context, input InputForgotPassword) (out OutForgotPassword, err error)
	ConfirmForgotPassword(ctx context.Context, input InputConfirmForgotPassword) (out OutConfirmForgotPassword, err error)
	Profile(ctx context.Context, input InputProfile) (out OutProfile, err error)
}

type InputLogin struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type OutLogin struct {
	Tokens userpool.Tokens
}

type InputSignUp struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required"`
	Password string `validate:"required,min=8"`
}

type OutSignUp struct {
	Email string
}

type InputForgotPassword struct {
	Email string `validate:"required,email"`
}

type OutForgotPassword struct {
	Email string
}

type InputConfirmForgotPassword struct {
	Email       string `validate:"required,email"`
	Code        string `validate:"required"`
	NewPassword string `validate:"required,min=8"`
}

type OutConfirmForgotPassword struct {
	Email string
}

type InputProfile struct {
	User userpool.User `validate:"required"`
}

type OutProfile struct {
	User userpool.User
}
