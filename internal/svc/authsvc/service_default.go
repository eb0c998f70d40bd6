package authsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/pkg/validator"
)

var ErrValidation = errors.New("validation error")

type DefaultServiceConfig struct {
	Pool userpool.Pool `validate:"required"`
}

type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func New(dep DefaultServiceConfig) (*DefaultService, error) {
	if err := validator.Validate(dep); err != nil {
		return nil, err
	}

	return &DefaultService{
		Config: dep,
	}, nil
}

func (d *DefaultService) Login(ctx context.Context, input InputLogin) (out OutLogin, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	tokens, err := d.Config.Pool.Login(ctx, input.Email, input.Password)
	if err != nil {
		return
	}

	out = OutLogin{
		Tokens: tokens,
	}
	return
}

func (d *DefaultService) SignUp(ctx context.Context, input InputSignUp) (out OutSignUp, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	err = d.Config.Pool.SignUp(ctx, input.Email, input.Name, input.Password)
	if err != nil {
		return
	}

	out = OutSignUp{
		Email: input.Email,
	}
	return
}

func (d *DefaultService) ForgotPassword(ctx context.Context, input InputForgotPassword) (out OutForgotPassword, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	err = d.Config.Pool.ForgotPassword(ctx, input.Email)
	if err != nil {
		return
	}

	out = OutForgotPassword{
		Email: input.Email,
	}
	return
}

func (d *DefaultService) ConfirmForgotPassword(ctx context.Context, input InputConfirmForgotPassword) (out OutConfirmForgotPassword, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	err = d.Config.Pool.ConfirmForgotPassword(ctx, input.Email, input.Code, input.NewPassword)
	if err != nil {
		return
	}

	out = OutConfirmForgotPassword{
		Email: input.Email,
	}
	return
}

func (d *DefaultService) Profile(_ context.Context, input InputProfile) (out OutProfile, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	out = OutProfile{
		User: input.User,
	}
	return
}
