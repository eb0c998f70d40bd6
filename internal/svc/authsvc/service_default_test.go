package authsvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/internal/svc/authsvc"
	"github.com/komponen/marketplace/pkg/userpool"
)

func newService(t *testing.T) (authsvc.Service, *userpool.InMemory) {
	pool := userpool.NewInMemory()
	svc, err := authsvc.New(authsvc.DefaultServiceConfig{Pool: pool})
	assert.NoError(t, err)
	return svc, pool
}

func TestLoginSignUp(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.SignUp(ctx, authsvc.InputSignUp{
		Email:    "dev@example.com",
		Name:     "Dev",
		Password: "password123",
	})
	assert.NoError(t, err)

	t.Run("correct password logs in", func(t *testing.T) {
		out, err := svc.Login(ctx, authsvc.InputLogin{Email: "dev@example.com", Password: "password123"})
		assert.NoError(t, err)
		assert.NotEmpty(t, out.Tokens.AccessToken)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, authsvc.InputLogin{Email: "dev@example.com", Password: "nope-nope"})
		assert.ErrorIs(t, err, userpool.ErrNotAuthorized)
	})

	t.Run("duplicate signup is rejected", func(t *testing.T) {
		_, err := svc.SignUp(ctx, authsvc.InputSignUp{
			Email:    "dev@example.com",
			Name:     "Dev",
			Password: "password123",
		})
		assert.ErrorIs(t, err, userpool.ErrUserExists)
	})
}

func TestForgotPasswordFlow(t *testing.T) {
	ctx := context.Background()
	svc, pool := newService(t)
	pool.FixedResetCode = "123456"
	pool.Seed(userpool.User{Email: "dev@example.com"}, "oldpassword")

	_, err := svc.ForgotPassword(ctx, authsvc.InputForgotPassword{Email: "dev@example.com"})
	assert.NoError(t, err)

	t.Run("wrong code keeps the old password", func(t *testing.T) {
		_, err := svc.ConfirmForgotPassword(ctx, authsvc.InputConfirmForgotPassword{
			Email:       "dev@example.com",
			Code:        "999999",
			NewPassword: "newpassword",
		})
		assert.ErrorIs(t, err, userpool.ErrCodeMismatch)

		_, err = svc.Login(ctx, authsvc.InputLogin{Email: "dev@example.com", Password: "oldpassword"})
		assert.NoError(t, err)
	})

	t.Run("correct code sets the new password", func(t *testing.T) {
		_, err := svc.ConfirmForgotPassword(ctx, authsvc.InputConfirmForgotPassword{
			Email:       "dev@example.com",
			Code:        "123456",
			NewPassword: "newpassword",
		})
		assert.NoError(t, err)

		_, err = svc.Login(ctx, authsvc.InputLogin{Email: "dev@example.com", Password: "newpassword"})
		assert.NoError(t, err)

		_, err = svc.Login(ctx, authsvc.InputLogin{Email: "dev@example.com", Password: "oldpassword"})
		assert.ErrorIs(t, err, userpool.ErrNotAuthorized)
	})
}
