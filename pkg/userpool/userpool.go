package userpool

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrNotAuthorized = errors.New("not authorized")
	ErrCodeMismatch  = errors.New("confirmation code mismatch")
)

// User is an identity from the user pool. Vendors holds the vendor ids
// the user is a member of.
type User struct {
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Vendors       []string `json:"vendors"`
	IsServiceUser bool     `json:"is_service_user"`
}

// HasVendor reports membership without caring about order.
func (u User) HasVendor(vendor string) bool {
	for _, v := range u.Vendors {
		if v == vendor {
			return true
		}
	}

	return false
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
}

// Pool is the identity backend. All mutating calls are admin calls,
// authorization is decided by the caller.
type Pool interface {
	// GetUserByToken resolves the user owning an access token.
	GetUserByToken(ctx context.Context, accessToken string) (User, error)

	GetUser(ctx context.Context, email string) (User, error)

	// SetUserVendors replaces the whole vendor membership list.
	SetUserVendors(ctx context.Context, email string, vendors []string) error

	ListUsersForVendor(ctx context.Context, vendor string) ([]User, error)

	// CreateServiceUser creates a confirmed user with a permanent password
	// and no welcome mail.
	CreateServiceUser(ctx context.Context, email, password string, vendors []string) (User, error)

	DeleteUser(ctx context.Context, email string) error

	SignUp(ctx context.Context, email, name, password string) error

	Login(ctx context.Context, email, password string) (Tokens, error)

	ForgotPassword(ctx context.Context, email string) error

	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
}

// serviceUserMark detects service accounts by the plus part in the
// local address, i.e. vendor+credname@host.
func serviceUserMark(email string) bool {
	at := strings.Index(email, "@")
	if at < 0 {
		return strings.Contains(email, "+")
	}

	return strings.Contains(email[:at], "+")
}

type userCtxKeyType string

const userCtxKey userCtxKeyType = "userPoolIdentity"

func Inject(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

func Extract(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userCtxKey).(User)
	return user, ok
}

// MustExtract returns the zero User when none is injected.
func MustExtract(ctx context.Context) User {
	user, _ := Extract(ctx)
	return user
}
