package userpool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/satori/uuid"
)

type inMemAccount struct {
	user     User
	password string
	// pending confirmation code issued by ForgotPassword
	resetCode string
}

// InMemory is a user pool kept in a map. For local development and tests.
// Tokens issued by Login are random strings resolvable via GetUserByToken.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[string]*inMemAccount
	tokens   map[string]string // access token -> email

	// FixedResetCode, when set, is used instead of a random code so
	// tests can complete the forgot password flow.
	FixedResetCode string
}

var _ Pool = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: map[string]*inMemAccount{},
		tokens:   map[string]string{},
	}
}

// Seed registers a user directly, bypassing sign up confirmation.
func (p *InMemory) Seed(user User, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user.IsServiceUser = serviceUserMark(user.Email)
	p.accounts[user.Email] = &inMemAccount{user: user, password: password}
}

func (p *InMemory) GetUserByToken(_ context.Context, accessToken string) (User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	email, ok := p.tokens[accessToken]
	if !ok {
		return User{}, fmt.Errorf("get user by token: %w", ErrNotAuthorized)
	}

	acc, ok := p.accounts[email]
	if !ok {
		return User{}, fmt.Errorf("get user by token: %w", ErrUserNotFound)
	}

	return acc.user, nil
}

func (p *InMemory) GetUser(_ context.Context, email string) (User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	acc, ok := p.accounts[email]
	if !ok {
		return User{}, fmt.Errorf("get user %s: %w", email, ErrUserNotFound)
	}

	return acc.user, nil
}

func (p *InMemory) SetUserVendors(_ context.Context, email string, vendors []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[email]
	if !ok {
		return fmt.Errorf("set vendors for %s: %w", email, ErrUserNotFound)
	}

	acc.user.Vendors = append([]string{}, vendors...)
	return nil
}

func (p *InMemory) ListUsersForVendor(_ context.Context, vendor string) ([]User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]User, 0)
	for _, acc := range p.accounts {
		if acc.user.HasVendor(vendor) {
			users = append(users, acc.user)
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (p *InMemory) CreateServiceUser(_ context.Context, email, password string, vendors []string) (User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return User{}, fmt.Errorf("create service user %s: %w", email, ErrUserExists)
	}

	user := User{
		Email:         email,
		Vendors:       append([]string{}, vendors...),
		IsServiceUser: true,
	}

	p.accounts[email] = &inMemAccount{user: user, password: password}
	return user, nil
}

func (p *InMemory) DeleteUser(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[email]; !ok {
		return fmt.Errorf("delete user %s: %w", email, ErrUserNotFound)
	}

	delete(p.accounts, email)
	return nil
}

func (p *InMemory) SignUp(_ context.Context, email, name, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return fmt.Errorf("sign up %s: %w", email, ErrUserExists)
	}

	user := User{
		Email: email,
		Name:  name,
	}

	p.accounts[email] = &inMemAccount{user: user, password: password}
	return nil
}

func (p *InMemory) Login(_ context.Context, email, password string) (Tokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[email]
	if !ok || acc.password != password {
		return Tokens{}, fmt.Errorf("login %s: %w", email, ErrNotAuthorized)
	}

	token := uuid.NewV4().String()
	p.tokens[token] = email

	tokens := Tokens{
		AccessToken: token,
		ExpiresIn:   3600,
		TokenType:   "Bearer",
	}

	return tokens, nil
}

func (p *InMemory) ForgotPassword(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[email]
	if !ok {
		return fmt.Errorf("forgot password %s: %w", email, ErrUserNotFound)
	}

	code := p.FixedResetCode
	if code == "" {
		code = uuid.NewV4().String()
	}

	acc.resetCode = code
	return nil
}

func (p *InMemory) ConfirmForgotPassword(_ context.Context, email, code, newPassword string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[email]
	if !ok {
		return fmt.Errorf("confirm forgot password %s: %w", email, ErrUserNotFound)
	}

	if acc.resetCode == "" || acc.resetCode != code {
		return fmt.Errorf("confirm forgot password %s: %w", email, ErrCodeMismatch)
	}

	acc.password = newPassword
	acc.resetCode = ""
	return nil
}
