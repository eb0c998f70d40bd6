package userpool

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/komponen/marketplace/pkg/validator"
)

// Vendor membership lives in the standard "profile" attribute as a
// comma separated list, so no custom attribute schema is required on
// the pool.
const attrVendors = "profile"

type CognitoConfig struct {
	Region          string `yaml:"region" validate:"required"`
	UserPoolID      string `yaml:"userPoolId" validate:"required"`
	ClientID        string `yaml:"clientId" validate:"required"`
	ClientSecret    string `yaml:"clientSecret" validate:"-"`
	AccessKeyID     string `yaml:"accessKeyId" validate:"-"`
	SecretAccessKey string `yaml:"secretAccessKey" validate:"-"`
}

type Cognito struct {
	conf   CognitoConfig
	client *cognito.Client
}

var _ Pool = (*Cognito)(nil)

func NewCognito(ctx context.Context, conf CognitoConfig) (*Cognito, error) {
	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("cognito config error: %w", err)
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(conf.Region),
	}

	if conf.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		err = fmt.Errorf("load aws config error: %w", err)
		return nil, err
	}

	pool := &Cognito{
		conf:   conf,
		client: cognito.NewFromConfig(awsCfg),
	}

	return pool, nil
}

func (c *Cognito) GetUserByToken(ctx context.Context, accessToken string) (user User, err error) {
	out, err := c.client.GetUser(ctx, &cognito.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		err = mapCognitoErr("get user by token", err)
		return
	}

	user = userFromAttributes(aws.ToString(out.Username), out.UserAttributes)
	return
}

func (c *Cognito) GetUser(ctx context.Context, email string) (user User, err error) {
	out, err := c.client.AdminGetUser(ctx, &cognito.AdminGetUserInput{
		UserPoolId: aws.String(c.conf.UserPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("get user %s", email), err)
		return
	}

	user = userFromAttributes(aws.ToString(out.Username), out.UserAttributes)
	return
}

func (c *Cognito) SetUserVendors(ctx context.Context, email string, vendors []string) (err error) {
	_, err = c.client.AdminUpdateUserAttributes(ctx, &cognito.AdminUpdateUserAttributesInput{
		UserPoolId: aws.String(c.conf.UserPoolID),
		Username:   aws.String(email),
		UserAttributes: []types.AttributeType{
			{
				Name:  aws.String(attrVendors),
				Value: aws.String(strings.Join(vendors, ",")),
			},
		},
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("set vendors for %s", email), err)
		return
	}

	return
}

func (c *Cognito) ListUsersForVendor(ctx context.Context, vendor string) (users []User, err error) {
	// Cognito cannot filter on the profile attribute server side,
	// so list everything and filter here.
	var paginationToken *string
	for {
		var out *cognito.ListUsersOutput
		out, err = c.client.ListUsers(ctx, &cognito.ListUsersInput{
			UserPoolId:      aws.String(c.conf.UserPoolID),
			PaginationToken: paginationToken,
		})
		if err != nil {
			err = mapCognitoErr("list users", err)
			return
		}

		for _, u := range out.Users {
			user := userFromAttributes(aws.ToString(u.Username), u.Attributes)
			if user.HasVendor(vendor) {
				users = append(users, user)
			}
		}

		if out.PaginationToken == nil {
			break
		}

		paginationToken = out.PaginationToken
	}

	return
}

func (c *Cognito) CreateServiceUser(ctx context.Context, email, password string, vendors []string) (user User, err error) {
	_, err = c.client.AdminCreateUser(ctx, &cognito.AdminCreateUserInput{
		UserPoolId:    aws.String(c.conf.UserPoolID),
		Username:      aws.String(email),
		MessageAction: types.MessageActionTypeSuppress,
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
			{Name: aws.String(attrVendors), Value: aws.String(strings.Join(vendors, ","))},
		},
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("create service user %s", email), err)
		return
	}

	_, err = c.client.AdminSetUserPassword(ctx, &cognito.AdminSetUserPasswordInput{
		UserPoolId: aws.String(c.conf.UserPoolID),
		Username:   aws.String(email),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("set password for service user %s", email), err)
		return
	}

	user = User{
		Email:         email,
		Vendors:       vendors,
		IsServiceUser: true,
	}

	return
}

func (c *Cognito) DeleteUser(ctx context.Context, email string) (err error) {
	_, err = c.client.AdminDeleteUser(ctx, &cognito.AdminDeleteUserInput{
		UserPoolId: aws.String(c.conf.UserPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("delete user %s", email), err)
		return
	}

	return
}

func (c *Cognito) SignUp(ctx context.Context, email, name, password string) (err error) {
	_, err = c.client.SignUp(ctx, &cognito.SignUpInput{
		ClientId:   aws.String(c.conf.ClientID),
		SecretHash: c.secretHash(email),
		Username:   aws.String(email),
		Password:   aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
			{Name: aws.String(attrVendors), Value: aws.String("")},
		},
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("sign up %s", email), err)
		return
	}

	return
}

func (c *Cognito) Login(ctx context.Context, email, password string) (tokens Tokens, err error) {
	authParams := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}

	if hash := c.secretHash(email); hash != nil {
		authParams["SECRET_HASH"] = aws.ToString(hash)
	}

	out, err := c.client.AdminInitiateAuth(ctx, &cognito.AdminInitiateAuthInput{
		UserPoolId:     aws.String(c.conf.UserPoolID),
		ClientId:       aws.String(c.conf.ClientID),
		AuthFlow:       types.AuthFlowTypeAdminUserPasswordAuth,
		AuthParameters: authParams,
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("login %s", email), err)
		return
	}

	if out.AuthenticationResult == nil {
		err = fmt.Errorf("login %s: %w", email, ErrNotAuthorized)
		return
	}

	res := out.AuthenticationResult
	tokens = Tokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
		TokenType:    aws.ToString(res.TokenType),
	}

	return
}

func (c *Cognito) ForgotPassword(ctx context.Context, email string) (err error) {
	_, err = c.client.ForgotPassword(ctx, &cognito.ForgotPasswordInput{
		ClientId:   aws.String(c.conf.ClientID),
		SecretHash: c.secretHash(email),
		Username:   aws.String(email),
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("forgot password %s", email), err)
		return
	}

	return
}

func (c *Cognito) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) (err error) {
	_, err = c.client.ConfirmForgotPassword(ctx, &cognito.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.conf.ClientID),
		SecretHash:       c.secretHash(email),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		err = mapCognitoErr(fmt.Sprintf("confirm forgot password %s", email), err)
		return
	}

	return
}

// secretHash is HMAC-SHA256(username + clientId, clientSecret) as
// required when the app client has a secret. Nil when no secret is set.
func (c *Cognito) secretHash(username string) *string {
	if c.conf.ClientSecret == "" {
		return nil
	}

	mac := hmac.New(sha256.New, []byte(c.conf.ClientSecret))
	mac.Write([]byte(username + c.conf.ClientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func userFromAttributes(username string, attrs []types.AttributeType) User {
	user := User{
		Email: username,
	}

	for _, attr := range attrs {
		switch aws.ToString(attr.Name) {
		case "email":
			user.Email = aws.ToString(attr.Value)
		case "name":
			user.Name = aws.ToString(attr.Value)
		case attrVendors:
			raw := aws.ToString(attr.Value)
			if raw == "" {
				continue
			}

			user.Vendors = strings.Split(raw, ",")
		}
	}

	user.IsServiceUser = serviceUserMark(user.Email)
	return user
}

func mapCognitoErr(op string, err error) error {
	var userNotFound *types.UserNotFoundException
	if errors.As(err, &userNotFound) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var userExists *types.UsernameExistsException
	if errors.As(err, &userExists) {
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	}

	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%s: %w", op, ErrNotAuthorized)
	}

	var codeMismatch *types.CodeMismatchException
	if errors.As(err, &codeMismatch) {
		return fmt.Errorf("%s: %w", op, ErrCodeMismatch)
	}

	var expiredCode *types.ExpiredCodeException
	if errors.As(err, &expiredCode) {
		return fmt.Errorf("%s: %w", op, ErrCodeMismatch)
	}

	return fmt.Errorf("%s: %w", op, err)
}
