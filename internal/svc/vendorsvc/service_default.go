package vendorsvc

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/ylog"

	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/inviterepo"
	"github.com/komponen/marketplace/internal/svc/vendorrepo"
	"github.com/komponen/marketplace/pkg/mailclient"
	"github.com/komponen/marketplace/pkg/uid"
	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/pkg/validator"
)

// adminVendor is the reserved membership granting platform admin
// rights, i.e. vendor approval.
const adminVendor = "admin"

type DefaultServiceConfig struct {
	VendorRepo vendorrepo.Repo   `validate:"required"`
	InviteRepo inviterepo.Repo   `validate:"required"`
	Pool       userpool.Pool     `validate:"required"`
	Mail       mailclient.Client `validate:"required"`
	UIDGen     uid.UID           `validate:"required"`
	Access     access.Checker    `validate:"required"`

	// MailSender is the from address on invitation mails.
	MailSender string `validate:"required,email"`

	// PublicBaseURL prefixes the accept link in invitation mails.
	PublicBaseURL string `validate:"required,url"`
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

func (d *DefaultService) CreateVendor(ctx context.Context, input InputCreateVendor) (out OutCreateVendor, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	nextID, err := d.Config.UIDGen.NextID()
	if err != nil {
		err = fmt.Errorf("cannot get next id: %w", err)
		return
	}

	now := time.Now().UTC()
	vendorInput := vendorrepo.Vendor{
		ID:        fmt.Sprintf("_v%d", nextID),
		Name:      input.Name,
		Address:   input.Address,
		Email:     input.Email,
		CreatedAt: now.UnixMicro(),
		UpdatedAt: now.UnixMicro(),
	}

	vendorOut, err := d.Config.VendorRepo.Create(ctx, vendorrepo.InputCreate{
		Vendor: vendorInput,
	})
	if err != nil {
		return
	}

	// the creator becomes the first member
	_, err = d.addMembership(ctx, input.User.Email, vendorOut.Vendor.ID)
	if err != nil {
		err = fmt.Errorf("vendor %s created but membership of creator failed: %w", vendorOut.Vendor.ID, err)
		return
	}

	out = OutCreateVendor{
		Vendor: VendorFromRepo(vendorOut.Vendor),
	}
	return
}

func (d *DefaultService) GetVendor(ctx context.Context, input InputGetVendor) (out OutGetVendor, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	vendorOut, err := d.Config.VendorRepo.Get(ctx, vendorrepo.InputGet{ID: input.Vendor})
	if err != nil {
		return
	}

	out = OutGetVendor{
		Vendor: VendorFromRepo(vendorOut.Vendor),
	}
	return
}

func (d *DefaultService) ListVendors(ctx context.Context, input InputListVendors) (out OutListVendors, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	// set to the default value
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 100
	}

	listOut, err := d.Config.VendorRepo.List(ctx, vendorrepo.InputList{
		Limit:   input.Limit,
		AfterID: input.AfterID,
	})
	if err != nil {
		err = fmt.Errorf("list vendors error: %w", err)
		return
	}

	vendors := make([]Vendor, 0)
	for _, vendor := range listOut.Vendors {
		vendors = append(vendors, VendorFromRepo(vendor))
	}

	out = OutListVendors{
		Total:   listOut.Total,
		Limit:   input.Limit,
		Vendors: vendors,
	}
	return
}

func (d *DefaultService) ApproveVendor(ctx context.Context, input InputApproveVendor) (out OutApproveVendor, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, adminVendor)
	if err != nil {
		return
	}

	approveOut, err := d.Config.VendorRepo.Approve(ctx, vendorrepo.InputApprove{
		ID:        input.Vendor,
		UpdatedAt: time.Now().UTC().UnixMicro(),
	})
	if err != nil {
		return
	}

	out = OutApproveVendor{
		Vendor: VendorFromRepo(approveOut.Vendor),
	}
	return
}

// InviteUser stores the invitation first, then mails the accept link.
// A failing mail does not undo the stored invitation, the code can
// still be delivered out of band.
func (d *DefaultService) InviteUser(ctx context.Context, input InputInviteUser) (out OutInviteUser, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, input.Vendor)
	if err != nil {
		return
	}

	code := uuid.NewV4().String()
	createOut, err := d.Config.InviteRepo.Create(ctx, inviterepo.InputCreate{
		Invitation: inviterepo.Invitation{
			Vendor:    input.Vendor,
			Email:     input.Email,
			Code:      code,
			CreatedAt: time.Now().UTC().UnixMicro(),
		},
	})
	if err != nil {
		return
	}

	invitation := createOut.Invitation
	mailSent := true
	mailErr := d.Config.Mail.Send(ctx, mailclient.Mail{
		SenderAddr: d.Config.MailSender,
		To:         invitation.Email,
		Subject:    fmt.Sprintf("Invitation to join vendor %s", invitation.Vendor),
		Body: fmt.Sprintf(
			"You have been invited to join vendor %s.\r\nOpen %s/vendors/%s/invitations/%s/%s to accept.",
			invitation.Vendor, d.Config.PublicBaseURL, invitation.Vendor, invitation.Email, invitation.Code,
		),
	})
	if mailErr != nil {
		// log and then discard error, the invitation row stands
		ylog.Error(ctx, "invitation mail error", ylog.KV("error", mailErr), ylog.KV("email", invitation.Email))
		mailSent = false
	}

	out = OutInviteUser{
		Vendor:   invitation.Vendor,
		Email:    invitation.Email,
		MailSent: mailSent,
	}
	return
}

func (d *DefaultService) AcceptInvitation(ctx context.Context, input InputAcceptInvitation) (out OutAcceptInvitation, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	getOut, err := d.Config.InviteRepo.Get(ctx, inviterepo.InputGet{
		Vendor: input.Vendor,
		Email:  input.Email,
	})
	if err != nil {
		return
	}

	if subtle.ConstantTimeCompare([]byte(getOut.Invitation.Code), []byte(input.Code)) != 1 {
		err = fmt.Errorf("%w: invitation code does not match", vendorrepo.ErrValidation)
		return
	}

	vendors, err := d.addMembership(ctx, input.Email, input.Vendor)
	if err != nil {
		return
	}

	_, err = d.Config.InviteRepo.Delete(ctx, inviterepo.InputDelete{
		Vendor: input.Vendor,
		Email:  input.Email,
	})
	if err != nil {
		err = fmt.Errorf("membership added but invitation cleanup failed: %w", err)
		return
	}

	out = OutAcceptInvitation{
		Vendor:  input.Vendor,
		Email:   input.Email,
		Vendors: vendors,
	}
	return
}

func (d *DefaultService) AddUser(ctx context.Context, input InputAddUser) (out OutAddUser, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, input.Vendor)
	if err != nil {
		return
	}

	vendors, err := d.addMembership(ctx, input.Email, input.Vendor)
	if err != nil {
		return
	}

	out = OutAddUser{
		Vendors: vendors,
	}
	return
}

func (d *DefaultService) RemoveUser(ctx context.Context, input InputRemoveUser) (out OutRemoveUser, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, input.Vendor)
	if err != nil {
		return
	}

	target, err := d.Config.Pool.GetUser(ctx, input.Email)
	if err != nil {
		return
	}

	vendors := make([]string, 0, len(target.Vendors))
	for _, vendor := range target.Vendors {
		if vendor != input.Vendor {
			vendors = append(vendors, vendor)
		}
	}

	err = d.Config.Pool.SetUserVendors(ctx, input.Email, vendors)
	if err != nil {
		return
	}

	out = OutRemoveUser{
		Vendors: vendors,
	}
	return
}

func (d *DefaultService) ListUsers(ctx context.Context, input InputListUsers) (out OutListUsers, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, input.Vendor)
	if err != nil {
		return
	}

	users, err := d.Config.Pool.ListUsersForVendor(ctx, input.Vendor)
	if err != nil {
		return
	}

	out = OutListUsers{
		Users: users,
	}
	return
}

// CreateCredentials provisions a service account named after the
// vendor, i.e. "_v1+ci". The generated password is returned exactly
// once and never stored here.
func (d *DefaultService) CreateCredentials(ctx context.Context, input InputCreateCredentials) (out OutCreateCredentials, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("%w: %s", vendorrepo.ErrValidation, err)
		return
	}

	err = d.Config.Access.CheckVendor(input.User, input.Vendor)
	if err != nil {
		return
	}

	username := fmt.Sprintf("%s+%s", input.Vendor, input.Name)
	password := fmt.Sprintf("%s!aA1", uuid.NewV4().String())

	_, err = d.Config.Pool.CreateServiceUser(ctx, username, password, []string{input.Vendor})
	if err != nil {
		return
	}

	out = OutCreateCredentials{
		Username: username,
		Password: password,
	}
	return
}

// addMembership adds vendor to the user's membership set, reading the
// current set from the pool first so concurrent logins never see a
// truncated list.
func (d *DefaultService) addMembership(ctx context.Context, email, vendor string) (vendors []string, err error) {
	user, err := d.Config.Pool.GetUser(ctx, email)
	if err != nil {
		return
	}

	if user.HasVendor(vendor) {
		vendors = user.Vendors
		return
	}

	vendors = append(user.Vendors, vendor)
	err = d.Config.Pool.SetUserVendors(ctx, email, vendors)
	if err != nil {
		return
	}

	return
}
