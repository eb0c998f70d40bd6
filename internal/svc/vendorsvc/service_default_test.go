package vendorsvc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/internal/mocks"
	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/inviterepo"
	"github.com/komponen/marketplace/internal/svc/vendorrepo"
	"github.com/komponen/marketplace/internal/svc/vendorsvc"
	"github.com/komponen/marketplace/pkg/userpool"
)

type fakeUID struct {
	next uint64
}

func (f *fakeUID) NextID() (uint64, error) {
	f.next++
	return f.next, nil
}

// statefulInviteRepo keeps invitations in a map keyed by vendor/email.
func statefulInviteRepo() *mocks.InviteRepo {
	store := map[string]inviterepo.Invitation{}
	repo := &mocks.InviteRepo{}

	repo.CreateFunc = func(ctx context.Context, in inviterepo.InputCreate) (inviterepo.OutCreate, error) {
		store[in.Invitation.Vendor+"/"+in.Invitation.Email] = in.Invitation
		return inviterepo.OutCreate{Invitation: in.Invitation}, nil
	}
	repo.GetFunc = func(ctx context.Context, in inviterepo.InputGet) (inviterepo.OutGet, error) {
		invitation, ok := store[in.Vendor+"/"+in.Email]
		if !ok {
			return inviterepo.OutGet{}, inviterepo.ErrNotFound
		}
		return inviterepo.OutGet{Invitation: invitation}, nil
	}
	repo.DeleteFunc = func(ctx context.Context, in inviterepo.InputDelete) (inviterepo.OutDelete, error) {
		_, ok := store[in.Vendor+"/"+in.Email]
		delete(store, in.Vendor+"/"+in.Email)
		return inviterepo.OutDelete{Success: ok}, nil
	}

	return repo
}

type deps struct {
	svc        vendorsvc.Service
	pool       *userpool.InMemory
	mail       *mocks.MailClient
	inviteRepo *mocks.InviteRepo
	vendorRepo *mocks.VendorRepo
}

func newService(t *testing.T) deps {
	pool := userpool.NewInMemory()
	mail := &mocks.MailClient{}
	inviteRepo := statefulInviteRepo()

	vendorRepo := &mocks.VendorRepo{
		CreateFunc: func(ctx context.Context, in vendorrepo.InputCreate) (vendorrepo.OutCreate, error) {
			return vendorrepo.OutCreate{Vendor: in.Vendor}, nil
		},
		ApproveFunc: func(ctx context.Context, in vendorrepo.InputApprove) (vendorrepo.OutApprove, error) {
			return vendorrepo.OutApprove{Vendor: vendorrepo.Vendor{ID: in.ID, IsApproved: true, UpdatedAt: in.UpdatedAt, CreatedAt: 1}}, nil
		},
	}

	checker, err := access.New(access.DefaultCheckerConfig{AppRepo: &mocks.AppRepo{}})
	assert.NoError(t, err)

	svc, err := vendorsvc.New(vendorsvc.DefaultServiceConfig{
		VendorRepo:    vendorRepo,
		InviteRepo:    inviteRepo,
		Pool:          pool,
		Mail:          mail,
		UIDGen:        &fakeUID{},
		Access:        checker,
		MailSender:    "noreply@marketplace.example.com",
		PublicBaseURL: "https://marketplace.example.com",
	})
	assert.NoError(t, err)

	return deps{svc: svc, pool: pool, mail: mail, inviteRepo: inviteRepo, vendorRepo: vendorRepo}
}

func TestCreateVendor(t *testing.T) {
	d := newService(t)
	d.pool.Seed(userpool.User{Email: "founder@example.com"}, "pw")

	out, err := d.svc.CreateVendor(context.Background(), vendorsvc.InputCreateVendor{
		User:  userpool.User{Email: "founder@example.com"},
		Name:  "Acme",
		Email: "contact@acme.example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, "_v1", out.Vendor.ID)
	assert.False(t, out.Vendor.IsApproved)

	founder, err := d.pool.GetUser(context.Background(), "founder@example.com")
	assert.NoError(t, err)
	assert.True(t, founder.HasVendor("_v1"))
}

func TestInvitationFlow(t *testing.T) {
	ctx := context.Background()
	member := userpool.User{Email: "dev@example.com", Vendors: []string{"_v1"}}

	t.Run("invite then accept with the mailed code", func(t *testing.T) {
		d := newService(t)
		d.pool.Seed(userpool.User{Email: "new@example.com"}, "pw")

		inviteOut, err := d.svc.InviteUser(ctx, vendorsvc.InputInviteUser{
			User:   member,
			Vendor: "_v1",
			Email:  "new@example.com",
		})
		assert.NoError(t, err)
		assert.True(t, inviteOut.MailSent)
		assert.Len(t, d.mail.Sent, 1)

		stored, err := d.inviteRepo.Get(ctx, inviterepo.InputGet{Vendor: "_v1", Email: "new@example.com"})
		assert.NoError(t, err)

		acceptOut, err := d.svc.AcceptInvitation(ctx, vendorsvc.InputAcceptInvitation{
			Vendor: "_v1",
			Email:  "new@example.com",
			Code:   stored.Invitation.Code,
		})
		assert.NoError(t, err)
		assert.Contains(t, acceptOut.Vendors, "_v1")

		// invitation is consumed
		_, err = d.inviteRepo.Get(ctx, inviterepo.InputGet{Vendor: "_v1", Email: "new@example.com"})
		assert.ErrorIs(t, err, inviterepo.ErrNotFound)

		joined, err := d.pool.GetUser(ctx, "new@example.com")
		assert.NoError(t, err)
		assert.True(t, joined.HasVendor("_v1"))
	})

	t.Run("wrong code changes nothing", func(t *testing.T) {
		d := newService(t)
		d.pool.Seed(userpool.User{Email: "new@example.com"}, "pw")

		_, err := d.svc.InviteUser(ctx, vendorsvc.InputInviteUser{
			User:   member,
			Vendor: "_v1",
			Email:  "new@example.com",
		})
		assert.NoError(t, err)

		_, err = d.svc.AcceptInvitation(ctx, vendorsvc.InputAcceptInvitation{
			Vendor: "_v1",
			Email:  "new@example.com",
			Code:   "wrong-code",
		})
		assert.ErrorIs(t, err, vendorrepo.ErrValidation)

		user, err := d.pool.GetUser(ctx, "new@example.com")
		assert.NoError(t, err)
		assert.False(t, user.HasVendor("_v1"))

		// invitation still stands for a retry with the right code
		_, err = d.inviteRepo.Get(ctx, inviterepo.InputGet{Vendor: "_v1", Email: "new@example.com"})
		assert.NoError(t, err)
	})

	t.Run("mail failure keeps the invitation row", func(t *testing.T) {
		d := newService(t)
		d.mail.SendErr = errors.New("smtp down")

		out, err := d.svc.InviteUser(ctx, vendorsvc.InputInviteUser{
			User:   member,
			Vendor: "_v1",
			Email:  "new@example.com",
		})
		assert.NoError(t, err)
		assert.False(t, out.MailSent)

		_, err = d.inviteRepo.Get(ctx, inviterepo.InputGet{Vendor: "_v1", Email: "new@example.com"})
		assert.NoError(t, err)
	})

	t.Run("non member cannot invite", func(t *testing.T) {
		d := newService(t)
		_, err := d.svc.InviteUser(ctx, vendorsvc.InputInviteUser{
			User:   userpool.User{Email: "other@example.com", Vendors: []string{"_v9"}},
			Vendor: "_v1",
			Email:  "new@example.com",
		})
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})
}

func TestRemoveUser(t *testing.T) {
	ctx := context.Background()
	d := newService(t)
	d.pool.Seed(userpool.User{Email: "leaver@example.com", Vendors: []string{"_v1", "_v2"}}, "pw")

	out, err := d.svc.RemoveUser(ctx, vendorsvc.InputRemoveUser{
		User:   userpool.User{Email: "dev@example.com", Vendors: []string{"_v1"}},
		Vendor: "_v1",
		Email:  "leaver@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"_v2"}, out.Vendors)
}

func TestCreateCredentials(t *testing.T) {
	ctx := context.Background()
	d := newService(t)

	out, err := d.svc.CreateCredentials(ctx, vendorsvc.InputCreateCredentials{
		User:   userpool.User{Email: "dev@example.com", Vendors: []string{"_v1"}},
		Vendor: "_v1",
		Name:   "ci",
	})
	assert.NoError(t, err)
	assert.Equal(t, "_v1+ci", out.Username)
	assert.NotEmpty(t, out.Password)

	svcUser, err := d.pool.GetUser(ctx, "_v1+ci")
	assert.NoError(t, err)
	assert.True(t, svcUser.IsServiceUser)
	assert.True(t, svcUser.HasVendor("_v1"))
}

func TestApproveVendor(t *testing.T) {
	ctx := context.Background()
	d := newService(t)

	t.Run("requires admin membership", func(t *testing.T) {
		_, err := d.svc.ApproveVendor(ctx, vendorsvc.InputApproveVendor{
			User:   userpool.User{Email: "dev@example.com", Vendors: []string{"_v1"}},
			Vendor: "_v1",
		})
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})

	t.Run("admin approves", func(t *testing.T) {
		out, err := d.svc.ApproveVendor(ctx, vendorsvc.InputApproveVendor{
			User:   userpool.User{Email: "root@example.com", Vendors: []string{"admin"}},
			Vendor: "_v1",
		})
		assert.NoError(t, err)
		assert.True(t, out.Vendor.IsApproved)
	})
}
