// Package mocks holds hand written fakes for the service layer tests.
// Each fake exposes function fields so tests override only the calls
// they care about; unset calls return zero values.
package mocks

import (
	"context"

	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/internal/svc/inviterepo"
	"github.com/komponen/marketplace/internal/svc/vendorrepo"
	"github.com/komponen/marketplace/pkg/mailclient"
)

type AppRepo struct {
	CreateFunc         func(ctx context.Context, in apprepo.InputCreate) (apprepo.OutCreate, error)
	GetByIDFunc        func(ctx context.Context, in apprepo.InputGetByID) (apprepo.OutGetByID, error)
	UpdateFunc         func(ctx context.Context, in apprepo.InputUpdate) (apprepo.OutUpdate, error)
	SoftDeleteFunc     func(ctx context.Context, in apprepo.InputSoftDelete) (apprepo.OutSoftDelete, error)
	ListPublishedFunc  func(ctx context.Context, in apprepo.InputListPublished) (apprepo.OutListPublished, error)
	ListForVendorFunc  func(ctx context.Context, in apprepo.InputListForVendor) (apprepo.OutListForVendor, error)
	GetVendorOfAppFunc func(ctx context.Context, in apprepo.InputGetVendorOfApp) (apprepo.OutGetVendorOfApp, error)
	AddIconFunc        func(ctx context.Context, in apprepo.InputAddIcon) (apprepo.OutAddIcon, error)
}

var _ apprepo.Repo = (*AppRepo)(nil)

func (m *AppRepo) Create(ctx context.Context, in apprepo.InputCreate) (apprepo.OutCreate, error) {
	if m.CreateFunc == nil {
		return apprepo.OutCreate{}, nil
	}
	return m.CreateFunc(ctx, in)
}

func (m *AppRepo) GetByID(ctx context.Context, in apprepo.InputGetByID) (apprepo.OutGetByID, error) {
	if m.GetByIDFunc == nil {
		return apprepo.OutGetByID{}, nil
	}
	return m.GetByIDFunc(ctx, in)
}

func (m *AppRepo) Update(ctx context.Context, in apprepo.InputUpdate) (apprepo.OutUpdate, error) {
	if m.UpdateFunc == nil {
		return apprepo.OutUpdate{}, nil
	}
	return m.UpdateFunc(ctx, in)
}

func (m *AppRepo) SoftDelete(ctx context.Context, in apprepo.InputSoftDelete) (apprepo.OutSoftDelete, error) {
	if m.SoftDeleteFunc == nil {
		return apprepo.OutSoftDelete{}, nil
	}
	return m.SoftDeleteFunc(ctx, in)
}

func (m *AppRepo) ListPublished(ctx context.Context, in apprepo.InputListPublished) (apprepo.OutListPublished, error) {
	if m.ListPublishedFunc == nil {
		return apprepo.OutListPublished{}, nil
	}
	return m.ListPublishedFunc(ctx, in)
}

func (m *AppRepo) ListForVendor(ctx context.Context, in apprepo.InputListForVendor) (apprepo.OutListForVendor, error) {
	if m.ListForVendorFunc == nil {
		return apprepo.OutListForVendor{}, nil
	}
	return m.ListForVendorFunc(ctx, in)
}

func (m *AppRepo) GetVendorOfApp(ctx context.Context, in apprepo.InputGetVendorOfApp) (apprepo.OutGetVendorOfApp, error) {
	if m.GetVendorOfAppFunc == nil {
		return apprepo.OutGetVendorOfApp{}, nil
	}
	return m.GetVendorOfAppFunc(ctx, in)
}

func (m *AppRepo) AddIcon(ctx context.Context, in apprepo.InputAddIcon) (apprepo.OutAddIcon, error) {
	if m.AddIconFunc == nil {
		return apprepo.OutAddIcon{}, nil
	}
	return m.AddIconFunc(ctx, in)
}

type VendorRepo struct {
	CreateFunc  func(ctx context.Context, in vendorrepo.InputCreate) (vendorrepo.OutCreate, error)
	GetFunc     func(ctx context.Context, in vendorrepo.InputGet) (vendorrepo.OutGet, error)
	ListFunc    func(ctx context.Context, in vendorrepo.InputList) (vendorrepo.OutList, error)
	ApproveFunc func(ctx context.Context, in vendorrepo.InputApprove) (vendorrepo.OutApprove, error)
}

var _ vendorrepo.Repo = (*VendorRepo)(nil)

func (m *VendorRepo) Create(ctx context.Context, in vendorrepo.InputCreate) (vendorrepo.OutCreate, error) {
	if m.CreateFunc == nil {
		return vendorrepo.OutCreate{}, nil
	}
	return m.CreateFunc(ctx, in)
}

func (m *VendorRepo) Get(ctx context.Context, in vendorrepo.InputGet) (vendorrepo.OutGet, error) {
	if m.GetFunc == nil {
		return vendorrepo.OutGet{}, nil
	}
	return m.GetFunc(ctx, in)
}

func (m *VendorRepo) List(ctx context.Context, in vendorrepo.InputList) (vendorrepo.OutList, error) {
	if m.ListFunc == nil {
		return vendorrepo.OutList{}, nil
	}
	return m.ListFunc(ctx, in)
}

func (m *VendorRepo) Approve(ctx context.Context, in vendorrepo.InputApprove) (vendorrepo.OutApprove, error) {
	if m.ApproveFunc == nil {
		return vendorrepo.OutApprove{}, nil
	}
	return m.ApproveFunc(ctx, in)
}

type InviteRepo struct {
	CreateFunc func(ctx context.Context, in inviterepo.InputCreate) (inviterepo.OutCreate, error)
	GetFunc    func(ctx context.Context, in inviterepo.InputGet) (inviterepo.OutGet, error)
	DeleteFunc func(ctx context.Context, in inviterepo.InputDelete) (inviterepo.OutDelete, error)
}

var _ inviterepo.Repo = (*InviteRepo)(nil)

func (m *InviteRepo) Create(ctx context.Context, in inviterepo.InputCreate) (inviterepo.OutCreate, error) {
	if m.CreateFunc == nil {
		return inviterepo.OutCreate{}, nil
	}
	return m.CreateFunc(ctx, in)
}

func (m *InviteRepo) Get(ctx context.Context, in inviterepo.InputGet) (inviterepo.OutGet, error) {
	if m.GetFunc == nil {
		return inviterepo.OutGet{}, nil
	}
	return m.GetFunc(ctx, in)
}

func (m *InviteRepo) Delete(ctx context.Context, in inviterepo.InputDelete) (inviterepo.OutDelete, error) {
	if m.DeleteFunc == nil {
		return inviterepo.OutDelete{}, nil
	}
	return m.DeleteFunc(ctx, in)
}

// MailClient records sent mails. SendErr, when set, is returned by
// every Send call.
type MailClient struct {
	SendErr error
	Sent    []mailclient.Mail
}

var _ mailclient.Client = (*MailClient)(nil)

func (m *MailClient) Send(_ context.Context, mail mailclient.Mail) error {
	if m.SendErr != nil {
		return m.SendErr
	}

	m.Sent = append(m.Sent, mail)
	return nil
}

func (m *MailClient) Close() error { return nil }
