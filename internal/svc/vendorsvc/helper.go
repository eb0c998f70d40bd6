package vendorsvc

import (
	"time"

	"github.com/komponen/marketplace/internal/svc/vendorrepo"
)

func VendorFromRepo(vendor vendorrepo.Vendor) Vendor {
	v := Vendor{
		ID:         vendor.ID,
		Name:       vendor.Name,
		Address:    vendor.Address,
		Email:      vendor.Email,
		IsPublic:   vendor.IsPublic,
		IsApproved: vendor.IsApproved,
		CreatedOn:  time.UnixMicro(vendor.CreatedAt).UTC(),
		UpdatedOn:  time.UnixMicro(vendor.UpdatedAt).UTC(),
	}
	return v
}
