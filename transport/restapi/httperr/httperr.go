// Package httperr translates service layer errors into the response
// envelope with the right HTTP status class: validation 422, conflict
// 409, missing resource 404, missing token 401, missing membership 403
// and everything else 500.
package httperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/internal/svc/authsvc"
	"github.com/komponen/marketplace/internal/svc/inviterepo"
	"github.com/komponen/marketplace/internal/svc/vendorrepo"
	"github.com/komponen/marketplace/pkg/objstore"
	"github.com/komponen/marketplace/pkg/respbuilder"
	"github.com/komponen/marketplace/pkg/userpool"
)

func Kind(err error) respbuilder.ErrKind {
	switch {
	case errors.Is(err, apprepo.ErrValidation),
		errors.Is(err, vendorrepo.ErrValidation),
		errors.Is(err, inviterepo.ErrValidation),
		errors.Is(err, authsvc.ErrValidation),
		errors.Is(err, userpool.ErrCodeMismatch):
		return respbuilder.ErrValidation

	case errors.Is(err, apprepo.ErrNotFound),
		errors.Is(err, vendorrepo.ErrNotFound),
		errors.Is(err, inviterepo.ErrNotFound),
		errors.Is(err, objstore.ErrNotFound),
		errors.Is(err, userpool.ErrUserNotFound):
		return respbuilder.ErrResourceNotFound

	case errors.Is(err, apprepo.ErrConflict),
		errors.Is(err, vendorrepo.ErrConflict),
		errors.Is(err, userpool.ErrUserExists):
		return respbuilder.ErrConflict

	case errors.Is(err, access.ErrNotAuthorized):
		return respbuilder.ErrForbidden

	case errors.Is(err, userpool.ErrNotAuthorized):
		return respbuilder.ErrUnauthorized
	}

	return respbuilder.ErrUnhandled
}

// Write maps err to its error kind and writes the error envelope.
func Write(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	kind := Kind(err)
	resp := respbuilder.Error(ctx, kind, err)
	respbuilder.WriteJSON(respbuilder.Status(kind), w, r, resp)
}
