package restapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/transport/restapi/httperr"
)

// authMiddleware resolves the Authorization header into a user pool
// identity and injects it into the request context. Routes that serve
// anonymous traffic (catalog, auth flows, invitation accept, storage
// event hook) are mounted outside this middleware.
func authMiddleware(pool userpool.Pool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := strings.TrimSpace(r.Header.Get("Authorization"))
			token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer"))
			if token == "" {
				err := fmt.Errorf("%w: missing authorization token", userpool.ErrNotAuthorized)
				httperr.Write(ctx, w, r, err)
				return
			}

			user, err := pool.GetUserByToken(ctx, token)
			if err != nil {
				httperr.Write(ctx, w, r, err)
				return
			}

			ctx = userpool.Inject(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}
