package api

import (
	"context"
	"net/http"
	"strings"

	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// principalKey is the context key for the authenticated caller.
const principalKey ctxKey = "principal"

// bearerSecurity marks an operation as requiring a bearer token in OpenAPI.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// RequirePrincipal returns the authenticated caller from context.
// Returns a 401 error if the request carried no valid token.
func RequirePrincipal(ctx context.Context) (*service.Principal, error) {
	p, ok := ctx.Value(principalKey).(*service.Principal)
	if !ok || p == nil {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return p, nil
}

func withPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the principal in context. Requests without a usable token continue
// anonymously; handlers call RequirePrincipal to reject them.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || auth == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
