package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/legalize/backoffice/internal/server/auth"
)

type ctxKey string

const operatorKey ctxKey = "operator"

type Option func(*API)

// WithTokenSecret requires a staff bearer token signed with secret on every
// /api request.
func WithTokenSecret(secret string) Option {
	return func(a *API) {
		if secret != "" {
			a.secret = []byte(secret)
		}
	}
}

// authenticate resolves the operator of the request. Without a secret the
// authenticating proxy's header is trusted.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator := r.Header.Get(OperatorHeader)
		if a.secret != nil {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				failure(w, http.StatusUnauthorized, "missing token", nil, nil)
				return
			}
			var err error
			if operator, err = auth.OperatorFromToken(strings.TrimSpace(token), a.secret); err != nil {
				failure(w, http.StatusUnauthorized, "invalid token", nil, nil)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), operatorKey, operator)))
	})
}

func operatorFrom(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey).(string)
	return op
}
