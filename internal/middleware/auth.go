// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carterperez-dev/templates/registration-api/internal/core"
)

const CredentialsKey contextKey = "basic_credentials"

type Credentials struct {
	Email    string
	Password string
}

// RequireBasicAuth only extracts the credentials; checking them is left to
// the handler. A missing or malformed header is answered with 401 and a
// challenge, exactly like a failed check.
func RequireBasicAuth(realm string) func(http.Handler) http.Handler {
	challenge := BasicChallenge(realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok || email == "" {
				w.Header().Set("WWW-Authenticate", challenge)
				core.JSONError(w, core.InvalidCredentialsError())
				return
			}

			ctx := context.WithValue(r.Context(), CredentialsKey, Credentials{
				Email:    email,
				Password: password,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func BasicChallenge(realm string) string {
	return fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm)
}

func GetCredentials(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(CredentialsKey).(Credentials)
	return creds, ok
}
