package httpapi

import (
	"context"
	"net/http"

	"github.com/gtnulled/despensa_api/internal/auth"
	"github.com/gtnulled/despensa_api/internal/identity"
	"github.com/gtnulled/despensa_api/internal/session"
	"github.com/gtnulled/despensa_api/internal/users"
)

type Authenticator interface {
	AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (auth.SessionInfo, *users.User, bool, error)
}

type AuthOptions struct {
	Cookie session.CookieConfig
}

// AuthMiddleware autentica a sessao do cookie e injeta a identidade no contexto.
// O usuario e recarregado do banco a cada requisicao, entao aprovacao revogada
// ou mudanca de papel vale imediatamente.
func AuthMiddleware(authenticator Authenticator, opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil {
				http.Error(w, "auth not configured", http.StatusInternalServerError)
				return
			}

			name := opts.Cookie.Name
			if name == "" {
				name = session.DefaultCookieName
			}

			sessionID := ""
			if reqCookie, err := r.Cookie(name); err == nil {
				sessionID = reqCookie.Value
			}

			csrfToken := r.Header.Get("X-CSRF-Token")
			sess, u, refreshed, err := authenticator.AuthenticateSession(r.Context(), sessionID, csrfToken, r.Method)
			if err != nil {
				writeAppError(w, err)
				return
			}

			if refreshed {
				opts.Cookie.Write(w, sess.ID, sess.ExpiresAt)
			}

			ctx := identity.WithUser(r.Context(), u.ID, u.IsSuperAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
