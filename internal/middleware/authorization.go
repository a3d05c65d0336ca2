package middleware

import (
	"errors"
	"net/http"

	"inventario/internal/domain"
	"inventario/internal/session"

	"go.uber.org/zap"
)

// Redirect targets for rejected requests
const (
	LoginPath   = "/login"
	CatalogPath = "/productos"
)

// Authorize gates a route with domain.Authorize. Anonymous users are sent
// to the login page and forbidden users back to the catalog, both with a
// warning flash.
func Authorize(action domain.Action, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())

			err := domain.Authorize(principal, action)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			target := CatalogPath
			message := "You do not have permission to do that."
			if errors.Is(err, domain.ErrNotAuthenticated) {
				target = LoginPath
				message = "Please log in to continue."
			} else {
				logger.Warn("User not authorized",
					zap.Int64("user_id", principal.UserID),
					zap.String("role", string(principal.Role)),
					zap.String("action", action.String()),
					zap.String("path", r.URL.Path),
				)
				if errors.Is(err, domain.ErrAdminCannotPurchase) {
					message = "Administrators cannot purchase products."
				}
			}

			if sess, ok := GetSession(r.Context()); ok {
				sess.AddFlash(session.FlashWarning, message)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}
