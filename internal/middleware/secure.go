package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// SecureHeaders sets the browser hardening headers. HTTPS redirects and
// HSTS are only enabled in production.
func SecureHeaders(isProduction bool, logger *zap.Logger) func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           isProduction,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:            stsSeconds(isProduction),
		IsDevelopment:         !isProduction,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				logger.Warn("Secure headers blocked request", zap.Error(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func stsSeconds(isProduction bool) int64 {
	if isProduction {
		return 31536000
	}
	return 0
}
