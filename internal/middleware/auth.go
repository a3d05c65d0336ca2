package middleware

import (
	"context"
	"net/http"

	"inventario/internal/domain"
	"inventario/internal/session"

	"go.uber.org/zap"
)

// commitWriter persists the session right before the first byte of the
// response, so handlers may add flashes up to that point.
type commitWriter struct {
	http.ResponseWriter
	ctx           context.Context
	sess          *session.Session
	manager       *session.Manager
	logger        *zap.Logger
	headerWritten bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		if err := w.manager.Commit(w.ctx, w.ResponseWriter, w.sess); err != nil {
			w.logger.Error("Failed to commit session", zap.Error(err))
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// SessionMiddleware loads the session named by the cookie and attaches it
// and its principal to the request context.
func SessionMiddleware(manager *session.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := manager.Load(ctx, r)
			if err != nil {
				logger.Error("Failed to load session", zap.Error(err))
				RespondWithError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}

			ctx = session.WithSession(ctx, sess)
			if p := sess.Principal(); p != nil {
				logger.Debug("Session authenticated",
					zap.Int64("user_id", p.UserID),
					zap.String("role", string(p.Role)),
				)
			}

			wrapped := &commitWriter{
				ResponseWriter: w,
				ctx:            ctx,
				sess:           sess,
				manager:        manager,
				logger:         logger,
			}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			// handlers that never wrote still need their session saved
			if !wrapped.headerWritten {
				wrapped.WriteHeader(http.StatusOK)
			}
		})
	}
}

// GetSession extracts the session from request context
func GetSession(ctx context.Context) (*session.Session, bool) {
	return session.FromContext(ctx)
}

// GetPrincipal extracts the authenticated principal, nil when anonymous
func GetPrincipal(ctx context.Context) *domain.Principal {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil
	}
	return sess.Principal()
}

// GetUserID extracts the authenticated user id from request context
func GetUserID(ctx context.Context) (int64, bool) {
	p := GetPrincipal(ctx)
	if p == nil {
		return 0, false
	}
	return p.UserID, true
}
