package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"todorbac/internal/apperr"
	"todorbac/internal/auth"
	"todorbac/internal/authz"
	"todorbac/internal/httpserver/handlers"
)

// guard runs the authorization pipeline (authenticate, then role checks, then
// capability checks) and stores the principal for the handler.
func guard(d handlers.Deps, m *Metrics, checks ...authz.Check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := d.Authz.Authorize(r.Context(), bearerToken(r), checks...)
			m.observeDecision(decision(err))
			if err != nil {
				handlers.RespondError(w, r, d.Log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func decision(err error) string {
	switch {
	case err == nil:
		return "allow"
	case apperr.IsAuthentication(err):
		return "unauthenticated"
	case apperr.KindOf(err) == apperr.KindForbidden:
		return "forbidden"
	default:
		return "error"
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func requestLogger(lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			lg.Infow("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
