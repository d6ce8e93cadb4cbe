package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"todorbac/internal/apperr"
	"todorbac/internal/auth"
	"todorbac/internal/authz"
	"todorbac/internal/rbac"
	"todorbac/internal/todos"
	"todorbac/internal/users"
)

// Deps is everything a handler may call into. It is built once at startup.
type Deps struct {
	Users  *users.Service
	Graph  *rbac.Service
	Todos  *todos.Service
	Issuer *auth.Issuer
	Authz  *authz.Evaluator
	Log    *zap.SugaredLogger
	// DefaultRole is assigned at signup when such a role exists; empty disables.
	DefaultRole string
}

func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok || p.UserID == "" {
		return auth.Principal{}, apperr.ErrUnauthenticated
	}
	return p, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		return 0, apperr.Newf(apperr.KindValidation, "invalid %s", name)
	}
	return v, nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperr.Newf(apperr.KindValidation, "invalid %s", name)
	}
	return v, nil
}

func chiParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
