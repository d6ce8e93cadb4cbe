package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"todorbac/internal/authz"
	"todorbac/internal/httpserver/handlers"
)

type Options struct {
	Metrics         *Metrics
	AdminRole       string
	LoginRatePerSec float64
	LoginBurst      int

	// TrustProxyHeaders enables middleware.RealIP. Off, the rate limiter keys
	// on the socket address and forwarded headers are ignored.
	TrustProxyHeaders bool
}

func NewRouter(d handlers.Deps, opts Options) http.Handler {
	m := opts.Metrics
	if m == nil {
		m = NewMetrics(prometheus.NewRegistry())
	}
	limiter := newIPLimiter(opts.LoginRatePerSec, opts.LoginBurst, d.Log)
	authn := guard(d, m)
	admin := guard(d, m, authz.Role(opts.AdminRole))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer, requestLogger(d.Log), m.Instrument)

	r.Route("/api/users", func(u chi.Router) {
		u.Group(func(public chi.Router) {
			public.Use(limiter.Middleware)
			public.Post("/signup", handlers.Signup(d))
			public.Post("/login", handlers.Login(d))
			public.Post("/refresh", handlers.Refresh(d))
		})
		u.With(authn).Post("/logout", handlers.Logout(d))
		u.With(authn).Get("/me", handlers.Me(d))
	})
	r.Route("/api/todos", func(t chi.Router) {
		t.Use(authn)
		t.Get("/", handlers.ListTodos(d))
		t.Post("/create", handlers.CreateTodo(d))
		t.Put("/update/{id}", handlers.UpdateTodo(d))
		t.Patch("/{id}/toggle", handlers.ToggleTodo(d))
		t.Patch("/{id}/status", handlers.UpdateTodoStatus(d))
		t.Delete("/delete/{id}", handlers.DeleteTodo(d))
	})
	r.Route("/api/roles", func(a chi.Router) {
		a.Use(admin)
		a.Get("/roles", handlers.ListRoles(d))
		a.Post("/roles", handlers.CreateRole(d))
		a.Get("/permissions", handlers.ListPermissions(d))
		a.Post("/permissions", handlers.CreatePermission(d))
		a.Post("/roles/{roleId}/permissions/{permissionId}", handlers.GrantPermission(d))
		a.Post("/users/{userId}/roles/{roleId}", handlers.AssignRole(d))
	})
	r.Route("/api/admin/users", func(a chi.Router) {
		a.Use(admin)
		a.Get("/all", handlers.ListUsers(d))
		a.Get("/{id}/todos", handlers.UserTodos(d))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", m.Handler())
	return r
}
