package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/opspanel/panelapi/internal/config"
	panelmiddleware "github.com/opspanel/panelapi/internal/middleware"
	"github.com/opspanel/panelapi/internal/services/iam"
)

// RolesPage is the panel page whose access gates identity administration.
const RolesPage = "roles"

// RouterOptions controls the construction of the panel HTTP router.
// IAM and Cfg are required; the rest default sensibly when unset.
type RouterOptions struct {
	IAM           iam.Service
	Cfg           *config.Config
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the panel handlers mounted. Every route except /health and /auth/login runs
// behind the session middleware, which re-validates the cookie against the
// server-side session record on each request.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Use(panelmiddleware.NewSessionAuthMiddleware(panelmiddleware.AuthnDependencies{
		IAM: opts.IAM,
	}))

	r.Post("/auth/login", HandleLogin(opts.IAM, opts.Cfg))
	r.Post("/auth/logout", HandleLogout(opts.IAM, opts.Cfg))
	r.Get("/auth/whoami", HandleWhoAmI())
	r.Post("/auth/impersonate", HandleImpersonate(opts.IAM, opts.Cfg))
	r.Post("/auth/impersonate/stop", HandleImpersonateStop(opts.IAM, opts.Cfg))

	// Identity administration requires access to the roles page.
	r.Route("/admin/identities", func(r chi.Router) {
		r.Use(panelmiddleware.RequirePageAccess(opts.IAM, RolesPage))
		r.Get("/", HandleListIdentities(opts.IAM, opts.Cfg))
		r.Post("/", HandleCreateIdentity(opts.IAM, opts.Cfg))
		r.Put("/{id}", HandleUpdateIdentity(opts.IAM, opts.Cfg))
		r.Delete("/{id}", HandleDeleteIdentity(opts.IAM, opts.Cfg))
	})

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r
}
