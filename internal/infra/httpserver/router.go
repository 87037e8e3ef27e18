package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/calicode24/calicode/internal/apperror"
	"github.com/calicode24/calicode/internal/application/accounts"
	"github.com/calicode24/calicode/internal/application/analysis"
	"github.com/calicode24/calicode/internal/application/billing"
	appprojects "github.com/calicode24/calicode/internal/application/projects"
	domai "github.com/calicode24/calicode/internal/domain/ai"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/domain/projects"
	"github.com/calicode24/calicode/internal/logger"
	"github.com/calicode24/calicode/internal/middleware"
	"github.com/calicode24/calicode/internal/web"
)

const msgUnexpected = "Something went wrong. Please try again."

// Deps are the services the HTTP layer dispatches to
type Deps struct {
	Analysis     *analysis.Service
	Accounts     *accounts.Service
	Billing      *billing.Service
	Projects     *appprojects.Service
	Verifier     identity.Verifier
	Pages        *web.Pages
	Health       map[string]middleware.HealthChecker
	Limiter      *middleware.RateLimiter
	AppURL       string
	MaxUpload    int64
	CookieSecure bool
	Log          logger.Interface
}

type Router struct {
	Deps
	log logger.Interface
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	r := &Router{Deps: d, log: log.Named("http")}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(r.log))
	mux.Use(middleware.Recoverer(r.log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.Authenticate(d.Verifier))

	mux.Get("/health", middleware.HealthHandler(d.Health))
	mux.Get("/healthz/live", middleware.LivenessHandler)
	mux.Get("/healthz/ready", middleware.ReadinessHandler(d.Health))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{d.AppURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
			ExposedHeaders:   []string{"X-Analysis-Source", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		analyze := http.Handler(r.wrap(r.handleAnalyze))
		if d.Limiter != nil {
			analyze = d.Limiter.Handler(analyze)
		}
		api.Method(http.MethodPost, "/analyze", analyze)

		api.Post("/auth/signup", r.wrap(r.handleSignup))
		api.Post("/auth/login", r.wrap(r.handleLogin))
		api.Post("/auth/logout", r.wrap(r.handleLogout))

		api.Post("/stripe/checkout", r.wrap(r.handleCheckout))
		api.Post("/stripe/webhook", r.wrap(r.handleWebhook))

		api.Get("/dashboard", r.wrap(r.handleDashboard))
		api.Post("/projects", r.wrap(r.handleCreateProject))
		api.Get("/projects/{id}", r.wrap(r.handleGetProject))
	})

	mux.Get("/auth/callback", r.handleCallback)

	if d.Pages != nil {
		mux.Handle("/static/*", d.Pages.Static())
		mux.Get("/", r.page(r.handleHome))
		mux.Get("/login", r.page(r.handleLoginPage))
		mux.Get("/signup", r.page(r.handleSignupPage))
		mux.Group(func(protected chi.Router) {
			protected.Use(middleware.RequirePage)
			protected.Get("/dashboard", r.page(r.handleDashboardPage))
			protected.Get("/project/{id}", r.page(r.handleProjectPage))
			protected.Get("/upgrade/success", r.page(r.handleUpgradeSuccessPage))
		})
	}

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			r.writeError(w, req, err)
		}
	}
}

// writeError maps an error to its status and {"error": ...} body. Anything
// unrecognised is logged and answered with a generic 500.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	log := r.log.With("path", req.URL.Path, "request_id", middleware.GetRequestID(req.Context()))

	if ae, ok := apperror.As(err); ok {
		if ae.Code >= http.StatusInternalServerError {
			log.Error("request failed", "error", err)
		}
		body := map[string]any{"error": ae.Message}
		for k, v := range ae.Extra {
			body[k] = v
		}
		writeJSON(w, ae.Code, body)
		return
	}

	var verr *documents.ValidationError
	var rerr *documents.ReadError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Message})
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Failed to read uploaded file"})
	case errors.Is(err, sql.ErrNoRows):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
	case errors.Is(err, projects.ErrQuotaReached):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":   "You've used your free project this month. Upgrade to Pro for unlimited projects.",
			"upgrade": true,
		})
	case errors.Is(err, identity.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid login credentials"})
	case errors.Is(err, identity.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "An account with this email already exists."})
	case errors.Is(err, domai.ErrQuotaExceeded):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "AI quota exceeded"})
	default:
		log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msgUnexpected})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// currentUser returns the session user or an Unauthorized error with msg
func currentUser(req *http.Request, msg string) (identity.User, error) {
	u, ok := middleware.UserFrom(req.Context())
	if !ok {
		return identity.User{}, apperror.Unauthorized(msg)
	}
	return u, nil
}
