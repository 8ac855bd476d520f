package httpapi

import (
	"context"
	"database/sql"
	_ "embed"
	"net/http"
	"time"

	"crewbase.org/internal/account"
	"crewbase.org/internal/guard"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/profile"
	"crewbase.org/internal/route"
	"crewbase.org/internal/session"
)

//go:embed openapi.yaml
var openAPISpec []byte

// sessionCookie carries the provider-issued ID token to the browser.
const sessionCookie = "crewbase_session"

// SessionTokenSource exposes the ID token of the gateway's active session.
// Both provider implementations satisfy it.
type SessionTokenSource interface {
	SessionToken() (string, error)
}

// ReadyProbe is a simple readiness check (for example a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the identity flows and guarded pages.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	accounts *account.Service
	resolver *session.Resolver
	profiles profile.Store
	tokens   SessionTokenSource
}

func New(rp ReadyProbe, version string, accounts *account.Service, resolver *session.Resolver, profiles profile.Store, tokens SessionTokenSource) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		accounts:   accounts,
		resolver:   resolver,
		profiles:   profiles,
		tokens:     tokens,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// identity flows
	a.mux.HandleFunc("/v1/signup/admin", a.handleAdminSignup)
	a.mux.HandleFunc("/v1/signup/volunteer", a.handleVolunteerSignup)
	a.mux.HandleFunc("/v1/login", a.handleLogin)
	a.mux.HandleFunc("/v1/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/session", a.handleSession)
	a.mux.HandleFunc("/v1/profiles/", a.handleProfile)

	// guarded pages
	a.mux.HandleFunc(route.AdminDashboard, a.protectedPage(guard.RequireRole(identity.RoleAdmin), "admin-dashboard"))
	a.mux.HandleFunc(route.VolunteerDashboard, a.protectedPage(guard.RequireRole(identity.RoleVolunteer), "volunteer-dashboard"))
	a.mux.HandleFunc("/me", a.protectedPage(guard.RequireAuthenticated(), "me"))

	// login pages and the application root are public
	a.mux.HandleFunc(route.AdminLogin, a.publicPage("admin-login"))
	a.mux.HandleFunc(route.VolunteerLogin, a.publicPage("volunteer-login"))

	// OpenAPI YAML
	a.mux.HandleFunc("/openapi.yaml", a.OpenAPISpec)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != route.Root {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"page": "home"})
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = RateLimit(h, 20, 10)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "crewbase-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "crewbase-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(openAPISpec)
}
