package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"crewbase.org/internal/account"
	"crewbase.org/internal/guard"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/route"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleAdminSignup(w http.ResponseWriter, r *http.Request) {
	a.handleSignup(w, r, identity.RoleAdmin)
}

func (a *API) handleVolunteerSignup(w http.ResponseWriter, r *http.Request) {
	a.handleSignup(w, r, identity.RoleVolunteer)
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request, role identity.Role) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	var res account.SignupResult
	switch role {
	case identity.RoleAdmin:
		res = a.accounts.AdminSignup(r.Context(), req.Name, req.Email, req.Password)
	default:
		res = a.accounts.VolunteerSignup(r.Context(), req.Name, req.Email, req.Password)
	}
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}

	a.setSessionCookie(w, r)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"identity": res.Identity,
		"landing":  route.LandingPage(role),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res := a.accounts.Login(r.Context(), req.Email, req.Password)
	if !res.Success {
		a.clearSessionCookie(w)
		writeJSON(w, http.StatusUnauthorized, res)
		return
	}

	a.setSessionCookie(w, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"identity": res.Identity,
		"landing":  route.LandingPage(res.Identity.Role),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	res := a.accounts.Logout(r.Context())
	if !res.Success {
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, res)
}

// handleSession reports the resolver's current view of the session.
func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	res := a.resolver.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    string(a.resolver.State()),
		"identity": res,
	})
}

// handleProfile serves profile lookups by identity id, restricted to admins.
// Unlike page guards, an API denial is a status code, not a redirect.
func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	cur := a.resolver.Current()
	if cur == nil {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if cur.Role != identity.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/profiles/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusBadRequest, "profile id is required")
		return
	}
	p, err := a.profiles.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			writeError(w, r, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// protectedPage guards a page behind the requirement; denials are silent
// redirects to the matching login page or the identity's own dashboard.
func (a *API) protectedPage(req guard.Requirement, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := a.resolver.Current()
		if !guard.Protect(req, res, &redirectNavigator{w: w, r: r}) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"page":     page,
			"identity": res,
		})
	}
}

func (a *API) publicPage(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"page": page})
	}
}

// redirectNavigator adapts an HTTP response into the guard's Navigator
// capability.
type redirectNavigator struct {
	w http.ResponseWriter
	r *http.Request
}

func (n *redirectNavigator) Navigate(target string) {
	http.Redirect(n.w, n.r, target, http.StatusSeeOther)
}

func (a *API) setSessionCookie(w http.ResponseWriter, r *http.Request) {
	if a.tokens == nil {
		return
	}
	token, err := a.tokens.SessionToken()
	if err != nil || token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
