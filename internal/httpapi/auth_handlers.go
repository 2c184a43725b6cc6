package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gatepass.dev/internal/audit"
	"gatepass.dev/internal/directory"
	"gatepass.dev/internal/obs"
	"gatepass.dev/internal/session"
)

// CookieName carries the session token next to the response body. Both
// represent the same credential; the cookie is a transport convenience.
const CookieName = "auth-token"

type loginRequest struct {
	Email string `json:"email"`
}

type loginResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    session.Profile `json:"user"`
}

type registerRequest struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type registerResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    directory.User `json:"user"`
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

	token, profile, err := a.issuer.Issue(r.Context(), req.Email)
	if err != nil {
		a.loginError(w, r, req.Email, err)
		return
	}

	obs.CountLogin("issued")
	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	ctx = audit.WithSubject(ctx, profile.Email)
	_ = audit.LogEvent(ctx, "session.issued", map[string]any{
		"user_id": profile.ID,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    profile,
	})
}

func (a *API) loginError(w http.ResponseWriter, r *http.Request, email string, err error) {
	var upstream *directory.StatusError
	switch {
	case errors.Is(err, session.ErrMissingEmail):
		obs.CountLogin("invalid")
		writeError(w, r, http.StatusBadRequest, "Email is required")
	case errors.Is(err, session.ErrInvalidEmail):
		obs.CountLogin("invalid")
		writeError(w, r, http.StatusBadRequest, "Invalid email format")
	case errors.Is(err, session.ErrNotConfigured):
		obs.CountLogin("misconfigured")
		writeError(w, r, http.StatusInternalServerError, "API access token not configured")
	case errors.As(err, &upstream):
		obs.CountLogin("upstream_error")
		writeError(w, r, upstream.Status, "Failed to authenticate with external API")
	case errors.Is(err, session.ErrUserNotFound):
		obs.CountLogin("not_found")
		a.auditDenied(r, email, "not_found")
		writeError(w, r, http.StatusNotFound, "User not found. Please check your email or register first.")
	case errors.Is(err, session.ErrInactiveAccount):
		obs.CountLogin("inactive")
		a.auditDenied(r, email, "inactive")
		writeError(w, r, http.StatusForbidden, "Account is inactive. Please contact support.")
	default:
		obs.CountLogin("internal")
		obs.LogEntry(map[string]any{
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
			"level":      "error",
			"msg":        "login_failed",
			"request_id": RequestIDFromContext(r.Context()),
			"error":      err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func (a *API) auditDenied(r *http.Request, email, reason string) {
	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	ctx = audit.WithSubject(ctx, email)
	_ = audit.LogEvent(ctx, "session.denied", map[string]any{
		"reason": reason,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name == "" || req.Gender == "" || req.Email == "" || req.Status == "" {
		writeError(w, r, http.StatusBadRequest, "Missing required fields: name, gender, email, status")
		return
	}
	if req.Gender != "male" && req.Gender != "female" {
		writeError(w, r, http.StatusBadRequest, `Gender must be either "male" or "female"`)
		return
	}
	if req.Status != "active" && req.Status != "inactive" {
		writeError(w, r, http.StatusBadRequest, `Status must be either "active" or "inactive"`)
		return
	}
	if !a.dir.Configured() {
		writeError(w, r, http.StatusInternalServerError, "API access token not configured")
		return
	}

	// Forward the payload unmodified; the directory assigns the id and owns
	// any further validation (uniqueness, field rules).
	created, err := a.dir.Create(r.Context(), directory.NewUser{
		Name:   req.Name,
		Gender: req.Gender,
		Email:  req.Email,
		Status: req.Status,
	})
	if err != nil {
		var upstream *directory.StatusError
		if errors.As(err, &upstream) {
			payload := map[string]any{
				"error": "Failed to create user",
			}
			if len(upstream.Detail) > 0 {
				payload["details"] = json.RawMessage(upstream.Detail)
			}
			writeJSON(w, upstream.Status, payload)
			return
		}
		obs.LogEntry(map[string]any{
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
			"level":      "error",
			"msg":        "register_failed",
			"request_id": RequestIDFromContext(r.Context()),
			"error":      err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	ctx = audit.WithSubject(ctx, created.Email)
	_ = audit.LogEvent(ctx, "directory.user.created", map[string]any{
		"user_id": created.ID,
		"status":  created.Status,
	})

	writeJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "User created successfully",
		User:    created,
	})
}

// handleLogout expires the auth cookie. The browser clears its own stored
// session; this endpoint exists because only the server can drop an
// HttpOnly cookie.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "session.cleared", nil)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
