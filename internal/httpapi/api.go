// Package httpapi is the HTTP boundary: the proxy API consumed by the pages,
// the pages themselves, and the operational endpoints.
package httpapi

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"gatepass.dev/internal/directory"
	"gatepass.dev/internal/obs"
	"gatepass.dev/internal/session"
	"gatepass.dev/internal/web"
)

const (
	defaultRateBurst  = 20
	defaultRatePerSec = 10
	maxBodyBytes      = 1 << 20
)

// Directory is the slice of the directory client the HTTP layer drives
// directly (the registration forward). Lookups go through the issuer.
type Directory interface {
	Configured() bool
	Create(ctx context.Context, u directory.NewUser) (directory.User, error)
}

// ReadyProbe reports required settings that are absent, so a misdeployed
// instance fails its readiness check instead of serving 500s.
type ReadyProbe struct {
	MissingSettings func() []string
}

func (rp ReadyProbe) Check() []string {
	if rp.MissingSettings == nil {
		return nil
	}
	return rp.MissingSettings()
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	dir        Directory
	issuer     *session.Issuer
	pages      fs.FS

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, dir Directory, issuer *session.Issuer, rateBurst, ratePerSec int) *API {
	if rateBurst <= 0 {
		rateBurst = defaultRateBurst
	}
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		dir:        dir,
		issuer:     issuer,
		pages:      web.Files(),
		rateBurst:  rateBurst,
		ratePerSec: ratePerSec,
	}

	// proxy API
	a.mux.HandleFunc("/api/login", a.handleLogin)
	a.mux.HandleFunc("/api/register", a.handleRegister)
	a.mux.HandleFunc("/api/logout", a.handleLogout)

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// pages
	a.mux.HandleFunc("/login", a.servePage("login.html"))
	a.mux.HandleFunc("/register", a.servePage("register.html"))
	a.mux.HandleFunc("/dashboard", a.servePage("dashboard.html"))
	a.mux.Handle("/assets/", http.FileServer(http.FS(a.pages)))
	a.mux.HandleFunc("/", a.Index)

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = MaxBodyBytes(h, maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Recover(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gatepass-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if missing := a.readyProbe.Check(); len(missing) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "not_ready",
			"missing": missing,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "gatepass-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// Index serves the landing page; anything else under / is a 404.
func (a *API) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	a.serveFile(w, r, "index.html")
}

func (a *API) servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.serveFile(w, r, name)
	}
}

func (a *API) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	data, err := fs.ReadFile(a.pages, name)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}
