// Package httpapi serves the REST endpoints next to the socket gateway:
// account registration and login, the caller's own profile, liveness pings
// and the static asset manifests game clients preload.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/auth"
	"github.com/lox/gammond/internal/store"
)

// usernameRE is the account name contract shared with the client.
var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// API bundles the REST handlers and their collaborators.
type API struct {
	store     *store.Store
	authority *auth.Authority
	assets    *Assets
	logger    *log.Logger

	registerLimit *ipLimiter
	loginLimit    *ipLimiter
	pingLimit     *ipLimiter
}

// New builds the API around the user store and the token authority. assets
// may be nil when no assets directory is configured.
func New(st *store.Store, authority *auth.Authority, assets *Assets, logger *log.Logger) *API {
	return &API{
		store:         st,
		authority:     authority,
		assets:        assets,
		logger:        logger.WithPrefix("api"),
		registerLimit: newIPLimiter(20, 10*time.Minute),
		loginLimit:    newIPLimiter(20, 5*time.Minute),
		pingLimit:     newIPLimiter(20, time.Minute),
	}
}

// Routes registers every endpoint on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", a.registerLimit.wrap(a.handleRegister))
	mux.HandleFunc("POST /api/login", a.loginLimit.wrap(a.handleLogin))
	mux.HandleFunc("GET /api/profile", a.pingLimit.wrap(a.handleProfile))
	mux.HandleFunc("GET /api/ping", a.pingLimit.wrap(a.handlePing))
	mux.HandleFunc("GET /api/assets/{kind}/manifest", a.handleAssetManifest)
	mux.HandleFunc("GET /api/assets/{kind}/{name}", a.handleAssetDownload)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Profile *store.Profile `json:"profile"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed request body.")
		return
	}
	if !usernameRE.MatchString(creds.Username) {
		writeError(w, http.StatusBadRequest, "AUTH_INVALID_USERNAME",
			"Username must be 3-20 characters: letters, digits and underscore.")
		return
	}
	if !passwordStrong(creds.Password) {
		writeError(w, http.StatusBadRequest, "AUTH_WEAK_PASSWORD",
			"Password must be at least 8 characters with a letter and a digit.")
		return
	}

	profile, err := a.store.Register(creds.Username, creds.Password)
	if errors.Is(err, store.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "AUTH_USERNAME_TAKEN", "Username is already taken.")
		return
	}
	if err != nil {
		a.logger.Error("register failed", "username", creds.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Registration failed.")
		return
	}

	token, err := a.authority.Issue(profile.Username)
	if err != nil {
		a.logger.Error("token issue failed", "username", profile.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Registration failed.")
		return
	}

	a.logger.Info("account registered", "username", profile.Username)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, Profile: profile})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed request body.")
		return
	}

	profile, err := a.store.Authenticate(creds.Username, creds.Password)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "AUTH_USER_NOT_FOUND", "No such account.")
		return
	case errors.Is(err, store.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "Wrong username or password.")
		return
	case err != nil:
		a.logger.Error("login failed", "username", creds.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Login failed.")
		return
	}

	token, err := a.authority.Issue(profile.Username)
	if err != nil {
		a.logger.Error("token issue failed", "username", profile.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Login failed.")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, Profile: profile})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := a.authority.Validate(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "Invalid or expired token.")
		return
	}

	profile, err := a.store.PlayerData(identity.Username)
	if err != nil {
		a.logger.Error("profile lookup failed", "username", identity.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Profile lookup failed.")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleAssetManifest(w http.ResponseWriter, r *http.Request) {
	if a.assets == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Assets are not configured.")
		return
	}
	manifest, ok := a.assets.Manifest(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Unknown asset kind.")
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

func (a *API) handleAssetDownload(w http.ResponseWriter, r *http.Request) {
	if a.assets == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Assets are not configured.")
		return
	}
	path, err := a.assets.FilePath(r.PathValue("kind"), r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No such asset.")
		return
	}
	http.ServeFile(w, r, path)
}

// passwordStrong applies the minimum password rules: eight characters with
// at least one letter and one digit.
func passwordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	var letter, digit bool
	for _, c := range password {
		switch {
		case c >= '0' && c <= '9':
			digit = true
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			letter = true
		}
	}
	return letter && digit
}

func bearerToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
