package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"
)

// handleIndex renders the main page.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index", templateData{Title: "Home", Message: "Hello, world!"})
}

// handleLogin renders the login page with a message selected by the errorCode query.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", templateData{
		Title:       "Login",
		Message:     loginMessage(r.URL.Query().Get("errorCode")),
		RedirectURI: r.URL.Query().Get("redirect_uri"),
	})
}

// handleRegister renders the registration page.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", templateData{Title: "Register", RedirectURI: r.URL.Query().Get("redirect_uri")})
}

// loginMessage maps a login error code to a message. Missing or
// non-numeric codes, and codes outside 0-255, show no message.
func loginMessage(code string) string {
	if code == "" {
		return ""
	}
	n, err := strconv.ParseUint(code, 10, 8)
	if err != nil {
		return ""
	}
	switch n {
	case 0:
		return ""
	case 1:
		return "Username taken"
	default:
		return "Internal server error, please try again later."
	}
}

// handleThemeToggle flips the theme preference and persists it.
// htmx requests get a full page refresh, plain form posts are redirected back.
func (h *Handler) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	var view templateData
	ctrl, err := h.controller(w, r, &view)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	ctrl.Load()
	if err := ctrl.Toggle(); err != nil {
		log.Printf("[ERROR] failed to toggle theme: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, h.backURL(r), http.StatusSeeOther)
}

// backURL returns the same-site path of the Referer, or the home page.
func (h *Handler) backURL(r *http.Request) string {
	return h.localURL(r, r.Header.Get("Referer"), h.url("/"))
}

// localURL returns the path of raw if it points to this site, otherwise fallback.
func (h *Handler) localURL(r *http.Request, raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Host != "" && u.Host != r.Host) || (u.Host == "" && u.Scheme != "") {
		return fallback
	}
	local := u.RequestURI()
	if !strings.HasPrefix(local, "/") || strings.HasPrefix(local, "//") {
		return fallback
	}
	return local
}
