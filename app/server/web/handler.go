// Package web provides HTTP handlers for the web UI.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/routegroup"
	"github.com/google/uuid"

	"github.com/umputun/themer/app/store"
	"github.com/umputun/themer/app/theme"
)

//go:generate moq -out mocks/prefstore.go -pkg mocks -skip-ensure -fmt goimports . PrefStore

// visitorCookieName holds the anonymous visitor id used with the db backend.
const visitorCookieName = "themer-visitor"

// cookieMaxAge is the lifetime of theme and visitor cookies.
const cookieMaxAge = 365 * 24 * 60 * 60 // 1 year

//go:embed static
var staticFS embed.FS

//go:embed templates
var templatesFS embed.FS

// StaticFS returns the embedded static filesystem for external use.
func StaticFS() (fs.FS, error) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static sub-filesystem: %w", err)
	}
	return sub, nil
}

// PrefStore keeps preferences server-side, keyed by visitor.
type PrefStore interface {
	Get(ctx context.Context, visitor, key string) (string, error)
	Set(ctx context.Context, visitor, key, value string) error
}

// Config holds web handler configuration.
type Config struct {
	BaseURL     string
	AuthURL     string       // external service receiving login and register forms
	DefaultDark bool         // system preference when the client sends no colour-scheme hint
	Accounts    AccountStore // optional, enables the built-in login and register forms
}

// Handler handles web UI requests.
type Handler struct {
	prefs       PrefStore // nil means preferences live in cookies
	pages       map[string]*template.Template
	baseURL     string
	authURL     string
	defaultDark bool
	accounts    AccountStore // nil disables built-in login and register
}

// New creates a new web handler. prefs is optional, pass nil to keep
// preferences in browser cookies.
func New(prefs PrefStore, cfg Config) (*Handler, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{
		prefs:       prefs,
		pages:       pages,
		baseURL:     cfg.BaseURL,
		authURL:     cfg.AuthURL,
		defaultDark: cfg.DefaultDark,
		accounts:    cfg.Accounts,
	}, nil
}

// Register registers web UI routes on the given router.
// Cross-origin form posts are rejected for all routes of the group.
func (h *Handler) Register(r *routegroup.Bundle) {
	r.Use(http.NewCrossOriginProtection().Handler)

	r.HandleFunc("GET /{$}", h.handleIndex)
	r.HandleFunc("GET /login", h.handleLogin)
	r.HandleFunc("GET /register", h.handleRegister)
	r.HandleFunc("POST /web/theme", h.handleThemeToggle)
	if h.accounts != nil {
		r.HandleFunc("POST /login", h.handleLoginSubmit)
		r.HandleFunc("POST /register", h.handleRegisterSubmit)
	}
}

// pageNames lists the page templates, each rendered inside base.html.
var pageNames = []string{"index", "login", "register"}

// parseTemplates parses base.html with the shared partials once, then
// clones it for every page so each page can define its own content block.
func parseTemplates() (map[string]*template.Template, error) {
	base := template.New("base.html")

	baseContent, err := templatesFS.ReadFile("templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("read base.html: %w", err)
	}
	if _, err = base.Parse(string(baseContent)); err != nil {
		return nil, fmt.Errorf("parse base.html: %w", err)
	}

	switchContent, err := templatesFS.ReadFile("templates/partials/theme-switch.html")
	if err != nil {
		return nil, fmt.Errorf("read theme-switch partial: %w", err)
	}
	if _, err = base.New("theme-switch").Parse(string(switchContent)); err != nil {
		return nil, fmt.Errorf("parse theme-switch partial: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		content, readErr := templatesFS.ReadFile("templates/" + name + ".html")
		if readErr != nil {
			return nil, fmt.Errorf("read %s.html: %w", name, readErr)
		}
		tmpl, cloneErr := base.Clone()
		if cloneErr != nil {
			return nil, fmt.Errorf("clone base for %s: %w", name, cloneErr)
		}
		if _, parseErr := tmpl.New(name).Parse(string(content)); parseErr != nil {
			return nil, fmt.Errorf("parse %s.html: %w", name, parseErr)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// templateData holds data passed to templates. It is also the document
// the theme controller renders into.
type templateData struct {
	Title       string
	Theme       string // root data-theme attribute, theme-dark or theme-light
	Dark        bool   // theme switch checked state
	Message     string
	RedirectURI string
	BaseURL     string
	AuthURL     string
	Accounts    bool // login and register forms have somewhere to post
}

// SetTheme implements theme.Root.
func (d *templateData) SetTheme(attr string) { d.Theme = attr }

// SetChecked implements theme.Control.
func (d *templateData) SetChecked(checked bool) { d.Dark = checked }

// controller makes a theme controller for the request, bound to the
// configured storage, the client hint and the given page view.
// The caller decides between Initialize and Load.
func (h *Handler) controller(w http.ResponseWriter, r *http.Request, view *templateData) (*theme.Controller, error) {
	var st theme.Storage = &cookieStorage{w: w, r: r, path: h.cookiePath()}
	if h.prefs != nil {
		st = store.NewScoped(r.Context(), h.prefs, h.visitor(w, r))
	}
	ctrl, err := theme.New(theme.Bindings{
		Storage: st,
		System:  clientHint{r: r, fallback: h.defaultDark},
		Root:    view,
		Control: view,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make theme controller: %w", err)
	}
	return ctrl, nil
}

// render applies the theme to data and executes the page template.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data templateData) {
	h.renderStatus(w, r, page, data, http.StatusOK)
}

// renderStatus is render with an explicit response status.
func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, page string, data templateData, status int) {
	data.BaseURL = h.baseURL
	data.AuthURL = h.authURL
	data.Accounts = h.authURL != "" || h.accounts != nil
	setClientHintHeaders(w)

	ctrl, err := h.controller(w, r, &data)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := ctrl.Initialize(); err != nil {
		log.Printf("[ERROR] failed to initialize theme: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	tmpl, ok := h.pages[page]
	if !ok {
		log.Printf("[ERROR] unknown page %q", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("[ERROR] failed to execute %s template: %v", page, err)
	}
}

// visitor returns the visitor id from its cookie, issuing a new one if
// the cookie is missing or not a valid uuid.
func (h *Handler) visitor(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(visitorCookieName); err == nil {
		if id, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	h.setVisitor(w, r, id)
	log.Printf("[DEBUG] issued visitor id %s", id)
	return id
}

// setVisitor sets the visitor cookie.
func (h *Handler) setVisitor(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    id,
		Path:     h.cookiePath(),
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// url returns a URL path with the base URL prefix.
func (h *Handler) url(path string) string {
	return h.baseURL + path
}

// cookiePath returns the path for cookies (base URL with trailing slash or "/").
func (h *Handler) cookiePath() string {
	if h.baseURL == "" {
		return "/"
	}
	return h.baseURL + "/"
}

// isSecure reports whether the request came over https, directly or via a proxy.
func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
