package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/themer/app/enum"
	"github.com/umputun/themer/app/server"
	"github.com/umputun/themer/app/server/web"
	"github.com/umputun/themer/app/store"
	"github.com/umputun/themer/app/theme"
)

// SharedOptions contains options shared between the visitor commands
type SharedOptions struct {
	DB      string `short:"d" long:"db" env:"THEMER_DB" default:"themer.db" description:"database URL (sqlite file or postgres://...)"`
	Visitor string `long:"visitor" env:"THEMER_VISITOR" required:"true" description:"visitor id"`
	System  string `long:"system" env:"THEMER_SYSTEM" choice:"auto" choice:"dark" choice:"light" default:"auto" description:"system colour-scheme preference, auto detects the terminal background"`
	Debug   bool   `long:"dbg" env:"DEBUG" description:"debug mode"`

	out io.Writer
}

// ServerCmd implements the server subcommand
type ServerCmd struct {
	DB      string `short:"d" long:"db" env:"THEMER_DB" default:"themer.db" description:"database URL (sqlite file or postgres://...), used with the db backend"`
	Backend string `long:"backend" env:"THEMER_BACKEND" choice:"cookie" choice:"db" default:"cookie" description:"where theme preferences are kept"`

	Server struct {
		Address         string        `long:"address" env:"ADDRESS" default:":8080" description:"server listen address"`
		ReadTimeout     time.Duration `long:"read-timeout" env:"READ_TIMEOUT" default:"5s" description:"read timeout"`
		WriteTimeout    time.Duration `long:"write-timeout" env:"WRITE_TIMEOUT" default:"30s" description:"write timeout"`
		IdleTimeout     time.Duration `long:"idle-timeout" env:"IDLE_TIMEOUT" default:"30s" description:"idle timeout"`
		ShutdownTimeout time.Duration `long:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"10s" description:"graceful shutdown timeout"`
		BaseURL         string        `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /themer)"`
		AuthURL         string        `long:"auth-url" env:"AUTH_URL" description:"service receiving login and register forms"`
		BodySizeLimit   int64         `long:"body-limit" env:"BODY_LIMIT" default:"65536" description:"max request body size in bytes"`
		RequestsPerSec  int64         `long:"rps" env:"RPS" default:"1000" description:"max requests per second"`
	} `group:"server" namespace:"server" env-namespace:"THEMER_SERVER"`

	Theme struct {
		DefaultDark bool `long:"default-dark" env:"DEFAULT_DARK" description:"use dark theme when the browser sends no colour-scheme hint"`
	} `group:"theme" namespace:"theme" env-namespace:"THEMER_THEME"`

	Cache struct {
		MaxKeys int `long:"max-keys" env:"MAX_KEYS" default:"10000" description:"max cached preferences, 0 disables cache"`
	} `group:"cache" namespace:"cache" env-namespace:"THEMER_CACHE"`

	Debug bool `long:"dbg" env:"DEBUG" description:"debug mode"`

	ctx    context.Context
	cancel context.CancelFunc
}

// Execute runs the server command
func (s *ServerCmd) Execute(_ []string) error {
	setupLogs(s.Debug)

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
		signals(s.cancel)
	}

	return s.run(s.ctx)
}

func (s *ServerCmd) run(ctx context.Context) error {
	baseURL, err := validateBaseURL(s.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	backend, err := enum.ParseBackend(s.Backend)
	if err != nil {
		return fmt.Errorf("invalid backend: %w", err)
	}

	log.Printf("[INFO] starting themer server on %s, %s backend", s.Server.Address, backend)
	if baseURL != "" {
		log.Printf("[INFO] base URL: %s", baseURL)
	}

	var prefs web.PrefStore // nil keeps preferences in cookies
	var accounts web.AccountStore
	if backend == enum.BackendDB {
		st, closeFn, stErr := openStore(s.DB, s.Cache.MaxKeys)
		if stErr != nil {
			return stErr
		}
		defer closeFn()
		prefs, accounts = st, st
	}

	srv, err := server.New(prefs, server.Config{
		Address:         s.Server.Address,
		ReadTimeout:     s.Server.ReadTimeout,
		WriteTimeout:    s.Server.WriteTimeout,
		IdleTimeout:     s.Server.IdleTimeout,
		ShutdownTimeout: s.Server.ShutdownTimeout,
		Version:         revision,
		BaseURL:         baseURL,
		AuthURL:         strings.TrimSuffix(s.Server.AuthURL, "/"),
		DefaultDark:     s.Theme.DefaultDark,
		Accounts:        accounts,
		BodySizeLimit:   s.Server.BodySizeLimit,
		RequestsPerSec:  s.Server.RequestsPerSec,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// openStore opens the preference store, wrapped with a cache when maxKeys > 0.
func openStore(dbURL string, maxKeys int) (store.Interface, func(), error) {
	st, err := store.New(dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if maxKeys <= 0 {
		return st, func() { _ = st.Close() }, nil
	}
	cached, err := store.NewCached(st, maxKeys)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return cached, func() { _ = cached.Close() }, nil
}

// validateBaseURL normalizes base URL: adds leading slash, strips trailing one.
func validateBaseURL(u string) (string, error) {
	if u == "" || u == "/" {
		return "", nil
	}
	if strings.Contains(u, "://") || strings.ContainsAny(u, "?# {}") {
		return "", fmt.Errorf("base URL must be a path, got %q", u)
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return strings.TrimSuffix(u, "/"), nil
}

// ShowCmd implements the show subcommand
type ShowCmd struct {
	SharedOptions
}

// Execute prints the visitor's theme. A visitor without a stored preference
// gets the system one, which is stored from then on.
func (c *ShowCmd) Execute(_ []string) error {
	setupLogs(c.Debug)
	return c.withController(func(ctrl *theme.Controller, view *terminalView) error {
		if err := ctrl.Apply(); err != nil {
			return fmt.Errorf("failed to apply theme for %s: %w", c.Visitor, err)
		}
		_, err := fmt.Fprintln(c.output(), view.Render())
		return err //nolint:wrapcheck // terminal write
	})
}

// ToggleCmd implements the toggle subcommand
type ToggleCmd struct {
	SharedOptions
}

// Execute flips the visitor's theme and prints the new one.
func (c *ToggleCmd) Execute(_ []string) error {
	setupLogs(c.Debug)
	return c.withController(func(ctrl *theme.Controller, view *terminalView) error {
		if err := ctrl.Toggle(); err != nil {
			return fmt.Errorf("failed to toggle theme for %s: %w", c.Visitor, err)
		}
		log.Printf("[INFO] visitor %s switched to %s theme", c.Visitor, ctrl.Theme())
		_, err := fmt.Fprintln(c.output(), view.Render())
		return err //nolint:wrapcheck // terminal write
	})
}

// withController opens the store, loads the visitor's preference into a
// controller rendering into a terminal view, and calls fn with it.
// fn applies the preference, so each command writes once.
func (o *SharedOptions) withController(fn func(*theme.Controller, *terminalView) error) error {
	st, err := store.New(o.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	view := &terminalView{}
	ctrl, err := theme.New(theme.Bindings{
		Storage: store.NewScoped(context.Background(), st, o.Visitor),
		System:  terminalPreference(o.System),
		Root:    view,
		Control: view,
	})
	if err != nil {
		return fmt.Errorf("failed to make theme controller: %w", err)
	}
	ctrl.Load()
	return fn(ctrl, view)
}

func (o *SharedOptions) output() io.Writer {
	if o.out != nil {
		return o.out
	}
	return os.Stdout
}
