// Package theme implements the dark/light theme controller. The controller
// keeps a single dark flag, reflects it onto a document root attribute and a
// checkbox control, and persists it. All environment access goes through
// bindings supplied at construction, so the same controller drives a browser
// page, a server-rendered page and a terminal.
package theme

import (
	"errors"
	"fmt"
	"strconv"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/themer/app/enum"
)

const (
	// Key is the storage key holding the persisted preference.
	Key = "dark"
	// ControlID is the element id of the checkbox reflecting the preference.
	ControlID = "darkModeSwitch"
	// DataAttribute is the root element attribute selecting the stylesheet.
	DataAttribute = "data-theme"
)

// ErrNotFound is returned by Storage.Get when no preference is persisted.
var ErrNotFound = errors.New("preference not found")

// Storage persists the preference as a string.
// Get returns ErrNotFound if nothing is stored under the key.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// SystemPreference reports the platform colour-scheme preference.
type SystemPreference interface {
	PrefersDark() bool
}

// SystemFunc adapts a func to SystemPreference.
type SystemFunc func() bool

// PrefersDark calls f.
func (f SystemFunc) PrefersDark() bool { return f() }

// Root is the document root receiving the theme attribute.
type Root interface {
	SetTheme(attr string)
}

// Control is the checkbox showing the current preference.
type Control interface {
	SetChecked(checked bool)
}

// Bindings are the environment handles a Controller works with.
// Control is optional, a nil Control is skipped on Apply.
type Bindings struct {
	Storage Storage
	System  SystemPreference
	Root    Root
	Control Control
	Key     string // storage key, defaults to Key
}

// Controller owns the preference. It is not safe for concurrent use,
// every host keeps its own instance.
type Controller struct {
	storage Storage
	system  SystemPreference
	root    Root
	control Control
	key     string
	dark    bool
}

// New makes a Controller from bindings. Call Initialize before use.
func New(b Bindings) (*Controller, error) {
	if b.Storage == nil {
		return nil, errors.New("storage binding is required")
	}
	if b.System == nil {
		return nil, errors.New("system preference binding is required")
	}
	if b.Root == nil {
		return nil, errors.New("root binding is required")
	}
	key := b.Key
	if key == "" {
		key = Key
	}
	return &Controller{storage: b.Storage, system: b.System, root: b.Root, control: b.Control, key: key}, nil
}

// Initialize determines the starting preference and applies it.
// A persisted value wins, otherwise the system preference is used.
// A failing read is treated the same as a missing value.
func (c *Controller) Initialize() error {
	c.Load()
	return c.Apply()
}

// Load resolves the preference from storage or the system signal without
// persisting it or touching the view. Toggle after Load writes once.
func (c *Controller) Load() {
	val, err := c.storage.Get(c.key)
	switch {
	case err == nil:
		c.dark = Decode(val)
	case errors.Is(err, ErrNotFound):
		c.dark = c.system.PrefersDark()
	default:
		log.Printf("[WARN] can't read theme preference %q, using system preference: %v", c.key, err)
		c.dark = c.system.PrefersDark()
	}
}

// Apply persists the current preference, then updates the control and the root.
// The view is left untouched if persisting fails.
func (c *Controller) Apply() error {
	if err := c.storage.Set(c.key, Encode(c.dark)); err != nil {
		return fmt.Errorf("failed to persist theme preference: %w", err)
	}
	if c.control != nil {
		c.control.SetChecked(c.dark)
	}
	c.root.SetTheme(c.Attribute())
	return nil
}

// Toggle flips the preference and applies it. On failure the preference
// is restored and nothing observable changes.
func (c *Controller) Toggle() error {
	c.dark = !c.dark
	if err := c.Apply(); err != nil {
		c.dark = !c.dark
		return err
	}
	log.Printf("[DEBUG] theme toggled to %s", c.Theme())
	return nil
}

// Dark reports whether the dark theme is active.
func (c *Controller) Dark() bool { return c.dark }

// Theme returns the active theme.
func (c *Controller) Theme() enum.Theme { return enum.ThemeOf(c.dark) }

// Attribute returns the root attribute value for the active theme.
func (c *Controller) Attribute() string { return c.Theme().Attribute() }

// Encode converts the preference to its persisted form, "true" or "false".
func Encode(dark bool) string { return strconv.FormatBool(dark) }

// Decode converts a persisted value back. Only the literal "true" is dark,
// anything else is light.
func Decode(val string) bool { return val == "true" }
