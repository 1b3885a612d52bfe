//go:build js && wasm

// Command wasm runs the theme controller inside a browser page. It binds
// localStorage, the prefers-color-scheme media query, the document root and
// the #darkModeSwitch checkbox, and exports window.toggleTheme for the page.
package main

import (
	"fmt"
	"syscall/js"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/themer/app/theme"
)

func main() {
	doc := js.Global().Get("document")

	var control theme.Control
	if el := doc.Call("getElementById", theme.ControlID); el.Truthy() {
		control = checkbox{el: el}
	}

	ctrl, err := theme.New(theme.Bindings{
		Storage: localStorage{ls: js.Global().Get("localStorage")},
		System:  mediaQuery{query: "(prefers-color-scheme: dark)"},
		Root:    root{el: doc.Get("documentElement")},
		Control: control,
	})
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return
	}
	if err := ctrl.Initialize(); err != nil {
		log.Printf("[WARN] %v", err)
	}

	toggle := js.FuncOf(func(js.Value, []js.Value) any {
		if err := ctrl.Toggle(); err != nil {
			log.Printf("[WARN] %v", err)
		}
		return nil
	})
	defer toggle.Release()
	js.Global().Set("toggleTheme", toggle)

	select {}
}

// localStorage implements theme.Storage on window.localStorage.
type localStorage struct{ ls js.Value }

func (s localStorage) Get(key string) (val string, err error) {
	defer recoverJS(&err)
	v := s.ls.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", theme.ErrNotFound
	}
	return v.String(), nil
}

// Set may throw (quota, disabled storage), the exception becomes an error.
func (s localStorage) Set(key, value string) (err error) {
	defer recoverJS(&err)
	s.ls.Call("setItem", key, value)
	return nil
}

type mediaQuery struct{ query string }

func (m mediaQuery) PrefersDark() bool {
	mm := js.Global().Get("matchMedia")
	if !mm.Truthy() {
		return false
	}
	return js.Global().Call("matchMedia", m.query).Get("matches").Bool()
}

type root struct{ el js.Value }

func (r root) SetTheme(attr string) { r.el.Get("dataset").Set("theme", attr) }

type checkbox struct{ el js.Value }

func (c checkbox) SetChecked(checked bool) { c.el.Set("checked", checked) }

// recoverJS turns a thrown JS exception into an error.
func recoverJS(err *error) {
	if x := recover(); x != nil {
		if jsErr, ok := x.(js.Error); ok {
			*err = fmt.Errorf("storage: %w", jsErr)
			return
		}
		panic(x)
	}
}
