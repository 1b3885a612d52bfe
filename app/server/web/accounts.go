package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"

	"github.com/umputun/themer/app/store"
)

// AccountStore keeps registered accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc store.Account) error
	Account(ctx context.Context, username string) (store.Account, error)
}

// login error codes, shown on the login page by loginMessage
const (
	codeUsernameTaken = "1"
	codeInternalError = "4"
)

// maxPasswordLen is the bcrypt input limit.
const maxPasswordLen = 72

// dummyHash is compared against when the user doesn't exist, so a missing
// account takes as long as a wrong password.
const dummyHash = "$2a$10$C615A0mfUEFBupj9qcqhiuBEyf60EqrsakB90CozUoSON8d2Dc1uS"

// handleRegisterSubmit creates an account bound to the current visitor id,
// so the theme chosen before registering follows the account.
func (h *Handler) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	redirectURI := r.PostFormValue("redirect_uri")
	formErr := func(msg string) {
		h.renderStatus(w, r, "register", templateData{Title: "Register", Message: msg, RedirectURI: redirectURI},
			http.StatusBadRequest)
	}

	switch {
	case username == "" || password == "":
		formErr("Username and password are required")
		return
	case len(password) > maxPasswordLen:
		formErr("Password is too long")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[ERROR] failed to hash password for %q: %v", username, err)
		http.Redirect(w, r, h.url("/login?errorCode="+codeInternalError), http.StatusSeeOther)
		return
	}

	acc := store.Account{
		Username: username,
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: string(hash),
		Visitor:  h.visitor(w, r),
	}
	if err := h.accounts.CreateAccount(r.Context(), acc); err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			http.Redirect(w, r, h.url("/login?errorCode="+codeUsernameTaken), http.StatusSeeOther)
			return
		}
		log.Printf("[ERROR] failed to register %q: %v", username, err)
		http.Redirect(w, r, h.url("/login?errorCode="+codeInternalError), http.StatusSeeOther)
		return
	}

	log.Printf("[INFO] registered account %q", username)
	http.Redirect(w, r, h.localURL(r, redirectURI, h.url("/login")), http.StatusSeeOther)
}

// handleLoginSubmit checks credentials and switches the visitor cookie to the
// account's visitor id, so the stored theme follows the account.
func (h *Handler) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	redirectURI := r.PostFormValue("redirect_uri")

	acc, err := h.accounts.Account(r.Context(), username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[ERROR] failed to load account %q: %v", username, err)
		http.Redirect(w, r, h.url("/login?errorCode="+codeInternalError), http.StatusSeeOther)
		return
	}
	found := err == nil

	hashToCheck := dummyHash
	if found {
		hashToCheck = acc.Password
	}
	// always run the comparison to keep timing independent of the username
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(password)); cmpErr != nil || !found {
		log.Printf("[INFO] failed login for %q", username)
		h.renderStatus(w, r, "login", templateData{Title: "Login", Message: "Invalid username or password",
			RedirectURI: redirectURI}, http.StatusUnauthorized)
		return
	}

	h.setVisitor(w, r, acc.Visitor)
	log.Printf("[INFO] login %q", username)
	http.Redirect(w, r, h.localURL(r, redirectURI, h.url("/")), http.StatusSeeOther)
}
