package web

import (
	"net/http"
	"strings"

	"github.com/umputun/themer/app/theme"
)

// colorSchemeHint is the client hint carrying the user agent's colour-scheme preference.
const colorSchemeHint = "Sec-CH-Prefers-Color-Scheme"

// cookieStorage keeps the preference in a browser cookie named after the key.
// Values written during the request are visible to later reads.
type cookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	path    string
	written map[string]string
}

// Get returns the cookie value or theme.ErrNotFound.
func (c *cookieStorage) Get(key string) (string, error) {
	if v, ok := c.written[key]; ok {
		return v, nil
	}
	cookie, err := c.r.Cookie(key)
	if err != nil {
		return "", theme.ErrNotFound
	}
	return cookie.Value, nil
}

// Set writes the cookie to the response.
func (c *cookieStorage) Set(key, value string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     c.path,
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure(c.r),
		SameSite: http.SameSiteLaxMode,
	})
	if c.written == nil {
		c.written = map[string]string{}
	}
	c.written[key] = value
	return nil
}

// clientHint reads the colour-scheme client hint, falling back when the
// browser did not send it.
type clientHint struct {
	r        *http.Request
	fallback bool
}

// PrefersDark implements theme.SystemPreference.
func (c clientHint) PrefersDark() bool {
	// structured header token, sent quoted: "dark"
	val := strings.ToLower(strings.Trim(strings.TrimSpace(c.r.Header.Get(colorSchemeHint)), `"`))
	switch val {
	case "dark":
		return true
	case "light":
		return false
	default:
		return c.fallback
	}
}

// setClientHintHeaders asks the browser to send the colour-scheme hint,
// retrying the first request with it, and marks responses as varying on it.
func setClientHintHeaders(w http.ResponseWriter) {
	w.Header().Set("Accept-CH", colorSchemeHint)
	w.Header().Set("Critical-CH", colorSchemeHint)
	w.Header().Add("Vary", colorSchemeHint)
}
