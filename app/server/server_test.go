package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/themer/app/store"
)

func TestServer_Ping(t *testing.T) {
	srv := newTestServer(t, Config{Version: "test"})

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, "themer", rec.Header().Get("App-Name"))
	assert.Equal(t, "test", rec.Header().Get("App-Version"))
}

func TestServer_Static(t *testing.T) {
	srv := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/static/css/theme.css", http.NoBody)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `[data-theme="theme-dark"]`)
}

func TestServer_Pages(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, path := range []string{"/", "/login", "/register"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
			rec := httptest.NewRecorder()
			srv.routes().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `id="darkModeSwitch"`)
		})
	}

	t.Run("unknown page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("toggle requires post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/web/theme", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)
		assert.Contains(t, []int{http.StatusMethodNotAllowed, http.StatusNotFound}, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestServer_ToggleFlow(t *testing.T) {
	srv := newTestServer(t, Config{})
	h := srv.handler()

	// first load with dark system preference
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", `"dark"`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-theme="theme-dark"`)
	pref := themeCookie(t, rec)
	assert.Equal(t, "true", pref.Value)

	// toggle
	req = httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
	req.AddCookie(pref)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	pref = themeCookie(t, rec)
	assert.Equal(t, "false", pref.Value)

	// reload keeps the toggled preference over the hint
	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", `"dark"`)
	req.AddCookie(pref)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `data-theme="theme-light"`)
	assert.NotContains(t, rec.Body.String(), "checked")
}

func TestServer_BaseURL(t *testing.T) {
	srv := newTestServer(t, Config{BaseURL: "/themer"})
	h := srv.handler()

	t.Run("redirects bare base", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/themer", http.NoBody)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/themer/", rec.Header().Get("Location"))
	})

	t.Run("serves page under base", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/themer/", http.NoBody)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `action="/themer/web/theme"`)
		assert.Equal(t, "/themer/", themeCookie(t, rec).Path)
	})

	t.Run("toggle redirects under base", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/themer/web/theme", http.NoBody)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/themer/", rec.Header().Get("Location"))
	})
}

func TestServer_DBBackend(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer st.Close()
	cached, err := store.NewCached(st, 10)
	require.NoError(t, err)

	srv, err := New(cached, Config{})
	require.NoError(t, err)
	h := srv.handler()

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", `"light"`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var visitor *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "themer-visitor" {
			visitor = c
		}
	}
	require.NotNil(t, visitor)

	req = httptest.NewRequest(http.MethodPost, "/web/theme", http.NoBody)
	req.AddCookie(visitor)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	val, err := st.Get(context.Background(), visitor.Value, "dark")
	require.NoError(t, err)
	assert.Equal(t, "true", val)
}

func TestServer_Accounts(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer st.Close()

	srv, err := New(st, Config{BaseURL: "/themer", Accounts: st})
	require.NoError(t, err)
	h := srv.handler()

	postForm := func(path string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := postForm("/themer/register", url.Values{"username": {"alice"}, "password": {"secret"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/themer/login", rec.Header().Get("Location"))

	rec = postForm("/themer/register", url.Values{"username": {"alice"}, "password": {"secret"}})
	assert.Equal(t, "/themer/login?errorCode=1", rec.Header().Get("Location"))

	rec = postForm("/themer/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/themer/", rec.Header().Get("Location"))

	rec = postForm("/themer/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_Run(t *testing.T) {
	srv := newTestServer(t, Config{Address: "127.0.0.1:18585", ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18585/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_Defaults(t *testing.T) {
	srv := newTestServer(t, Config{})
	assert.Equal(t, int64(64*1024), srv.bodySizeLimit())
	assert.Equal(t, int64(1000), srv.requestsPerSec())
	assert.Equal(t, 10*time.Second, srv.shutdownTimeout())

	srv = newTestServer(t, Config{BodySizeLimit: 10, RequestsPerSec: 5, ShutdownTimeout: time.Second})
	assert.Equal(t, int64(10), srv.bodySizeLimit())
	assert.Equal(t, int64(5), srv.requestsPerSec())
	assert.Equal(t, time.Second, srv.shutdownTimeout())
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	srv, err := New(nil, cfg)
	require.NoError(t, err)
	return srv
}

func themeCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var res *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "dark" {
			res = c
		}
	}
	require.NotNil(t, res, "theme cookie expected")
	return res
}
