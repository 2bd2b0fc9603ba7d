package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cardcheck/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCookie(t *testing.T) {
	m := NewManager(Options{})
	assert.Equal(t, CookieName, m.Cookie.Name)
	assert.True(t, m.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, m.Cookie.SameSite)
	assert.False(t, m.Cookie.Secure)
	assert.Equal(t, DefaultTTL, m.Lifetime)

	secure := NewManager(Options{Lifetime: time.Hour, CookieSecure: true})
	assert.True(t, secure.Cookie.Secure)
	assert.Equal(t, time.Hour, secure.Lifetime)
}

func TestCreateSessionRoundTrip(t *testing.T) {
	m := NewManager(Options{})

	var cookie *http.Cookie
	login := m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.CreateSession(r.Context(), types.NewUser("u1", "Jane")))
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	for _, c := range rec.Result().Cookies() {
		if c.Name == "cc_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "expected session cookie")

	var got *types.User
	read := m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = m.UserFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	read.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "Jane", got.FirstName)
}

func TestUserFromContextEmpty(t *testing.T) {
	m := NewManager(Options{})
	var ok bool
	h := m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = m.UserFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)

	_, ok = m.UserFromContext(nil)
	assert.False(t, ok)
}

func TestCreateSessionRenewsToken(t *testing.T) {
	m := NewManager(Options{})

	var before string
	h := m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Put(r.Context(), "visited", true)
		before = m.Token(r.Context())
		require.NoError(t, m.CreateSession(r.Context(), types.NewUser("u1", "")))
		assert.NotEqual(t, before, m.Token(r.Context()))

		u, ok := m.UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "", u.GetFirstName())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))
}
