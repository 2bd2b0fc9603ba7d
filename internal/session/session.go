// Package session remembers who logged in through the portal's login form.
// The login record lives server-side in an scs memstore; the browser only
// holds the cc_session token.
package session

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"cardcheck/internal/routes"
	"cardcheck/internal/types"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
)

const (
	CookieName = "cc_session"
	DefaultTTL = 24 * time.Hour

	loginKey = "login"
)

// loginRecord is what a successful POST /login leaves in the session.
type loginRecord struct {
	User       *types.User
	LoggedInAt time.Time
}

func init() {
	gob.Register(loginRecord{})
}

type loginRecordKey struct{}

// Manager is an scs session manager that knows about portal logins.
type Manager struct {
	*scs.SessionManager
}

type Options struct {
	// Lifetime bounds a login; zero means DefaultTTL.
	Lifetime     time.Duration
	CookieSecure bool
}

func NewManager(opts Options) *Manager {
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultTTL
	}

	sm := scs.New()
	sm.Store = memstore.New()
	sm.Lifetime = lifetime
	sm.Cookie = scs.SessionCookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Persist:  true,
		SameSite: http.SameSiteLaxMode,
		Secure:   opts.CookieSecure,
	}
	return &Manager{SessionManager: sm}
}

// CreateSession logs u in. The token is renewed first so a token handed out
// before login can never carry the logged-in user.
func (m *Manager) CreateSession(ctx context.Context, u *types.User) error {
	if err := m.RenewToken(ctx); err != nil {
		return err
	}
	m.Put(ctx, loginKey, loginRecord{User: u, LoggedInAt: time.Now()})
	return nil
}

// UserFromContext returns the logged-in user of the request behind ctx.
// Inside RequireLogin the record is already on ctx; elsewhere it is read
// from the scs session loaded by LoadAndSave.
func (m *Manager) UserFromContext(ctx context.Context) (*types.User, bool) {
	if ctx == nil {
		return nil, false
	}
	rec, ok := ctx.Value(loginRecordKey{}).(loginRecord)
	if !ok {
		rec, ok = m.record(ctx)
	}
	if !ok || rec.User == nil {
		return nil, false
	}
	return rec.User, true
}

func (m *Manager) record(ctx context.Context) (loginRecord, bool) {
	rec, ok := m.Get(ctx, loginKey).(loginRecord)
	return rec, ok && rec.User != nil
}

// DestroySession logs the user out and drops the token.
func (m *Manager) DestroySession(ctx context.Context) error {
	return m.Destroy(ctx)
}

// RequireLogin is huma middleware that bounces anonymous requests to the
// login form at the index route.
func (m *Manager) RequireLogin() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		rec, ok := m.record(ctx.Context())
		if !ok {
			req, w := humachi.Unwrap(ctx)
			http.Redirect(w, req, routes.Path(routes.Index), http.StatusSeeOther)
			return
		}
		next(huma.WithValue(ctx, loginRecordKey{}, rec))
	}
}
