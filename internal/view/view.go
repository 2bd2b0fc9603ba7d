// Package view renders the portal's HTML pages. Every page is a content
// fragment executed inside templates/base.html.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"cardcheck/internal/accounts"
	"cardcheck/internal/routes"
	"cardcheck/internal/types"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Static serves the stylesheet and other assets under /static/.
func Static() fs.FS {
	return staticFiles
}

const (
	PageLogin        = "login.html"
	PageRegister     = "register.html"
	PageDashboard    = "dashboard.html"
	PageSubscription = "subscription.html"
	PageRedeem       = "redeem.html"
	PageAdmin        = "admin.html"
	PageNotFound     = "404.html"
	PageServerError  = "500.html"
)

const baseTemplate = "base.html"

var pages = []string{
	PageLogin,
	PageRegister,
	PageDashboard,
	PageSubscription,
	PageRedeem,
	PageAdmin,
	PageNotFound,
	PageServerError,
}

type LoginPage struct {
	Error string
}

type RegisterPage struct {
	User  *types.User
	Error string
}

type DashboardPage struct {
	User      *types.User
	IsAdmin   bool
	IsPremium bool
}

type SubscriptionPage struct {
	Status string
	Expiry string
}

type RedeemPage struct {
	Error   string
	Success string
}

// AdminPage carries the account overview; Error replaces it when the store
// could not be read.
type AdminPage struct {
	Stats accounts.Stats
	Error string
}

type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the base layout.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"url_for": routes.URLFor,
		"expiry":  formatExpiry,
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(baseTemplate).
			Funcs(funcs).
			ParseFS(templateFiles, "templates/"+baseTemplate, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(accounts.ExpiryLayout)
}

// Execute renders page into a buffer. Nothing is returned on error, so a
// failed render never leaves half a page behind.
func (r *Renderer) Execute(page string, data any) ([]byte, error) {
	tmpl, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return buf.Bytes(), nil
}

// Render writes page with the given status. On a render failure it falls
// back to the 500 page and returns the original error.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	body, err := r.Execute(page, data)
	if err != nil {
		r.renderServerError(w)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

func (r *Renderer) renderServerError(w http.ResponseWriter) {
	body, err := r.Execute(PageServerError, nil)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}
