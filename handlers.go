package main

import (
	"net/http"
	"strings"

	"cardcheck/internal/logger"
	"cardcheck/internal/routes"
	"cardcheck/internal/types"
	"cardcheck/internal/view"

	validator "github.com/go-playground/validator/v10"
)

const (
	cacheControlValue = "no-store, no-cache, must-revalidate, max-age=0"
	pragmaValue       = "no-cache"
	expiresValue      = "0"

	maxFormMemory = 1 << 20
)

var formValidator = validator.New()

// loginForm holds the submitted values exactly as sent: no trimming and no
// case folding. FirstName is DefaultFirstName only when the field is missing.
type loginForm struct {
	UserID    string `validate:"required"`
	FirstName string
}

func parseLoginForm(r *http.Request) (loginForm, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return loginForm{}, err
	}
	form := loginForm{
		UserID:    r.PostForm.Get("user_id"),
		FirstName: types.DefaultFirstName,
	}
	if values, ok := r.PostForm["first_name"]; ok && len(values) > 0 {
		form.FirstName = values[0]
	}
	return form, nil
}

func (p *portal) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	form, err := parseLoginForm(r)
	if err != nil {
		loginAttempts.WithLabelValues("invalid_form").Inc()
		p.serveLogin(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	if err := formValidator.Struct(form); err != nil {
		loginAttempts.WithLabelValues("missing_user_id").Inc()
		http.Redirect(w, r, routes.Path(routes.Index), http.StatusSeeOther)
		return
	}

	user := types.NewUser(form.UserID, form.FirstName)
	if err := p.sessions.CreateSession(r.Context(), user); err != nil {
		loginAttempts.WithLabelValues("error").Inc()
		logger.Log.Errorw("session create failed", "user_id", user.GetID(), "err", err)
		p.serveLogin(w, http.StatusInternalServerError, "Login failed.")
		return
	}

	loginAttempts.WithLabelValues("success").Inc()
	logger.Log.Infow("user logged in", "user_id", user.GetID(), "first_name", user.GetFirstName())
	http.Redirect(w, r, routes.Path(routes.Dashboard), http.StatusSeeOther)
}

func (p *portal) serveLogin(w http.ResponseWriter, status int, message string) {
	setNoCacheHeaders(w)
	if err := p.views.Render(w, status, view.PageLogin, view.LoginPage{Error: message}); err != nil {
		logger.Log.Errorw("render login page", "err", err)
	}
}

func setNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", cacheControlValue)
	w.Header().Set("Pragma", pragmaValue)
	w.Header().Set("Expires", expiresValue)
}

func (p *portal) handleIndex(w http.ResponseWriter, r *http.Request) {
	if user, ok := p.sessions.UserFromContext(r.Context()); ok && p.accounts.IsAuthorized(r.Context(), user.GetID()) {
		http.Redirect(w, r, routes.Path(routes.Dashboard), http.StatusSeeOther)
		return
	}
	p.serveLogin(w, http.StatusOK, "")
}

func (p *portal) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	p.serveLogin(w, http.StatusOK, "")
}

func (p *portal) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := p.sessions.DestroySession(r.Context()); err != nil {
		logger.Log.Errorw("session destroy failed", "err", err)
	}
	http.Redirect(w, r, routes.Path(routes.Index), http.StatusSeeOther)
}

func (p *portal) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if err := p.views.Render(w, http.StatusNotFound, view.PageNotFound, nil); err != nil {
		logger.Log.Errorw("render not found page", "err", err)
	}
}
