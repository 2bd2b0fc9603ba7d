package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cardcheck/internal/accounts"
	"cardcheck/internal/logger"
	"cardcheck/internal/routes"
	"cardcheck/internal/types"
	"cardcheck/internal/view"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
)

type healthBody struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type healthOutput struct {
	Body healthBody
}

func registerHealth(api huma.API) {
	huma.Get(api, routes.Path(routes.Health), func(_ context.Context, _ *struct{}) (*healthOutput, error) {
		return &healthOutput{Body: healthBody{Status: "healthy", Timestamp: time.Now()}}, nil
	}, func(op *huma.Operation) {
		op.Hidden = true
	})
}

// requireAuthorized sends logged-in users that are neither registered,
// premium nor admin to the registration page.
func (p *portal) requireAuthorized() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		user, ok := p.sessions.UserFromContext(ctx.Context())
		if !ok || !p.accounts.IsAuthorized(ctx.Context(), user.GetID()) {
			req, w := humachi.Unwrap(ctx)
			http.Redirect(w, req, routes.Path(routes.Register), http.StatusSeeOther)
			return
		}
		next(ctx)
	}
}

// requireAdmin keeps everyone but admins on the dashboard.
func (p *portal) requireAdmin() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		user, ok := p.sessions.UserFromContext(ctx.Context())
		if !ok || !p.accounts.IsAdmin(ctx.Context(), user.GetID()) {
			req, w := humachi.Unwrap(ctx)
			http.Redirect(w, req, routes.Path(routes.Dashboard), http.StatusSeeOther)
			return
		}
		next(ctx)
	}
}

// htmlPage adapts a plain page handler to a hidden huma operation.
func (p *portal) htmlPage(render func(ctx context.Context, w http.ResponseWriter, r *http.Request, user *types.User)) func(context.Context, *struct{}) (*huma.StreamResponse, error) {
	return func(_ context.Context, _ *struct{}) (*huma.StreamResponse, error) {
		return &huma.StreamResponse{
			Body: func(ctx huma.Context) {
				req, w := humachi.Unwrap(ctx)
				user, ok := p.sessions.UserFromContext(ctx.Context())
				if !ok {
					http.Redirect(w, req, routes.Path(routes.Index), http.StatusSeeOther)
					return
				}
				setNoCacheHeaders(w)
				render(ctx.Context(), w, req, user)
			},
		}, nil
	}
}

func hidden(op *huma.Operation) {
	op.Hidden = true
}

func registerPages(api huma.API, p *portal) {
	members := huma.NewGroup(api)
	members.UseMiddleware(p.sessions.RequireLogin(), p.requireAuthorized())

	huma.Get(members, routes.Path(routes.Dashboard), p.htmlPage(p.renderDashboard), hidden)
	huma.Get(members, routes.Path(routes.Subscription), p.htmlPage(p.renderSubscription), hidden)

	// A key can be redeemed before registering, so /redeem only needs a
	// session.
	pending := huma.NewGroup(api)
	pending.UseMiddleware(p.sessions.RequireLogin())

	huma.Get(pending, routes.Path(routes.Register), p.htmlPage(p.renderRegister), hidden)
	huma.Post(pending, routes.Path(routes.Register), p.htmlPage(p.registerUser), hidden)
	huma.Get(pending, routes.Path(routes.Redeem), p.htmlPage(p.renderRedeem), hidden)
	huma.Post(pending, routes.Path(routes.Redeem), p.htmlPage(p.redeemKey), hidden)

	admins := huma.NewGroup(api)
	admins.UseMiddleware(p.sessions.RequireLogin(), p.requireAdmin())

	huma.Get(admins, routes.Path(routes.Admin), p.htmlPage(p.renderAdmin), hidden)
}

func (p *portal) renderDashboard(ctx context.Context, w http.ResponseWriter, _ *http.Request, user *types.User) {
	tier := p.accounts.Tier(ctx, user.GetID())
	page := view.DashboardPage{
		User:      user,
		IsAdmin:   tier.Admin,
		IsPremium: p.accounts.IsPremium(ctx, user.GetID()),
	}
	if err := p.views.Render(w, http.StatusOK, view.PageDashboard, page); err != nil {
		logger.Log.Errorw("render dashboard page", "err", err)
	}
}

func (p *portal) renderSubscription(ctx context.Context, w http.ResponseWriter, _ *http.Request, user *types.User) {
	sub := p.accounts.Subscription(ctx, user.GetID())
	page := view.SubscriptionPage{Status: sub.Status, Expiry: sub.Expiry}
	if err := p.views.Render(w, http.StatusOK, view.PageSubscription, page); err != nil {
		logger.Log.Errorw("render subscription page", "err", err)
	}
}

func (p *portal) renderRegister(_ context.Context, w http.ResponseWriter, _ *http.Request, user *types.User) {
	p.serveRegister(w, http.StatusOK, user, "")
}

func (p *portal) serveRegister(w http.ResponseWriter, status int, user *types.User, message string) {
	page := view.RegisterPage{User: user, Error: message}
	if err := p.views.Render(w, status, view.PageRegister, page); err != nil {
		logger.Log.Errorw("render register page", "err", err)
	}
}

func (p *portal) registerUser(ctx context.Context, w http.ResponseWriter, r *http.Request, user *types.User) {
	if err := p.accounts.Register(ctx, user.GetID(), user.GetFirstName()); err != nil {
		logger.Log.Errorw("register user failed", "user_id", user.GetID(), "err", err)
		if errors.Is(err, accounts.ErrUnavailable) {
			registrations.WithLabelValues("unavailable").Inc()
			p.serveRegister(w, http.StatusServiceUnavailable, user, "Database connection failed")
			return
		}
		registrations.WithLabelValues("error").Inc()
		p.serveRegister(w, http.StatusInternalServerError, user, "Registration failed")
		return
	}
	registrations.WithLabelValues("success").Inc()
	http.Redirect(w, r, routes.Path(routes.Dashboard), http.StatusSeeOther)
}

func (p *portal) renderRedeem(_ context.Context, w http.ResponseWriter, _ *http.Request, _ *types.User) {
	p.serveRedeem(w, http.StatusOK, view.RedeemPage{})
}

func (p *portal) serveRedeem(w http.ResponseWriter, status int, page view.RedeemPage) {
	if err := p.views.Render(w, status, view.PageRedeem, page); err != nil {
		logger.Log.Errorw("render redeem page", "err", err)
	}
}

func (p *portal) redeemKey(ctx context.Context, w http.ResponseWriter, r *http.Request, user *types.User) {
	if err := r.ParseForm(); err != nil {
		redemptions.WithLabelValues("invalid_form").Inc()
		p.serveRedeem(w, http.StatusBadRequest, view.RedeemPage{Error: "Invalid form submission."})
		return
	}
	key := r.PostForm.Get("key")
	if key == "" {
		redemptions.WithLabelValues("missing_key").Inc()
		p.serveRedeem(w, http.StatusBadRequest, view.RedeemPage{Error: "Please enter a key"})
		return
	}

	redemption, err := p.accounts.Redeem(ctx, user.GetID(), user.GetFirstName(), key)
	switch {
	case err == nil:
	case errors.Is(err, accounts.ErrKeyInvalid):
		redemptions.WithLabelValues("invalid_key").Inc()
		p.serveRedeem(w, http.StatusBadRequest, view.RedeemPage{Error: "Invalid or already used key"})
		return
	case errors.Is(err, accounts.ErrUnavailable):
		logger.Log.Errorw("redeem key failed", "user_id", user.GetID(), "err", err)
		redemptions.WithLabelValues("unavailable").Inc()
		p.serveRedeem(w, http.StatusServiceUnavailable, view.RedeemPage{Error: "Database connection failed"})
		return
	default:
		logger.Log.Errorw("redeem key failed", "user_id", user.GetID(), "err", err)
		redemptions.WithLabelValues("error").Inc()
		p.serveRedeem(w, http.StatusInternalServerError, view.RedeemPage{Error: "Error redeeming key"})
		return
	}

	redemptions.WithLabelValues("success").Inc()
	logger.Log.Infow("premium key redeemed", "user_id", user.GetID(), "validity_days", redemption.ValidityDays)
	p.serveRedeem(w, http.StatusOK, view.RedeemPage{
		Success: fmt.Sprintf("Key redeemed successfully! Premium active for %d days.", redemption.ValidityDays),
	})
}

func (p *portal) renderAdmin(ctx context.Context, w http.ResponseWriter, _ *http.Request, _ *types.User) {
	status := http.StatusOK
	var page view.AdminPage

	stats, err := p.accounts.Stats(ctx)
	switch {
	case err == nil:
		page.Stats = stats
	case errors.Is(err, accounts.ErrUnavailable):
		logger.Log.Errorw("load admin stats failed", "err", err)
		status, page.Error = http.StatusServiceUnavailable, "Database connection failed"
	default:
		logger.Log.Errorw("load admin stats failed", "err", err)
		status, page.Error = http.StatusInternalServerError, "Error loading admin data"
	}

	if err := p.views.Render(w, status, view.PageAdmin, page); err != nil {
		logger.Log.Errorw("render admin page", "err", err)
	}
}
