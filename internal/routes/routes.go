// Package routes maps route names to paths so that handlers and templates
// never hard-code URLs.
package routes

import (
	"errors"
	"fmt"
)

const (
	Index        = "index"
	Login        = "login"
	Logout       = "logout"
	Register     = "register"
	Dashboard    = "dashboard"
	Subscription = "subscription"
	Redeem       = "redeem"
	Admin        = "admin"
	Health       = "health"
	Metrics      = "metrics"
	Static       = "static"
)

var ErrUnknownRoute = errors.New("unknown route")

var table = map[string]string{
	Index:        "/",
	Login:        "/login",
	Logout:       "/logout",
	Register:     "/register",
	Dashboard:    "/dashboard",
	Subscription: "/subscription",
	Redeem:       "/redeem",
	Admin:        "/admin",
	Health:       "/health",
	Metrics:      "/metrics",
	Static:       "/static/",
}

// URLFor resolves a route name to its path.
func URLFor(name string) (string, error) {
	path, ok := table[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return path, nil
}

// Path is URLFor for names known at compile time. It panics on an unknown
// name.
func Path(name string) string {
	path, err := URLFor(name)
	if err != nil {
		panic(err)
	}
	return path
}
