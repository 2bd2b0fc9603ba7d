package routes

import (
	"errors"
	"testing"
)

func TestURLFor(t *testing.T) {
	cases := map[string]string{
		Index:     "/",
		Login:     "/login",
		Logout:    "/logout",
		Register:  "/register",
		Dashboard: "/dashboard",
		Redeem:    "/redeem",
		Admin:     "/admin",
		Static:    "/static/",
	}
	for name, want := range cases {
		got, err := URLFor(name)
		if err != nil {
			t.Fatalf("URLFor(%q): unexpected error: %v", name, err)
		}
		if got != want {
			t.Fatalf("URLFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestURLForUnknown(t *testing.T) {
	_, err := URLFor("check_single")
	if !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestPathPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown route")
		}
	}()
	Path("nope")
}
