package echoauth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ggoodman/magic-auth-go/auth"
	"github.com/ggoodman/magic-auth-go/bearerhttp"
	"github.com/ggoodman/magic-auth-go/bearerhttp/echoauth"
	"github.com/ggoodman/magic-auth-go/didt"
	"github.com/ggoodman/magic-auth-go/didt/didttest"
	"github.com/labstack/echo/v4"
)

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	strat, err := auth.New(func(_ context.Context, user auth.UserIdentity, done auth.DoneFunc) {
		done(user, nil, nil)
	}, auth.WithIdentityClient(didt.New(didt.Config{})), auth.WithLogger(log))
	if err != nil {
		t.Fatalf("new strategy: %v", err)
	}
	mw, err := bearerhttp.New(strat, bearerhttp.WithLogger(log))
	if err != nil {
		t.Fatalf("new middleware: %v", err)
	}

	e := echo.New()
	e.Use(echoauth.RequireAuth(mw))
	e.GET("/me", func(c echo.Context) error {
		user, ok := echoauth.User(c)
		if !ok {
			return c.String(http.StatusInternalServerError, "no user")
		}
		return c.String(http.StatusOK, user.(auth.UserIdentity).Issuer)
	})
	return e
}

func TestRequireAuth(t *testing.T) {
	s := didttest.NewSigner(t)
	e := newEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+s.MintDefault(t))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if want, got := http.StatusOK, rec.Code; want != got {
		t.Fatalf("unexpected status: want %d got %d", want, got)
	}
	if want, got := s.Issuer(), rec.Body.String(); want != got {
		t.Fatalf("unexpected body: want %q got %q", want, got)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	e := newEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if want, got := http.StatusBadRequest, rec.Code; want != got {
		t.Fatalf("unexpected status: want %d got %d", want, got)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("want bare Bearer challenge, got %q", rec.Header().Get("WWW-Authenticate"))
	}
}
