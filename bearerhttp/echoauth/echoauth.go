// Package echoauth mounts a bearerhttp.Middleware on echo routers.
package echoauth

import (
	"github.com/ggoodman/magic-auth-go/bearerhttp"
	"github.com/labstack/echo/v4"
)

// RequireAuth returns echo middleware that only calls the next handler for
// authenticated requests. Rejected requests are answered by m directly.
func RequireAuth(m *bearerhttp.Middleware) echo.MiddlewareFunc {
	return echo.WrapMiddleware(m.Wrap)
}

// User returns the user the verify callback accepted for this request.
func User(c echo.Context) (any, bool) {
	return bearerhttp.UserFromContext(c.Request().Context())
}
