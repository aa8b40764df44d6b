package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates records with request-scoped data found on the context.
type Handler struct {
	slog.Handler
}

// Handle adds the request and auth groups found on ctx, then delegates.
func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("user_agent", rd.UserAgent),
			slog.String("remote_addr", rd.RemoteAddr),
			slog.String("path", rd.Path),
		))
	}

	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		r.AddAttrs(slog.Group("auth",
			slog.String("strategy", ad.Strategy),
			slog.String("issuer", ad.Issuer),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type requestDataKey struct{}

// RequestData identifies the HTTP request a record was logged for. It is
// rendered under the "req" group.
type RequestData struct {
	RequestID  string
	Method     string
	UserAgent  string
	RemoteAddr string
	Path       string
}

// WithRequestData attaches data to ctx for Handler.
func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type authDataKey struct{}

// AuthData names the strategy handling a request and, once known, the token
// issuer. It is rendered under the "auth" group.
type AuthData struct {
	Strategy string
	Issuer   string
}

// WithAuthData attaches data to ctx for Handler, replacing earlier AuthData.
func WithAuthData(ctx context.Context, data *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, data)
}
