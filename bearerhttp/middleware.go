package bearerhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ggoodman/magic-auth-go/auth"
	"github.com/ggoodman/magic-auth-go/internal/logctx"
	"github.com/google/uuid"
)

const wwwAuthenticateHeader = "WWW-Authenticate"

// Strategy is the subset of *auth.Strategy the middleware relies on.
type Strategy interface {
	Name() string
	Config() auth.Config
	Await(r *http.Request) auth.Outcome
}

var _ Strategy = (*auth.Strategy)(nil)

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger used for request logs. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRealm sets the realm advertised in WWW-Authenticate challenges. The
// realm attribute is omitted when empty (default).
func WithRealm(realm string) Option {
	return func(m *Middleware) { m.realm = realm }
}

// WithTimeout bounds how long a request waits for the verify callback to
// call done. Zero (default) waits until the request context ends.
func WithTimeout(d time.Duration) Option {
	return func(m *Middleware) { m.timeout = d }
}

// WithAttachmentFunc extracts the token attachment from the request. When it
// reports ok, the value is stored under the strategy's attachment attribute
// before authentication runs.
func WithAttachmentFunc(fn func(r *http.Request) (string, bool)) Option {
	return func(m *Middleware) { m.attachment = fn }
}

// Middleware authenticates requests with a Strategy before handing them to
// the wrapped handler.
type Middleware struct {
	strategy   Strategy
	log        *slog.Logger
	realm      string
	timeout    time.Duration
	attachment func(r *http.Request) (string, bool)
}

// New returns a Middleware that runs strategy on every request.
func New(strategy Strategy, opts ...Option) (*Middleware, error) {
	if strategy == nil {
		return nil, errors.New("bearerhttp: strategy is required")
	}
	m := &Middleware{strategy: strategy, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.log = slog.New(logctx.Handler{Handler: m.log.Handler()})
	return m, nil
}

// Wrap returns a handler that only calls next for authenticated requests.
// The user passed to done is available to next through UserFromContext.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
			RequestID:  uuid.NewString(),
			Method:     r.Method,
			UserAgent:  r.UserAgent(),
			RemoteAddr: r.RemoteAddr,
			Path:       r.URL.Path,
		})
		ctx = logctx.WithAuthData(ctx, &logctx.AuthData{Strategy: m.strategy.Name()})

		if m.attachment != nil {
			if v, ok := m.attachment(r); ok {
				ctx = auth.WithAttachment(ctx, m.strategy.Config().AttachmentAttribute, v)
			}
		}

		authCtx := ctx
		if m.timeout > 0 {
			var cancel context.CancelFunc
			authCtx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}

		switch o := m.strategy.Await(r.WithContext(authCtx)).(type) {
		case auth.Success:
			ctx = logctx.WithAuthData(ctx, &logctx.AuthData{Strategy: m.strategy.Name(), Issuer: issuerOf(o.User)})
			m.log.InfoContext(ctx, "auth.ok", slog.Duration("dur", time.Since(start)))
			next.ServeHTTP(w, r.WithContext(withResult(ctx, o)))
		case auth.Failure:
			m.log.InfoContext(ctx, "auth.fail",
				slog.String("kind", o.Info.Kind.String()),
				slog.String("err", o.Info.Message),
				slog.Duration("dur", time.Since(start)),
			)
			m.writeFailure(w, r, o)
		case auth.Fault:
			m.writeFault(ctx, w, r, o)
		}
	})
}

func (m *Middleware) writeFailure(w http.ResponseWriter, r *http.Request, f auth.Failure) {
	status := f.Status
	if status == 0 {
		status = http.StatusUnauthorized
	}

	var params map[string]string
	switch {
	case f.Info.Kind == auth.FailureMissingHeader || f.Info.Kind == auth.FailureRejected:
		// RFC 6750 §3.1: no error code when credentials are absent.
	case status == http.StatusBadRequest:
		params = map[string]string{"error": "invalid_request", "error_description": f.Info.Message}
	default:
		params = map[string]string{"error": "invalid_token", "error_description": f.Info.Message}
	}
	w.Header().Add(wwwAuthenticateHeader, buildBearerChallenge(m.realm, params))

	message := f.Info.Message
	if message == "" {
		message = http.StatusText(status)
	}
	writeError(w, r, status, message, string(f.Info.ErrorCode))
}

func (m *Middleware) writeFault(ctx context.Context, w http.ResponseWriter, r *http.Request, f auth.Fault) {
	switch {
	case errors.Is(f.Err, context.DeadlineExceeded):
		m.log.WarnContext(ctx, "auth.timeout", slog.String("err", f.Err.Error()))
		writeError(w, r, http.StatusServiceUnavailable, "authentication timed out", "")
	case errors.Is(f.Err, context.Canceled):
		m.log.InfoContext(ctx, "auth.canceled")
	default:
		m.log.ErrorContext(ctx, "auth.error", slog.String("err", f.Err.Error()))
		writeError(w, r, http.StatusInternalServerError, "authentication error", "")
	}
}

func issuerOf(user any) string {
	switch u := user.(type) {
	case auth.UserIdentity:
		return u.Issuer
	case *auth.UserIdentity:
		if u != nil {
			return u.Issuer
		}
	}
	return ""
}
