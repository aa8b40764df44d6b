package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/ggoodman/magic-auth-go/didt"
)

// Name is the registration name of the strategy.
const Name = "magic"

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

const (
	msgMissingHeader   = "Missing authorization header."
	msgMalformedHeader = "Malformed authorization header. Please use the `Bearer ${token}` format."
	msgInvalidToken    = "Invalid DID token."
)

// Option configures optional aspects of a Strategy.
type Option func(*config)

type config struct {
	client              IdentityClient
	attachmentAttribute string
	log                 *slog.Logger
}

// WithIdentityClient sets the client used to validate tokens. Defaults to a
// *didt.Client configured from the environment.
func WithIdentityClient(c IdentityClient) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.client = c
		}
	}
}

// WithAttachmentAttribute names the request attachment (see WithAttachment)
// passed to the identity client. Defaults to "attachment".
func WithAttachmentAttribute(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.attachmentAttribute = name
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.log = l
		}
	}
}

// Config is the resolved, read-only configuration of a Strategy.
type Config struct {
	IdentityClient        IdentityClient
	PassRequestToCallback bool
	AttachmentAttribute   string
}

// Strategy authenticates requests carrying a DID token in a Bearer
// Authorization header. It holds no per-request state and is safe for
// concurrent use.
type Strategy struct {
	verify        VerifyFunc
	verifyWithReq VerifyWithRequestFunc

	client              IdentityClient
	attachmentAttribute string
	log                 *slog.Logger
}

// New returns a Strategy whose callback receives the request context and the
// resolved identity.
func New(verify VerifyFunc, opts ...Option) (*Strategy, error) {
	if verify == nil {
		return nil, fmt.Errorf("%w: strategy requires a verify callback", ErrInvalidConfiguration)
	}
	return newStrategy(verify, nil, opts)
}

// NewWithRequest returns a Strategy whose callback receives the originating
// request as its first argument.
func NewWithRequest(verify VerifyWithRequestFunc, opts ...Option) (*Strategy, error) {
	if verify == nil {
		return nil, fmt.Errorf("%w: strategy requires a verify callback", ErrInvalidConfiguration)
	}
	return newStrategy(nil, verify, opts)
}

func newStrategy(verify VerifyFunc, verifyWithReq VerifyWithRequestFunc, opts []Option) (*Strategy, error) {
	cfg := &config{
		attachmentAttribute: DefaultAttachmentAttribute,
		log:                 slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		c, err := didt.NewFromEnv()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		cfg.client = c
	}
	return &Strategy{
		verify:              verify,
		verifyWithReq:       verifyWithReq,
		client:              cfg.client,
		attachmentAttribute: cfg.attachmentAttribute,
		log:                 cfg.log,
	}, nil
}

// Name returns "magic".
func (s *Strategy) Name() string { return Name }

// Config returns the resolved configuration.
func (s *Strategy) Config() Config {
	return Config{
		IdentityClient:        s.client,
		PassRequestToCallback: s.verifyWithReq != nil,
		AttachmentAttribute:   s.attachmentAttribute,
	}
}

// Authenticate runs the strategy against r and reports the outcome to sink.
// Exactly one sink method is called; the call may happen after Authenticate
// returns if the verify callback completes asynchronously.
//
// Identity client errors, including panics, fail with status 401. The one
// exception is the request context ending during validation: that is
// reported through sink.Error with the context's error, since the token was
// never judged.
func (s *Strategy) Authenticate(r *http.Request, sink Sink) {
	ctx := r.Context()
	out := &onceSink{sink: sink, log: s.log, ctx: ctx}

	header := r.Header.Get(authorizationHeader)
	if header == "" {
		s.log.InfoContext(ctx, "auth.check.missing")
		out.Fail(Info{Kind: FailureMissingHeader, Message: msgMissingHeader}, http.StatusBadRequest)
		return
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		s.log.InfoContext(ctx, "auth.check.invalid", slog.String("err", "malformed bearer authorization header"))
		out.Fail(Info{Kind: FailureMalformedHeader, Message: msgMalformedHeader}, http.StatusBadRequest)
		return
	}
	tok := header[len(bearerPrefix):]

	attachment, ok := AttachmentFromContext(ctx, s.attachmentAttribute)
	if !ok {
		attachment = didt.NoAttachment
	}

	user, err := s.resolve(ctx, tok, attachment)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			out.Error(err)
			return
		}
		s.log.InfoContext(ctx, "auth.check.fail", slog.String("err", err.Error()))
		out.Fail(validationFailure(err), http.StatusUnauthorized)
		return
	}
	s.log.DebugContext(ctx, "auth.check.ok", slog.String("issuer", user.Issuer))

	done := func(u any, info *Info, err error) {
		switch {
		case err != nil:
			out.Error(err)
		case isFalsy(u):
			var rejected Info
			if info != nil {
				rejected = *info
			}
			out.Fail(rejected, 0)
		default:
			out.Success(u, info)
		}
	}
	s.invoke(r, user, done, out)
}

// Await runs Authenticate and blocks until the terminal signal arrives or the
// request context ends, in which case the context error is returned as a Fault.
func (s *Strategy) Await(r *http.Request) Outcome {
	ch := make(chan Outcome, 1)
	sink := chanSink(ch)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				sink.Error(panicErr(v))
			}
		}()
		s.Authenticate(r, sink)
	}()

	select {
	case o := <-ch:
		return o
	case <-r.Context().Done():
		return Fault{Err: r.Context().Err()}
	}
}

// resolve validates tok and builds the identity. A panicking identity client
// is reported as an error so that it maps onto a token failure.
func (s *Strategy) resolve(ctx context.Context, tok string, attachment string) (_ UserIdentity, err error) {
	defer func() {
		if v := recover(); v != nil {
			s.log.ErrorContext(ctx, "auth.client.panic", slog.Any("panic", v))
			err = panicErr(v)
		}
	}()
	if err := s.client.Validate(ctx, tok, attachment); err != nil {
		return UserIdentity{}, err
	}
	iss, err := s.client.Issuer(tok)
	if err != nil {
		return UserIdentity{}, err
	}
	addr, err := s.client.PublicAddress(tok)
	if err != nil {
		return UserIdentity{}, err
	}
	decoded, err := s.client.Decode(tok)
	if err != nil {
		return UserIdentity{}, err
	}
	return UserIdentity{Issuer: iss, PublicAddress: addr, Claim: decoded.Claim}, nil
}

func (s *Strategy) invoke(r *http.Request, user UserIdentity, done DoneFunc, out Sink) {
	defer func() {
		if v := recover(); v != nil {
			s.log.ErrorContext(r.Context(), "auth.verify.panic", slog.Any("panic", v))
			out.Error(panicErr(v))
		}
	}()
	if s.verifyWithReq != nil {
		s.verifyWithReq(r, user, done)
		return
	}
	s.verify(r.Context(), user, done)
}

func validationFailure(err error) Info {
	var derr *didt.Error
	if errors.As(err, &derr) {
		return Info{Kind: FailureSDKValidation, Message: derr.Message, ErrorCode: derr.Code}
	}
	return Info{Kind: FailureInvalidToken, Message: msgInvalidToken}
}

func panicErr(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{Value: v}
}

func isFalsy(u any) bool {
	if u == nil {
		return true
	}
	if b, ok := u.(bool); ok {
		return !b
	}
	rv := reflect.ValueOf(u)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// onceSink forwards only the first signal it receives.
type onceSink struct {
	once sync.Once
	sink Sink
	log  *slog.Logger
	ctx  context.Context
}

func (o *onceSink) deliver(signal string, fn func()) {
	delivered := false
	o.once.Do(func() {
		delivered = true
		fn()
	})
	if !delivered {
		o.log.WarnContext(o.ctx, "auth.signal.duplicate", slog.String("signal", signal))
	}
}

func (o *onceSink) Success(user any, info *Info) {
	o.deliver("success", func() { o.sink.Success(user, info) })
}

func (o *onceSink) Fail(info Info, status int) {
	o.deliver("fail", func() { o.sink.Fail(info, status) })
}

func (o *onceSink) Error(err error) {
	o.deliver("error", func() { o.sink.Error(err) })
}

// chanSink converts signals into Outcomes. It must only receive one signal,
// which Authenticate guarantees.
type chanSink chan<- Outcome

func (c chanSink) Success(user any, info *Info) { c.send(Success{User: user, Info: info}) }
func (c chanSink) Fail(info Info, status int)   { c.send(Failure{Info: info, Status: status}) }
func (c chanSink) Error(err error)              { c.send(Fault{Err: err}) }

func (c chanSink) send(o Outcome) {
	select {
	case c <- o:
	default:
	}
}
