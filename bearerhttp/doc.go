// Package bearerhttp hosts an auth.Strategy as net/http middleware.
//
// For each request the middleware runs the strategy, waits for its terminal
// signal and then either calls the wrapped handler (success) or answers the
// request itself:
//
//   - failures are answered with the strategy's status hint (401 when the
//     verify callback rejected the user without one) and an RFC 6750
//     WWW-Authenticate challenge;
//   - faults are logged and answered with a generic 500, or 503 when
//     WithTimeout elapsed before the callback called done.
//
// Error bodies are JSON unless the client prefers text/plain.
//
//	strat, _ := auth.New(verify)
//	mw, _ := bearerhttp.New(strat, bearerhttp.WithRealm("api"), bearerhttp.WithTimeout(5*time.Second))
//	http.Handle("/me", mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    user, _ := bearerhttp.UserFromContext(r.Context())
//	    _ = json.NewEncoder(w).Encode(user)
//	})))
package bearerhttp
