// Package auth provides the "magic" authentication strategy: it validates a
// Decentralized ID Token (DIDT) presented as a Bearer credential and hands
// the resolved identity to an application-supplied verify callback.
//
// The strategy itself performs no cryptography. Token validation is delegated
// to an IdentityClient (by default a *didt.Client configured from the
// environment); the strategy extracts the header, translates client errors,
// invokes the callback and reports exactly one terminal signal to a Sink.
//
// Example:
//
//	strat, err := auth.New(func(ctx context.Context, id auth.UserIdentity, done auth.DoneFunc) {
//	    user, err := users.FindByIssuer(ctx, id.Issuer)
//	    if err != nil {
//	        done(nil, nil, err)
//	        return
//	    }
//	    done(user, nil, nil)
//	})
//	if err != nil { log.Fatal(err) }
//
//	// Later inside request handling:
//	switch o := strat.Await(r).(type) {
//	case auth.Success:
//	    // o.User is whatever the callback passed to done
//	case auth.Failure:
//	    // o.Info.Message, o.Status (400 for header problems, 401 for bad tokens)
//	case auth.Fault:
//	    // o.Err came from the callback, or the request context ended
//	}
//
// Use NewWithRequest when the callback needs the *http.Request itself.
//
// # Signals
//
// Header problems fail with status 400 before the identity client is
// consulted. Tokens rejected by the client fail with status 401: a *didt.Error
// contributes its message and code (Info.ErrorCode), any other error yields
// the generic "Invalid DID token." message. The verify callback's done
// function decides the rest: an error raises Sink.Error, a nil or false user
// raises Sink.Fail with the callback's info, anything else raises
// Sink.Success. A panicking callback raises Sink.Error, as does a request
// context that ends while the token is being validated.
//
// # Attachments
//
// Some tokens sign an extra value (the attachment) that the server must
// supply at validation time. Store it on the request context with
// WithAttachment under the strategy's attachment attribute ("attachment" by
// default, see WithAttachmentAttribute). Requests without one are validated
// with didt.NoAttachment.
package auth
