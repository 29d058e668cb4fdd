package apiclient

import (
	"context"
	"net/http"
)

// Credentials yields the bearer token for protected calls.
type Credentials interface {
	Token(ctx context.Context) (string, error)
}

type anonymousKey struct{}

func withAnonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	anon, _ := ctx.Value(anonymousKey{}).(bool)
	return anon
}

// bearerTransport attaches the credential to every non-anonymous request,
// admin endpoints included. A missing credential fails the round trip before
// anything is sent.
type bearerTransport struct {
	base  http.RoundTripper
	creds Credentials
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if isAnonymous(req.Context()) {
		return base.RoundTrip(req)
	}
	if t.creds == nil {
		closeBody(req)
		return nil, errNoCredentials
	}
	token, err := t.creds.Token(req.Context())
	if err != nil {
		closeBody(req)
		return nil, err
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
