package api

import "net/http"

// TokenSource supplies the current bearer credential. It is implemented by
// the identity provider; an empty token means no session.
type TokenSource interface {
	Token() string
}

// authTransport attaches the caller's current credential to every outgoing
// request so call sites never re-implement that logic. When no token is
// available the request goes out without the header and the server rejects
// it. No retries, no caching: a pass-through with one side effect.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.tokens.Token(); token != "" {
		// Clone before mutating: RoundTrippers must not modify the caller's request
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}
