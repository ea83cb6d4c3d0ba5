// ABOUTME: Round trippers for outbound backend calls
// ABOUTME: Bearer token read from the credential slot per request, plus X-Request-ID tagging

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/2389/legisbot/internal/credential"
)

// RequestIDHeader is set on every outbound request.
const RequestIDHeader = "X-Request-ID"

// slotTokenSource reads the persisted credential on every call. It never
// caches, so a logout or re-login takes effect on the next request.
type slotTokenSource struct {
	reader credential.Reader
}

func (s slotTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.reader.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}
	if token == "" {
		return nil, ErrNoCredentials
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// requestIDTransport tags each request with a fresh uuid unless one is set.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(RequestIDHeader, uuid.NewString())
	return t.base.RoundTrip(clone)
}

// newTransports returns the anonymous and the authenticated round trippers.
func newTransports(base http.RoundTripper, reader credential.Reader) (anon, authed http.RoundTripper) {
	if base == nil {
		base = http.DefaultTransport
	}
	anon = &requestIDTransport{base: base}
	authed = &oauth2.Transport{
		Source: slotTokenSource{reader: reader},
		Base:   anon,
	}
	return anon, authed
}
