// Package credentials defines the credential material extracted from an
// inbound request and the primitives that verify it.
package credentials

import (
	"net/http"
	"strings"
)

// SessionCookieName is the cookie carrying a session token.
const SessionCookieName = "token"

// Credential is the closed set of proof-of-identity material a request can
// carry. Exactly one concrete type applies per authentication attempt.
type Credential interface {
	isCredential()
}

// TrustedHeaderAssertion is an identity asserted by a trusted upstream
// proxy. The proxy is trusted to have already authenticated the caller, so
// no password check applies.
type TrustedHeaderAssertion struct {
	Email string
	Name  string
}

// APIKey is a long-lived key for programmatic access, recognizable by its
// fixed prefix.
type APIKey struct {
	Raw string
}

// SessionToken is a signed compact token minted by this deployment.
type SessionToken struct {
	Raw string
}

// ExternalBearerToken is a bearer token issued by an external identity
// provider.
type ExternalBearerToken struct {
	Raw string
}

// DirectoryCredential is a username/password pair to be verified against a
// directory service.
type DirectoryCredential struct {
	Username string
	Password string
}

func (TrustedHeaderAssertion) isCredential() {}
func (APIKey) isCredential()                 {}
func (SessionToken) isCredential()           {}
func (ExternalBearerToken) isCredential()    {}
func (DirectoryCredential) isCredential()    {}

// RequestCredentials is everything extractable from a single request. Token
// holds the raw compact token, if any; its concrete scheme (API key, session
// token or external bearer token) is decided during resolution.
type RequestCredentials struct {
	Trusted *TrustedHeaderAssertion
	Token   string
}

// ExtractOptions configures which request surfaces are inspected.
type ExtractOptions struct {
	// TrustedEmailHeader names the proxy header carrying a verified email.
	// Empty disables trusted-header extraction.
	TrustedEmailHeader string
	// TrustedNameHeader names the optional header carrying a display name.
	TrustedNameHeader string
}

// FromRequest extracts credential material from the request. The token is
// taken from the session cookie first, then from the Authorization header;
// the trusted-header assertion is extracted independently since it may
// accompany a token.
func FromRequest(r *http.Request, opts ExtractOptions) RequestCredentials {
	var creds RequestCredentials

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		creds.Token = cookie.Value
	}
	if creds.Token == "" {
		creds.Token = BearerToken(r.Header.Get("Authorization"))
	}

	if opts.TrustedEmailHeader != "" {
		if email := r.Header.Get(opts.TrustedEmailHeader); email != "" {
			name := email
			if opts.TrustedNameHeader != "" {
				if n := r.Header.Get(opts.TrustedNameHeader); n != "" {
					name = n
				}
			}
			creds.Trusted = &TrustedHeaderAssertion{
				Email: strings.ToLower(email),
				Name:  name,
			}
		}
	}

	return creds
}

// BearerToken returns the token portion of a "Bearer <token>" Authorization
// header value, or "" if the header does not carry one.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
