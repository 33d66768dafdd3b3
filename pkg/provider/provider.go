// Package provider verifies access tokens minted by an external identity
// provider and drives the provider's authorization-code flow.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/gatehouse/gatehouse/pkg/keyset"
)

// DefaultTimeout bounds calls to the provider's HTTP endpoints.
const DefaultTimeout = 5 * time.Second

// Rejection reasons reported when a bearer token fails verification.
const (
	ReasonNoMatchingKey     = "no_matching_key"
	ReasonBadSignature      = "bad_signature"
	ReasonExpired           = "expired"
	ReasonBadAudienceIssuer = "bad_audience_or_issuer"
)

// Config identifies the external provider tenant.
type Config struct {
	// Domain is the provider tenant domain, e.g. "tenant.eu.auth0.com".
	Domain string
	// Audience is the API identifier expected in the token's aud claim.
	Audience string
	// ClientID and ClientSecret identify this application for the
	// authorization-code flow.
	ClientID     string
	ClientSecret string
	// CallbackURL is where the provider redirects after login.
	CallbackURL string
	// Timeout bounds provider HTTP calls. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Claim is the identity asserted by a verified provider token.
type Claim struct {
	// ExternalSubject is the provider's stable subject identifier.
	ExternalSubject string
	// Email is the asserted email, already lowercased.
	Email string
	// DisplayName is a human-readable name, best effort.
	DisplayName string
}

// RejectedError indicates the provider token was checked and is not
// acceptable. It is a terminal verdict, not an outage.
type RejectedError struct {
	Reason string
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return "provider token rejected: " + e.Reason
	}
	return fmt.Sprintf("provider token rejected: %s: %s", e.Reason, e.Detail)
}

// Verifier checks provider-issued bearer tokens against the tenant's
// published signing keys.
type Verifier struct {
	cfg    Config
	keys   *keyset.Cache
	client *http.Client
}

// NewVerifier creates a Verifier for the configured tenant. The key set is
// fetched lazily on first use.
func NewVerifier(cfg Config, opts ...keyset.Option) (*Verifier, error) {
	if cfg.Domain == "" {
		return nil, errors.New("provider domain is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("provider audience is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	opts = append([]keyset.Option{keyset.WithHTTPClient(client)}, opts...)
	return NewVerifierWithKeySet(cfg, keyset.ForDomain(cfg.Domain, opts...))
}

// NewVerifierWithKeySet creates a Verifier that resolves signing keys from
// an explicit cache, for deployments whose JWKS endpoint is not at the
// tenant's well-known location.
func NewVerifierWithKeySet(cfg Config, keys *keyset.Cache) (*Verifier, error) {
	if cfg.Domain == "" {
		return nil, errors.New("provider domain is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("provider audience is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Verifier{
		cfg:    cfg,
		keys:   keys,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Issuer returns the issuer URL tokens must carry.
func (v *Verifier) Issuer() string {
	return "https://" + v.cfg.Domain + "/"
}

// VerifyBearer validates a provider-issued RS256 token and extracts the
// identity it asserts. Verification failures are returned as *RejectedError;
// any other error means the verdict could not be reached.
func (v *Verifier) VerifyBearer(ctx context.Context, raw string) (*Claim, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no key id")
		}
		return v.keys.ResolveKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithIssuer(v.Issuer()),
	)

	if err != nil {
		switch {
		case errors.Is(err, keyset.ErrUnavailable):
			return nil, err
		case errors.Is(err, keyset.ErrKeyNotFound):
			return nil, &RejectedError{Reason: ReasonNoMatchingKey}
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, &RejectedError{Reason: ReasonExpired}
		case errors.Is(err, jwt.ErrTokenInvalidAudience), errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, &RejectedError{Reason: ReasonBadAudienceIssuer}
		default:
			return nil, &RejectedError{Reason: ReasonBadSignature, Detail: err.Error()}
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, &RejectedError{Reason: ReasonBadSignature, Detail: "unexpected claims type"}
	}
	return claimFromMap(claims), nil
}

func claimFromMap(claims jwt.MapClaims) *Claim {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["nickname"].(string)
	}
	if name == "" {
		name = sub
	}
	return &Claim{
		ExternalSubject: sub,
		Email:           strings.ToLower(email),
		DisplayName:     name,
	}
}

// oauthConfig builds the code-flow endpoints from the tenant domain.
func (v *Verifier) oauthConfig() *oauth2.Config {
	base := "https://" + v.cfg.Domain
	return &oauth2.Config{
		ClientID:     v.cfg.ClientID,
		ClientSecret: v.cfg.ClientSecret,
		RedirectURL:  v.cfg.CallbackURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/authorize",
			TokenURL: base + "/oauth/token",
		},
	}
}

// AuthCodeURL returns the provider login URL for the given state.
func (v *Verifier) AuthCodeURL(state string) string {
	return v.oauthConfig().AuthCodeURL(state,
		oauth2.SetAuthURLParam("audience", v.cfg.Audience))
}

// ExchangeCode redeems an authorization code and fetches the user's profile
// from the provider. Provider-reported denials come back as *RejectedError;
// transport failures do not.
func (v *Verifier) ExchangeCode(ctx context.Context, code string) (*Claim, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.client)

	tok, err := v.oauthConfig().Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode < http.StatusInternalServerError {
			return nil, &RejectedError{Reason: "code_exchange_denied", Detail: retrieveErr.ErrorCode}
		}
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	return v.userInfo(ctx, tok.AccessToken)
}

// userInfo fetches the provider's userinfo document for an access token.
func (v *Verifier) userInfo(ctx context.Context, accessToken string) (*Claim, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+v.cfg.Domain+"/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var info struct {
		Sub      string `json:"sub"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo: %w", err)
	}

	name := info.Nickname
	if name == "" {
		name = info.Name
	}
	if name == "" {
		name = info.Sub
	}
	return &Claim{
		ExternalSubject: info.Sub,
		Email:           strings.ToLower(info.Email),
		DisplayName:     name,
	}, nil
}
