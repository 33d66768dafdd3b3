package provider

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/keyset"
)

const (
	testDomain   = "tenant.example.com"
	testAudience = "https://api.gatehouse.example"
)

type tokenOverrides struct {
	kid      string
	audience string
	issuer   string
	expiry   time.Time
	key      *rsa.PrivateKey
}

func signTestToken(t *testing.T, o tokenOverrides) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   "auth0|abc123",
		"email": "Alice@Example.com",
		"name":  "Alice",
		"aud":   o.audience,
		"iss":   o.issuer,
		"iat":   jwt.NewNumericDate(time.Now()),
		"exp":   jwt.NewNumericDate(o.expiry),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = o.kid
	raw, err := tok.SignedString(o.key)
	require.NoError(t, err)
	return raw
}

func newTestVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey, func()) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc := map[string]interface{}{
			"keys": []map[string]string{{
				"kid": "key-1",
				"kty": "RSA",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(jwks.Close)

	v, err := NewVerifier(Config{Domain: testDomain, Audience: testAudience})
	require.NoError(t, err)
	v.keys = keyset.New(jwks.URL)

	return v, key, jwks.Close
}

func validOverrides(v *Verifier, key *rsa.PrivateKey) tokenOverrides {
	return tokenOverrides{
		kid:      "key-1",
		audience: testAudience,
		issuer:   v.Issuer(),
		expiry:   time.Now().Add(time.Hour),
		key:      key,
	}
}

func TestVerifyBearer_Valid(t *testing.T) {
	v, key, _ := newTestVerifier(t)

	claim, err := v.VerifyBearer(context.Background(), signTestToken(t, validOverrides(v, key)))
	require.NoError(t, err)

	assert.Equal(t, "auth0|abc123", claim.ExternalSubject)
	assert.Equal(t, "alice@example.com", claim.Email, "email is case-normalized")
	assert.Equal(t, "Alice", claim.DisplayName)
}

func TestVerifyBearer_Rejections(t *testing.T) {
	v, key, _ := newTestVerifier(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name       string
		mutate     func(*tokenOverrides)
		wantReason string
	}{
		{
			name:       "unknown key id",
			mutate:     func(o *tokenOverrides) { o.kid = "retired-key" },
			wantReason: ReasonNoMatchingKey,
		},
		{
			name:       "wrong signing key",
			mutate:     func(o *tokenOverrides) { o.key = otherKey },
			wantReason: ReasonBadSignature,
		},
		{
			name:       "expired",
			mutate:     func(o *tokenOverrides) { o.expiry = time.Now().Add(-time.Minute) },
			wantReason: ReasonExpired,
		},
		{
			name:       "wrong audience",
			mutate:     func(o *tokenOverrides) { o.audience = "https://other.example" },
			wantReason: ReasonBadAudienceIssuer,
		},
		{
			name:       "wrong issuer",
			mutate:     func(o *tokenOverrides) { o.issuer = "https://evil.example/" },
			wantReason: ReasonBadAudienceIssuer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOverrides(v, key)
			tt.mutate(&o)

			_, err := v.VerifyBearer(context.Background(), signTestToken(t, o))

			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.wantReason, rejected.Reason)
		})
	}
}

func TestVerifyBearer_RejectsHS256(t *testing.T) {
	v, _, _ := newTestVerifier(t)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "auth0|abc123",
		"aud": testAudience,
		"iss": v.Issuer(),
	}).SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.VerifyBearer(context.Background(), raw)

	var rejected *RejectedError
	assert.ErrorAs(t, err, &rejected)
}

func TestVerifyBearer_KeySetDown(t *testing.T) {
	v, key, closeJWKS := newTestVerifier(t)
	closeJWKS()

	_, err := v.VerifyBearer(context.Background(), signTestToken(t, validOverrides(v, key)))

	assert.ErrorIs(t, err, keyset.ErrUnavailable)
	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected), "outage is not a rejection")
}

func TestAuthCodeURL(t *testing.T) {
	v, err := NewVerifier(Config{
		Domain:      testDomain,
		Audience:    testAudience,
		ClientID:    "client-id",
		CallbackURL: "https://gatehouse.example/oauth/callback",
	})
	require.NoError(t, err)

	u := v.AuthCodeURL("state-123")

	assert.True(t, strings.HasPrefix(u, "https://"+testDomain+"/authorize?"))
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "scope=openid+profile+email")
	assert.Contains(t, u, "audience=")
}

func TestNewVerifier_Validation(t *testing.T) {
	_, err := NewVerifier(Config{Audience: testAudience})
	assert.Error(t, err, "missing domain")

	_, err = NewVerifier(Config{Domain: testDomain})
	assert.Error(t, err, "missing audience")
}
