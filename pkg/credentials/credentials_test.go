package credentials

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_NonDeterministic(t *testing.T) {
	h1, err := HashPassword("hunter2")
	require.NoError(t, err)
	h2, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "same password should hash to different outputs")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     *string
		want     bool
		wantErr  error
	}{
		{
			name:     "matching password",
			password: "correct horse battery staple",
			hash:     &hash,
			want:     true,
		},
		{
			name:     "wrong password",
			password: "incorrect",
			hash:     &hash,
			want:     false,
		},
		{
			name:     "malformed hash is false not error",
			password: "anything",
			hash:     strPtr("not-a-bcrypt-hash"),
			want:     false,
		},
		{
			name:     "nil hash",
			password: "anything",
			hash:     nil,
			wantErr:  ErrNoPassword,
		},
		{
			name:     "empty hash",
			password: "anything",
			hash:     strPtr(""),
			wantErr:  ErrNoPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.password, tt.hash)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key := GenerateAPIKey()

	assert.True(t, IsAPIKey(key))
	assert.Len(t, key, len(APIKeyPrefix)+32)
	assert.NotEqual(t, key, GenerateAPIKey(), "keys should be unique")
}

func TestIsAPIKey(t *testing.T) {
	assert.True(t, IsAPIKey("sk-abc123"))
	assert.False(t, IsAPIKey("eyJhbGciOiJIUzI1NiJ9.x.y"))
	assert.False(t, IsAPIKey(""))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Equal(t, "", BearerToken("Basic dXNlcjpwYXNz"))
	assert.Equal(t, "", BearerToken(""))
}

func TestFromRequest_CookieBeforeHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")

	creds := FromRequest(r, ExtractOptions{})

	assert.Equal(t, "cookie-token", creds.Token)
	assert.Nil(t, creds.Trusted)
}

func TestFromRequest_HeaderFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	creds := FromRequest(r, ExtractOptions{})

	assert.Equal(t, "header-token", creds.Token)
}

func TestFromRequest_TrustedHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Auth-Email", "Alice@Example.com")
	r.Header.Set("X-Auth-Name", "Alice")

	creds := FromRequest(r, ExtractOptions{
		TrustedEmailHeader: "X-Auth-Email",
		TrustedNameHeader:  "X-Auth-Name",
	})

	require.NotNil(t, creds.Trusted)
	assert.Equal(t, "alice@example.com", creds.Trusted.Email, "email is case-normalized")
	assert.Equal(t, "Alice", creds.Trusted.Name)
}

func TestFromRequest_TrustedHeaderNameDefaultsToEmail(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Auth-Email", "bob@example.com")

	creds := FromRequest(r, ExtractOptions{TrustedEmailHeader: "X-Auth-Email"})

	require.NotNil(t, creds.Trusted)
	assert.Equal(t, "bob@example.com", creds.Trusted.Name)
}

func TestFromRequest_TrustedHeaderDisabled(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Auth-Email", "alice@example.com")

	creds := FromRequest(r, ExtractOptions{})

	assert.Nil(t, creds.Trusted)
}

func strPtr(s string) *string { return &s }
