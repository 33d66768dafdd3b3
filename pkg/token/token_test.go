package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec([]byte("test-secret"))
	require.NoError(t, err)
	return codec
}

func TestNewCodec_EmptySecret(t *testing.T) {
	_, err := NewCodec(nil)
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.Issue("user-1", time.Hour)
	require.NoError(t, err)

	subject, err := codec.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestIssue_NoTTLNeverExpires(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.Issue("user-1", 0)
	require.NoError(t, err)

	// No exp claim should be present at all.
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	require.NoError(t, err)
	_, hasExp := parsed.Claims.(jwt.MapClaims)["exp"]
	assert.False(t, hasExp)

	subject, err := codec.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestVerify_Expired(t *testing.T) {
	codec := newTestCodec(t)

	claims := jwt.MapClaims{
		"id":  "user-1",
		"iat": jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		"exp": jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec([]byte("different-secret"))
	require.NoError(t, err)

	raw, err := other.Issue("user-1", time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestVerify_Malformed(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not a token", raw: "sk-abc123"},
		{name: "garbage segments", raw: "a.b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.raw)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": jwt.NewNumericDate(time.Now()),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerify_RejectsAlgorithmConfusion(t *testing.T) {
	codec := newTestCodec(t)

	// A token claiming alg=none must not verify.
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": "user-1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	assert.Error(t, err)
}

func TestIssue_EmptySubject(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.Issue("", time.Hour)
	assert.Error(t, err)
}
