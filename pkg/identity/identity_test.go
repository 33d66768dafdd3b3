package identity

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/model"
)

func TestIdentity_WithMethods(t *testing.T) {
	id := &Identity{User: &model.User{ID: "user-1"}}

	ip := net.ParseIP("192.168.1.100")
	id.WithScheme("api_key").WithRemoteIP(ip)

	assert.Equal(t, "api_key", id.Scheme)
	assert.Equal(t, ip, id.RemoteIP)
}

func TestIdentity_IsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		expected bool
	}{
		{
			name:     "admin user",
			identity: &Identity{User: &model.User{Role: model.RoleAdmin}},
			expected: true,
		},
		{
			name:     "regular user",
			identity: &Identity{User: &model.User{Role: model.RoleUser}},
			expected: false,
		},
		{
			name:     "no user",
			identity: &Identity{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.identity.IsAdmin())
		})
	}
}

func TestIdentity_IsVerified(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		expected bool
	}{
		{
			name:     "admin is verified",
			identity: &Identity{User: &model.User{Role: model.RoleAdmin}},
			expected: true,
		},
		{
			name:     "user is verified",
			identity: &Identity{User: &model.User{Role: model.RoleUser}},
			expected: true,
		},
		{
			name:     "pending is not verified",
			identity: &Identity{User: &model.User{Role: model.RolePending}},
			expected: false,
		},
		{
			name:     "no user",
			identity: &Identity{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.identity.IsVerified())
		})
	}
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	id, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, id)

	expected := &Identity{User: &model.User{ID: "user-1", Email: "alice@example.com"}}
	ctx = Set(ctx, expected)

	id, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, "user-1", id.User.ID)
	assert.Equal(t, "alice@example.com", id.User.Email)
}
