package identity

import (
	"context"
	"net"

	"github.com/gatehouse/gatehouse/pkg/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated identity for a request.
// It combines the resolved user with request-specific context.
type Identity struct {
	// User is the resolved local user record.
	User *model.User

	// Scheme names the credential scheme that authenticated the request,
	// e.g. "session", "api_key", "provider", "trusted_header".
	Scheme string

	// RemoteIP is the client IP address.
	RemoteIP net.IP

	// Provisioned is true when this request created the user.
	Provisioned bool
}

// WithScheme sets the authenticating scheme.
func (i *Identity) WithScheme(scheme string) *Identity {
	i.Scheme = scheme
	return i
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// IsAdmin returns true if the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i.User != nil && i.User.Role == model.RoleAdmin
}

// IsVerified returns true if the identity may use the API at all. Pending
// users are authenticated but not yet approved.
func (i *Identity) IsVerified() bool {
	return i.User != nil && i.User.Role.Verified()
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
