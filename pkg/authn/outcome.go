package authn

import "github.com/gatehouse/gatehouse/pkg/model"

// Credential scheme names, as reported in outcomes and audit events.
const (
	SchemeTrustedHeader = "trusted_header"
	SchemeAPIKey        = "api_key"
	SchemeSession       = "session"
	SchemeProvider      = "provider"
	SchemeDirectory     = "directory"
	SchemePassword      = "password"
)

// Outcome is a successful resolution.
type Outcome struct {
	// User is the resolved local identity.
	User *model.User
	// Scheme names the credential scheme that won the resolution.
	Scheme string
	// Provisioned is true when this resolution created the user.
	Provisioned bool
}
