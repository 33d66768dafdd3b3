package authn

//go:generate go run github.com/dmarkham/enumer -type Kind -trimprefix Kind -transform snake -json -output kind.gen.go

// Kind classifies why a resolution failed.
type Kind int

const (
	// KindInvalidCredential is malformed or unverifiable proof.
	KindInvalidCredential Kind = iota
	// KindExpiredCredential is well-signed proof whose validity window has
	// passed.
	KindExpiredCredential
	// KindUnknownSubject is well-formed proof with no matching user.
	KindUnknownSubject
	// KindProviderUnavailable is a remote dependency failure. The
	// credential is not known to be invalid and the verdict must not be
	// cached.
	KindProviderUnavailable
	// KindSignupDisabled means the credential asserts a new identity but
	// provisioning is switched off.
	KindSignupDisabled
	// KindDuplicateEmail is an insert collision with an existing user.
	KindDuplicateEmail
	// KindConfigurationError is a deployment fault, such as directory TLS
	// requested without a usable certificate.
	KindConfigurationError
)

// ServerFault reports whether the kind is the deployment's fault rather
// than the caller's.
func (k Kind) ServerFault() bool {
	return k == KindProviderUnavailable || k == KindConfigurationError
}
