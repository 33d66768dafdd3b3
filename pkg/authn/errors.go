package authn

import "net/http"

// Error is a typed resolution failure. Every failing path in the pipeline
// returns one; no library error escapes untranslated.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Reason
}

// HTTPStatus maps the failure to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindProviderUnavailable:
		return http.StatusBadGateway
	case KindConfigurationError:
		return http.StatusInternalServerError
	case KindSignupDisabled:
		return http.StatusForbidden
	case KindDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusUnauthorized
	}
}

// reject is shorthand for the common caller-fault cases.
func reject(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}
