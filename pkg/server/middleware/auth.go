// Package middleware provides request authentication middleware built on
// the credential resolution pipeline.
package middleware

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gatehouse/gatehouse/pkg/audit"
	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/identity"
)

// Authenticator is middleware that resolves request credentials to an
// identity and stores it in the request context.
type Authenticator struct {
	Pipeline *authn.Pipeline
	Extract  credentials.ExtractOptions
}

// NewAuthenticator creates a new Authenticator middleware.
func NewAuthenticator(pipeline *authn.Pipeline, extract credentials.ExtractOptions) *Authenticator {
	return &Authenticator{Pipeline: pipeline, Extract: extract}
}

// Middleware returns an HTTP middleware that authenticates every request.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := credentials.FromRequest(r, a.Extract)

		outcome, err := a.Pipeline.Resolve(r.Context(), creds, r.URL.Path)
		if err != nil {
			audit.Log(audit.AuthenticateEvent{
				ClientIP:     remoteIP(r).String(),
				Scheme:       "request",
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondError(w, err)
			return
		}

		if outcome.Provisioned {
			audit.Log(audit.ProvisionEvent{
				SubjectID: outcome.User.ID,
				Email:     outcome.User.Email,
				Role:      outcome.User.Role.String(),
				ClientIP:  remoteIP(r).String(),
				Scheme:    outcome.Scheme,
			})
		}

		id := &identity.Identity{
			User:        outcome.User,
			Scheme:      outcome.Scheme,
			Provisioned: outcome.Provisioned,
		}
		id.WithRemoteIP(remoteIP(r))

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// RequireVerified rejects authenticated callers whose account is still
// pending approval.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondStatus(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !id.IsVerified() {
			respondStatus(w, http.StatusForbidden, "account is pending approval")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondStatus(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !id.IsAdmin() {
			respondStatus(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondError(w http.ResponseWriter, err error) {
	var authErr *authn.Error
	if errors.As(err, &authErr) {
		respondStatus(w, authErr.HTTPStatus(), authErr.Error())
		return
	}
	respondStatus(w, http.StatusInternalServerError, "internal error")
}

func respondStatus(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": message})
}

// remoteIP extracts the client address, honoring a proxy's X-Forwarded-For.
func remoteIP(r *http.Request) net.IP {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
