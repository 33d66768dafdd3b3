package endpoints

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/gatehouse/gatehouse/pkg/audit"
	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/server"
)

// stateCookieName carries the OAuth state between the redirect and the
// callback.
const stateCookieName = "oauth_state"

// RegisterProviderEndpoints registers the authorization-code login flow.
// The endpoints respond 404 when no provider is configured.
func RegisterProviderEndpoints(s *server.Server) {
	s.Router.HandleFunc("/login/provider", handleProviderLogin(s)).Methods("GET")
	s.Router.HandleFunc("/login/provider/callback", handleProviderCallback(s)).Methods("GET")
}

func handleProviderLogin(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Provider == nil {
			respondWithError(w, http.StatusNotFound, "external provider is not configured")
			return
		}

		state, err := randomState()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to generate state")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/",
			MaxAge:   300,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, s.Provider.AuthCodeURL(state), http.StatusFound)
	}
}

func handleProviderCallback(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Provider == nil {
			respondWithError(w, http.StatusNotFound, "external provider is not configured")
			return
		}

		cookie, err := r.Cookie(stateCookieName)
		if err != nil || cookie.Value == "" {
			respondWithError(w, http.StatusBadRequest, "missing state cookie")
			return
		}
		state := r.URL.Query().Get("state")
		if subtle.ConstantTimeCompare([]byte(state), []byte(cookie.Value)) != 1 {
			respondWithError(w, http.StatusBadRequest, "state mismatch")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			respondWithError(w, http.StatusBadRequest, "missing authorization code")
			return
		}

		claim, err := s.Provider.ExchangeCode(r.Context(), code)
		if err != nil {
			audit.Log(audit.AuthenticateEvent{
				ClientIP:     clientIP(r),
				Scheme:       authn.SchemeProvider,
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusUnauthorized, "code exchange failed")
			return
		}

		outcome, err := s.Pipeline.ProviderCallback(r.Context(), claim)
		if err != nil {
			audit.Log(audit.AuthenticateEvent{
				Email:        claim.Email,
				ClientIP:     clientIP(r),
				Scheme:       authn.SchemeProvider,
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithAuthError(w, err)
			return
		}

		audit.Log(audit.AuthenticateEvent{
			SubjectID: outcome.User.ID,
			Email:     outcome.User.Email,
			ClientIP:  clientIP(r),
			Scheme:    outcome.Scheme,
			Success:   true,
		})
		if outcome.Provisioned {
			audit.Log(audit.ProvisionEvent{
				SubjectID: outcome.User.ID,
				Email:     outcome.User.Email,
				Role:      outcome.User.Role.String(),
				ClientIP:  clientIP(r),
				Scheme:    outcome.Scheme,
			})
		}

		clearStateCookie(w)
		if err := startSession(w, r, s, outcome.User); err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to issue session")
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
