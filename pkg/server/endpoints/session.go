package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gatehouse/gatehouse/pkg/audit"
	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/identity"
	"github.com/gatehouse/gatehouse/pkg/model"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/middleware"
)

// UserResponse is the JSON shape of a user returned by the API. The
// password hash and API key material never leave the server.
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	HasPassword  bool      `json:"has_password"`
	HasAPIKey    bool      `json:"has_api_key"`
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role.String(),
		HasPassword:  u.PasswordHash != nil,
		HasAPIKey:    u.APIKey != nil,
		LastActiveAt: u.LastActiveAt,
		CreatedAt:    u.CreatedAt,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterSessionEndpoints registers signup, signin and signout.
func RegisterSessionEndpoints(s *server.Server, auth *middleware.Authenticator) {
	s.Router.HandleFunc("/signup", handleSignUp(s)).Methods("POST")
	s.Router.HandleFunc("/signin", handleSignIn(s)).Methods("POST")

	signout := s.Router.PathPrefix("/signout").Subrouter()
	signout.Use(auth.Middleware)
	signout.HandleFunc("", handleSignOut(s)).Methods("POST")
}

func handleSignUp(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			respondWithError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		outcome, err := s.Pipeline.SignUp(r.Context(), normalizeEmail(req.Email), req.Password, req.Name)
		if err != nil {
			respondWithAuthError(w, err)
			return
		}

		audit.Log(audit.ProvisionEvent{
			SubjectID: outcome.User.ID,
			Email:     outcome.User.Email,
			Role:      outcome.User.Role.String(),
			ClientIP:  clientIP(r),
			Scheme:    outcome.Scheme,
		})

		if err := startSession(w, r, s, outcome.User); err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to issue session")
			return
		}
		respondWithJSON(w, http.StatusCreated, newUserResponse(outcome.User))
	}
}

func handleSignIn(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// With authentication off, any signin resolves to the shared
		// local admin account; the body is not consulted.
		if !s.Config.EnableAuth {
			outcome, err := s.Pipeline.BootstrapSignIn(r.Context())
			if err != nil {
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
			if err := startSession(w, r, s, outcome.User); err != nil {
				respondWithError(w, http.StatusInternalServerError, "failed to issue session")
				return
			}
			respondWithJSON(w, http.StatusOK, newUserResponse(outcome.User))
			return
		}

		var req signInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, err := s.Pipeline.SignIn(r.Context(), normalizeEmail(req.Email), req.Password)
		if err != nil {
			audit.Log(audit.AuthenticateEvent{
				Email:        normalizeEmail(req.Email),
				ClientIP:     clientIP(r),
				Scheme:       authn.SchemePassword,
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

		if err := startSession(w, r, s, outcome.User); err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to issue session")
			return
		}
		respondWithJSON(w, http.StatusOK, newUserResponse(outcome.User))
	}
}

func handleSignOut(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := identity.Get(r.Context()); ok {
			audit.Log(audit.SessionEvent{
				SubjectID: id.User.ID,
				ClientIP:  clientIP(r),
				Operation: "revoke",
			})
		}
		clearSessionCookie(w)
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
	}
}

// startSession mints a session token for the user and attaches it as a
// cookie.
func startSession(w http.ResponseWriter, r *http.Request, s *server.Server, user *model.User) error {
	raw, err := s.Pipeline.IssueSession(user.ID)
	if err != nil {
		return err
	}

	audit.Log(audit.SessionEvent{
		SubjectID: user.ID,
		ClientIP:  clientIP(r),
		Operation: "issue",
	})

	cookie := &http.Cookie{
		Name:     credentials.SessionCookieName,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl, err := s.Config.SessionTTLDuration(); err == nil && ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, cookie)
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     credentials.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
