package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/gatehouse/gatehouse/pkg/audit"
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/identity"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/middleware"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// RegisterPasswordEndpoints registers the password change endpoint.
func RegisterPasswordEndpoints(s *server.Server, auth *middleware.Authenticator) {
	router := s.Router.PathPrefix("/password").Subrouter()
	router.Use(auth.Middleware)

	router.HandleFunc("", handleChangePassword(s)).Methods("PUT")
}

func handleChangePassword(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		// Behind a trusted proxy the proxy owns authentication; a locally
		// set password would bypass it.
		if s.Config.TrustedHeaderEnabled() {
			respondWithError(w, http.StatusForbidden, "passwords are managed by the authentication proxy")
			return
		}

		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.NewPassword == "" {
			respondWithError(w, http.StatusBadRequest, "new password is required")
			return
		}

		// Users with a stored password must prove the current one. Users
		// provisioned from a provider or directory have none and may set
		// one directly.
		if id.User.PasswordHash != nil {
			ok, err := credentials.VerifyPassword(req.CurrentPassword, id.User.PasswordHash)
			if err != nil || !ok {
				audit.Log(audit.PasswordEvent{
					SubjectID:    id.User.ID,
					ClientIP:     clientIP(r),
					Success:      false,
					ErrorMessage: "current password mismatch",
				})
				respondWithError(w, http.StatusUnauthorized, "current password is incorrect")
				return
			}
		}

		hash, err := credentials.HashPassword(req.NewPassword)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "unusable password")
			return
		}
		if err := s.Users.UpdatePassword(id.User.ID, hash); err != nil {
			audit.Log(audit.PasswordEvent{
				SubjectID:    id.User.ID,
				ClientIP:     clientIP(r),
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, "failed to update password")
			return
		}

		audit.Log(audit.PasswordEvent{
			SubjectID: id.User.ID,
			ClientIP:  clientIP(r),
			Success:   true,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
