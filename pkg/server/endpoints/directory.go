package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/gatehouse/gatehouse/pkg/audit"
	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/server"
)

type directoryLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterDirectoryEndpoints registers the directory bind login.
func RegisterDirectoryEndpoints(s *server.Server) {
	s.Router.HandleFunc("/login/directory", handleDirectoryLogin(s)).Methods("POST")
}

func handleDirectoryLogin(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directoryLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			respondWithError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		outcome, err := s.Pipeline.DirectoryLogin(r.Context(), req.Username, req.Password)
		if err != nil {
			audit.Log(audit.AuthenticateEvent{
				Email:        req.Username,
				ClientIP:     clientIP(r),
				Scheme:       authn.SchemeDirectory,
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

		if err := startSession(w, r, s, outcome.User); err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to issue session")
			return
		}
		respondWithJSON(w, http.StatusOK, newUserResponse(outcome.User))
	}
}
