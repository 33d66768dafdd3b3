package endpoints

import (
	"net/http"

	"github.com/gatehouse/gatehouse/pkg/audit"
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/identity"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/middleware"
)

// APIKeyResponse carries a freshly minted API key. The key is returned
// exactly once; subsequent reads only report whether one exists.
type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// RegisterAPIKeyEndpoints registers API key lifecycle endpoints. Only
// verified users may hold API keys.
func RegisterAPIKeyEndpoints(s *server.Server, auth *middleware.Authenticator) {
	router := s.Router.PathPrefix("/api-key").Subrouter()
	router.Use(auth.Middleware)

	router.Handle("", middleware.RequireVerified(handleCreateAPIKey(s))).Methods("POST")
	router.Handle("", middleware.RequireVerified(handleGetAPIKey())).Methods("GET")
	router.Handle("", middleware.RequireVerified(handleDeleteAPIKey(s))).Methods("DELETE")
}

func handleCreateAPIKey(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		if !s.Config.EnableAPIKeys {
			respondWithError(w, http.StatusForbidden, "api keys are disabled")
			return
		}

		key := credentials.GenerateAPIKey()
		if err := s.Users.SetAPIKey(id.User.ID, &key); err != nil {
			audit.Log(audit.APIKeyEvent{
				SubjectID:    id.User.ID,
				ClientIP:     clientIP(r),
				Operation:    "create",
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, "failed to store api key")
			return
		}

		audit.Log(audit.APIKeyEvent{
			SubjectID: id.User.ID,
			ClientIP:  clientIP(r),
			Operation: "create",
			Success:   true,
		})
		respondWithJSON(w, http.StatusCreated, APIKeyResponse{APIKey: key})
	}
}

func handleGetAPIKey() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		respondWithJSON(w, http.StatusOK, map[string]bool{"has_api_key": id.User.APIKey != nil})
	}
}

func handleDeleteAPIKey(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())

		if err := s.Users.SetAPIKey(id.User.ID, nil); err != nil {
			audit.Log(audit.APIKeyEvent{
				SubjectID:    id.User.ID,
				ClientIP:     clientIP(r),
				Operation:    "delete",
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, "failed to delete api key")
			return
		}

		audit.Log(audit.APIKeyEvent{
			SubjectID: id.User.ID,
			ClientIP:  clientIP(r),
			Operation: "delete",
			Success:   true,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
