package endpoints

import (
	"net/http"

	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/identity"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/middleware"
)

// WhoamiResponse represents the response from the /whoami endpoint
type WhoamiResponse struct {
	User     UserResponse `json:"user"`
	Scheme   string       `json:"scheme"`
	ClientIP string       `json:"client_ip,omitempty"`
}

// RegisterWhoamiEndpoint registers the /whoami endpoint
func RegisterWhoamiEndpoint(s *server.Server, auth *middleware.Authenticator) {
	whoamiRouter := s.Router.PathPrefix("/whoami").Subrouter()
	whoamiRouter.Use(auth.Middleware)

	whoamiRouter.HandleFunc("", handleWhoami(s)).Methods("GET")
}

func handleWhoami(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "unable to determine identity")
			return
		}

		// Session callers get a fresh cookie so an active session slides
		// past its original expiry.
		if id.Scheme == authn.SchemeSession {
			if err := startSession(w, r, s, id.User); err != nil {
				respondWithError(w, http.StatusInternalServerError, "failed to refresh session")
				return
			}
		}

		response := WhoamiResponse{
			User:   newUserResponse(id.User),
			Scheme: id.Scheme,
		}
		if id.RemoteIP != nil {
			response.ClientIP = id.RemoteIP.String()
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}
