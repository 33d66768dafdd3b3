package endpoints

import (
	"errors"
	"net/http"
	"os"

	"github.com/gatehouse/gatehouse/pkg/server"
	gormstore "github.com/gatehouse/gatehouse/pkg/server/store/gorm"
)

var errDatabaseUnavailable = errors.New("database unavailable")

// StatusResponse represents the response from the / and /health endpoints
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RegisterStatusEndpoints registers the unauthenticated status endpoints
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus()).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth(s)).Methods("GET")
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, StatusResponse{
			Status:  "ok",
			Version: version(),
		})
	}
}

// handleHealth also checks database connectivity.
func handleHealth(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if s.DB == nil {
			err = errDatabaseUnavailable
		} else {
			err = gormstore.NewHealthStore(s.DB).CheckConnectivity()
		}
		if err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "error",
				"error":  "database connectivity check failed",
			})
			return
		}

		respondWithJSON(w, http.StatusOK, StatusResponse{
			Status:  "ok",
			Version: version(),
		})
	}
}

func version() string {
	if v := os.Getenv("GATEHOUSE_VERSION_DISPLAY"); v != "" {
		return v
	}
	return "0.1.0"
}
