package endpoints

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gatehouse/gatehouse/pkg/authn"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithAuthError translates a pipeline failure into a response.
func respondWithAuthError(w http.ResponseWriter, err error) {
	var authErr *authn.Error
	if errors.As(err, &authErr) {
		respondWithError(w, authErr.HTTPStatus(), authErr.Error())
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal error")
}

// clientIP extracts the caller address, honoring a proxy's X-Forwarded-For.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
