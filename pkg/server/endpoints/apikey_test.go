package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/model"
)

func TestAPIKeyLifecycle(t *testing.T) {
	users := newFakeUserStore(&model.User{ID: "u1", Email: "alice@example.com", Role: model.RoleUser})
	srv := newTestServer(t, users, nil)
	session := sessionFor(t, srv, "u1")

	// Create
	req := httptest.NewRequest("POST", "/api-key", nil)
	req.AddCookie(&http.Cookie{Name: credentials.SessionCookieName, Value: session})
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created APIKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.APIKey, credentials.APIKeyPrefix))

	stored := users.get("u1")
	require.NotNil(t, stored.APIKey)
	assert.Equal(t, created.APIKey, *stored.APIKey)

	// The key authenticates on its own
	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+created.APIKey)
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var who WhoamiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &who))
	assert.Equal(t, "api_key", who.Scheme)

	// Fetch only reports presence
	req = httptest.NewRequest("GET", "/api-key", nil)
	req.AddCookie(&http.Cookie{Name: credentials.SessionCookieName, Value: session})
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var has map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &has))
	assert.True(t, has["has_api_key"])

	// Delete
	req = httptest.NewRequest("DELETE", "/api-key", nil)
	req.AddCookie(&http.Cookie{Name: credentials.SessionCookieName, Value: session})
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, users.get("u1").APIKey)

	// The deleted key no longer authenticates
	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+created.APIKey)
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKey_PendingUserForbidden(t *testing.T) {
	users := newFakeUserStore(&model.User{ID: "u1", Email: "new@example.com", Role: model.RolePending})
	srv := newTestServer(t, users, nil)

	req := httptest.NewRequest("POST", "/api-key", nil)
	req.AddCookie(&http.Cookie{Name: credentials.SessionCookieName, Value: sessionFor(t, srv, "u1")})
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPIKey_Unauthenticated(t *testing.T) {
	srv := newTestServer(t, newFakeUserStore(), nil)

	req := httptest.NewRequest("POST", "/api-key", nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
