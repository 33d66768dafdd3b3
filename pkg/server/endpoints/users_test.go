package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/config"
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/model"
)

func adminFixture() *fakeUserStore {
	return newFakeUserStore(
		&model.User{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin},
		&model.User{ID: "user-1", Email: "alice@example.com", Role: model.RoleUser},
		&model.User{ID: "pending-1", Email: "newbie@example.com", Role: model.RolePending},
	)
}

func authed(req *http.Request, session string) *http.Request {
	req.AddCookie(&http.Cookie{Name: credentials.SessionCookieName, Value: session})
	return req
}

func TestListUsers(t *testing.T) {
	users := adminFixture()
	srv := newTestServer(t, users, nil)

	t.Run("as admin", func(t *testing.T) {
		req := authed(httptest.NewRequest("GET", "/users", nil), sessionFor(t, srv, "admin-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var list []UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 3)
		assert.Equal(t, "admin-1", list[0].ID)
	})

	t.Run("as regular user", func(t *testing.T) {
		req := authed(httptest.NewRequest("GET", "/users", nil), sessionFor(t, srv, "user-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAddUser(t *testing.T) {
	t.Run("as admin", func(t *testing.T) {
		users := adminFixture()
		srv := newTestServer(t, users, nil)

		req := authed(httptest.NewRequest("POST", "/users", strings.NewReader(
			`{"email":"New@Example.com","password":"hunter22","name":"New User","role":"user"}`)),
			sessionFor(t, srv, "admin-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "new@example.com", created.Email)
		assert.Equal(t, "New User", created.Name)
		assert.Equal(t, "user", created.Role)
		assert.True(t, created.HasPassword)

		stored := users.get(created.ID)
		require.NotNil(t, stored)
		ok, err := credentials.VerifyPassword("hunter22", stored.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok, "created user must be able to sign in")
	})

	t.Run("role defaults to user", func(t *testing.T) {
		users := adminFixture()
		srv := newTestServer(t, users, nil)

		req := authed(httptest.NewRequest("POST", "/users", strings.NewReader(
			`{"email":"plain@example.com","password":"hunter22"}`)),
			sessionFor(t, srv, "admin-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "user", created.Role)
	})

	t.Run("works with signup disabled", func(t *testing.T) {
		users := adminFixture()
		srv := newTestServer(t, users, func(c *config.GatehouseConfig) {
			c.EnableSignup = false
		})

		req := authed(httptest.NewRequest("POST", "/users", strings.NewReader(
			`{"email":"closed@example.com","password":"hunter22"}`)),
			sessionFor(t, srv, "admin-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := adminFixture()
		srv := newTestServer(t, users, nil)

		req := authed(httptest.NewRequest("POST", "/users", strings.NewReader(
			`{"email":"alice@example.com","password":"hunter22"}`)),
			sessionFor(t, srv, "admin-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		users := adminFixture()
		srv := newTestServer(t, users, nil)

		req := authed(httptest.NewRequest("POST", "/users", strings.NewReader(
			`{"email":"x@example.com","password":"hunter22","role":"emperor"}`)),
			sessionFor(t, srv, "admin-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing credentials", func(t *testing.T) {
		users := adminFixture()
		srv := newTestServer(t, users, nil)

		req := authed(httptest.NewRequest("POST", "/users", strings.NewReader(
			`{"email":"x@example.com"}`)),
			sessionFor(t, srv, "admin-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("as regular user", func(t *testing.T) {
		users := adminFixture()
		srv := newTestServer(t, users, nil)

		req := authed(httptest.NewRequest("POST", "/users", strings.NewReader(
			`{"email":"x@example.com","password":"hunter22"}`)),
			sessionFor(t, srv, "user-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUpdateRole(t *testing.T) {
	tests := []struct {
		name     string
		targetID string
		body     string
		wantCode int
		wantRole model.Role
	}{
		{
			name:     "approve pending user",
			targetID: "pending-1",
			body:     `{"role":"user"}`,
			wantCode: http.StatusNoContent,
			wantRole: model.RoleUser,
		},
		{
			name:     "promote to admin",
			targetID: "user-1",
			body:     `{"role":"admin"}`,
			wantCode: http.StatusNoContent,
			wantRole: model.RoleAdmin,
		},
		{
			name:     "unknown role",
			targetID: "user-1",
			body:     `{"role":"superuser"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "self demotion refused",
			targetID: "admin-1",
			body:     `{"role":"user"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing user",
			targetID: "ghost",
			body:     `{"role":"user"}`,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := adminFixture()
			srv := newTestServer(t, users, nil)

			req := authed(
				httptest.NewRequest("PUT", "/users/"+tt.targetID+"/role", strings.NewReader(tt.body)),
				sessionFor(t, srv, "admin-1"),
			)
			rec := httptest.NewRecorder()
			srv.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusNoContent {
				assert.Equal(t, tt.wantRole, users.get(tt.targetID).Role)
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	users := adminFixture()
	srv := newTestServer(t, users, nil)
	admin := sessionFor(t, srv, "admin-1")

	t.Run("delete another user", func(t *testing.T) {
		req := authed(httptest.NewRequest("DELETE", "/users/user-1", nil), admin)
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Nil(t, users.get("user-1"))
	})

	t.Run("self deletion refused", func(t *testing.T) {
		req := authed(httptest.NewRequest("DELETE", "/users/admin-1", nil), admin)
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotNil(t, users.get("admin-1"))
	})

	t.Run("missing user", func(t *testing.T) {
		req := authed(httptest.NewRequest("DELETE", "/users/ghost", nil), admin)
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("as regular user", func(t *testing.T) {
		req := authed(httptest.NewRequest("DELETE", "/users/pending-1", nil), sessionFor(t, srv, "pending-1"))
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUpdateProfile(t *testing.T) {
	users := adminFixture()
	srv := newTestServer(t, users, nil)

	req := authed(
		httptest.NewRequest("PUT", "/profile", strings.NewReader(`{"name":"Alice Renamed"}`)),
		sessionFor(t, srv, "user-1"),
	)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Alice Renamed", resp.Name)
	assert.Equal(t, "Alice Renamed", users.get("user-1").Name)
}
