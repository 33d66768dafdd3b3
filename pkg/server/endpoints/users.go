package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/gatehouse/gatehouse/pkg/audit"
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/identity"
	"github.com/gatehouse/gatehouse/pkg/model"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/middleware"
	"github.com/gatehouse/gatehouse/pkg/server/store"
)

type updateProfileRequest struct {
	Name string `json:"name"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type addUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// RegisterUsersEndpoints registers profile self-service and the admin
// user management endpoints.
func RegisterUsersEndpoints(s *server.Server, auth *middleware.Authenticator) {
	profile := s.Router.PathPrefix("/profile").Subrouter()
	profile.Use(auth.Middleware)
	profile.HandleFunc("", handleUpdateProfile(s)).Methods("PUT")

	users := s.Router.PathPrefix("/users").Subrouter()
	users.Use(auth.Middleware)
	users.Handle("", middleware.RequireAdmin(handleListUsers(s))).Methods("GET")
	users.Handle("", middleware.RequireAdmin(handleAddUser(s))).Methods("POST")
	users.Handle("/{id}/role", middleware.RequireAdmin(handleUpdateRole(s))).Methods("PUT")
	users.Handle("/{id}", middleware.RequireAdmin(handleDeleteUser(s))).Methods("DELETE")
}

func handleUpdateProfile(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" {
			respondWithError(w, http.StatusBadRequest, "name is required")
			return
		}

		if err := s.Users.UpdateProfile(id.User.ID, req.Name); err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}

		id.User.Name = req.Name
		respondWithJSON(w, http.StatusOK, newUserResponse(id.User))
	}
}

func handleListUsers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.Users.List()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to list users")
			return
		}

		response := make([]UserResponse, 0, len(users))
		for i := range users {
			response = append(response, newUserResponse(&users[i]))
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}

// handleAddUser creates a user on an admin's behalf. Unlike self-signup
// it ignores the signup enable flag: an admin adding accounts is exactly
// what a closed deployment uses instead of open signup.
func handleAddUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			respondWithError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		role := model.RoleUser
		if req.Role != "" {
			var err error
			role, err = model.RoleString(req.Role)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "unknown role: "+req.Role)
				return
			}
		}

		hash, err := credentials.HashPassword(req.Password)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "unusable password")
			return
		}

		user := &model.User{
			ID:           uuid.NewString(),
			Email:        normalizeEmail(req.Email),
			Name:         req.Name,
			Role:         role,
			PasswordHash: &hash,
		}
		if err := s.Users.Insert(user); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				respondWithError(w, http.StatusConflict, "a user with this email already exists")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "failed to create user")
			return
		}

		audit.Log(audit.ProvisionEvent{
			SubjectID: user.ID,
			Email:     user.Email,
			Role:      user.Role.String(),
			ClientIP:  clientIP(r),
			Scheme:    "admin",
		})

		respondWithJSON(w, http.StatusCreated, newUserResponse(user))
	}
}

func handleUpdateRole(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := identity.Get(r.Context())
		targetID := mux.Vars(r)["id"]

		var req updateRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		role, err := model.RoleString(req.Role)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "unknown role: "+req.Role)
			return
		}

		// An admin demoting themselves could lock the deployment out.
		if targetID == actor.User.ID && role != model.RoleAdmin {
			respondWithError(w, http.StatusBadRequest, "cannot change your own role")
			return
		}

		if err := s.Users.UpdateRole(targetID, role); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "user not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "failed to update role")
			return
		}

		audit.Log(audit.RoleChangeEvent{
			ActorID:   actor.User.ID,
			SubjectID: targetID,
			NewRole:   role.String(),
			ClientIP:  clientIP(r),
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeleteUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := identity.Get(r.Context())
		targetID := mux.Vars(r)["id"]

		if targetID == actor.User.ID {
			respondWithError(w, http.StatusBadRequest, "cannot delete your own account")
			return
		}

		if err := s.Users.Delete(targetID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "user not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "failed to delete user")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
