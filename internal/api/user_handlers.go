/**
 * @description
 * This file contains the HTTP handlers for the user-management routes. These
 * operate on the relational users table and are unrelated to the
 * directory-service account documents written by payment reconciliation.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Password hashing for the admin-bootstrap route.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutraflex/webhook-service/internal/domain"
	"github.com/nutraflex/webhook-service/internal/store"
)

// UserHandler serves the user-management CRUD routes.
type UserHandler struct {
	repo store.UserRepository
}

// NewUserHandler creates a new UserHandler with its repository.
func NewUserHandler(repo store.UserRepository) *UserHandler {
	return &UserHandler{repo: repo}
}

// HandleListUsers handles GET /api/users.
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// HandleCreateUser handles POST /api/users.
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}
	if req.Username == "" || req.Email == "" {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "username and email are required"})
		return
	}

	user, err := h.repo.CreateUser(r.Context(), req.Username, req.Email)
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// HandleGetUser handles GET /api/users/{id}.
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	user, err := h.repo.GetUser(r.Context(), id)
	if err != nil {
		respondUserError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// HandleUpdateUser handles PUT /api/users/{id}. Absent fields keep their
// current values.
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}

	user, err := h.repo.UpdateUser(r.Context(), id, req.Username, req.Email)
	if err != nil {
		respondUserError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// HandleDeleteUser handles DELETE /api/users/{id}.
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteUser(r.Context(), id); err != nil {
		respondUserError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateAdmin handles POST /api/create-admin, a temporary bootstrap
// route for creating an active admin record with a hashed password.
func (h *UserHandler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Email and password are required"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}

	user, err := h.repo.CreateAdminUser(r.Context(), req.Email, string(hashed))
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			respondWithJSON(w, http.StatusConflict, map[string]interface{}{"message": "User with this email already exists"})
			return
		}
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Admin user created successfully",
		"user_id": user.ID,
	})
}

func userIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

func respondUserError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		respondWithJSON(w, http.StatusNotFound, map[string]interface{}{"error": "user not found"})
		return
	}
	respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
}
