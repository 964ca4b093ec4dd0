package handler

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/qbank/internal/model"
)

type userResponse struct {
	ID          int64          `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Role        model.UserRole `json:"role"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
	}
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Password    string         `json:"password"`
	Role        model.UserRole `json:"role"`
}

func validRole(role model.UserRole) bool {
	switch role {
	case model.UserRoleAuthor, model.UserRoleReviewer, model.UserRoleAdmin:
		return true
	}
	return false
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if !validRole(req.Role) {
		respondError(w, http.StatusBadRequest, "role must be author, reviewer or admin")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create user: "+err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, userResponse{
		ID:          id,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Active:      true,
	})
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(*user))
}
