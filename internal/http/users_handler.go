package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aapiden/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type UsersHandler struct {
	users   UserService
	timeout time.Duration
}

func NewUsersHandler(users UserService, timeout time.Duration) *UsersHandler {
	return &UsersHandler{
		users:   users,
		timeout: timeout,
	}
}

type CheckPasswordRequestDTO struct {
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordRequestDTO struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// POST /api/v1/users/register
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	session, err := h.users.Register(ctx, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// POST /api/v1/users/login
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	session, err := h.users.Login(ctx, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// POST /api/v1/users/renew
func (h *UsersHandler) Renew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.users.Renew(ctx, getActor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// PUT /api/v1/users/{user_id}
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	session, err := h.users.UpdateProfile(ctx, getActor(r), chi.URLParam(r, "user_id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// POST /api/v1/users/{user_id}/check-password
func (h *UsersHandler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckPasswordRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if _, err := h.users.CheckPassword(ctx, getActor(r), chi.URLParam(r, "user_id"), req.Password); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "password is valid"})
}

// PUT /api/v1/users/{user_id}/password
func (h *UsersHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdatePasswordRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.users.UpdatePassword(ctx, getActor(r), chi.URLParam(r, "user_id"), req.OldPassword, req.NewPassword); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

// GET /api/v1/admin/users
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	users, err := h.users.ListUsers(ctx, getActor(r), page)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// PUT /api/v1/admin/users/{user_id}
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.users.UpdateUser(ctx, getActor(r), chi.URLParam(r, "user_id"), req); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "user updated"})
}
