// internal/api/handler/user.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"userhub/internal/api/types"
	"userhub/internal/domain"
	"userhub/internal/service"
	"userhub/internal/util"
	"userhub/pkg/validation"
)

// DefaultTimeout is the per-request timeout applied by the router.
const DefaultTimeout = 30 * time.Second

// Pagination bounds for the list endpoint.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	service  service.UserService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc service.UserService, validate *validator.Validate, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service:  svc,
		validate: validate,
		logger:   logger,
	}
}

// Helper function to send JSON responses.
func (h *UserHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps service errors onto HTTP status codes. Storage and
// transaction failures collapse into a generic 500; their detail is logged
// but never echoed to the client.
func (h *UserHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "operation failed"

	switch {
	case util.IsError(err, util.ErrInvalidEmail),
		util.IsError(err, util.ErrInvalidUsername),
		util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrAlreadyExists):
		statusCode = http.StatusConflict
		message = err.Error()
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// respondWithDetails reports a 400 with per-field messages from payload
// validation.
func (h *UserHandler) respondWithDetails(w http.ResponseWriter, details map[string]string) {
	h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   util.ErrInvalidInput.Error(),
		"details": details,
	})
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Username string  `json:"username" validate:"required,min=3,max=100"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// CreateUser handles the create user request.
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithDetails(w, validation.ToDetails(err))
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Email, req.Username, req.FullName)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, user)
}

// GetUser handles the get user request.
// GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, user)
}

// GetAllUsers handles the paginated list request.
// GET /users?page=1&page_size=10
func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePositiveQuery(r, "page", DefaultPage)
	if err != nil || page < 1 {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	pageSize, err := parsePositiveQuery(r, "page_size", DefaultPageSize)
	if err != nil || pageSize < 1 || pageSize > MaxPageSize {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	skip := (page - 1) * pageSize
	users, total, err := h.service.GetAllUsers(r.Context(), skip, pageSize)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.User]{
		Items: users,
		Meta:  types.NewPaginationMeta(page, pageSize, total),
	})
}

// UpdateUserRequest represents the request body for a partial update. Absent
// fields are left untouched.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Username *string `json:"username" validate:"omitempty,min=3,max=100"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// UpdateUser handles the update user request.
// PUT /users/{userID}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithDetails(w, validation.ToDetails(err))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), userID, req.Email, req.Username, req.FullName)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, user)
}

// DeleteUser handles the delete user request.
// DELETE /users/{userID}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeactivateUser handles the deactivate request.
// POST /users/{userID}/deactivate
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// ActivateUser handles the activate request.
// POST /users/{userID}/activate
func (h *UserHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *UserHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, err := parseUserID(r)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	var user *domain.User
	if active {
		user, err = h.service.ActivateUser(r.Context(), userID)
	} else {
		user, err = h.service.DeactivateUser(r.Context(), userID)
	}
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, user)
}

func parseUserID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "userID"))
}

func parsePositiveQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
