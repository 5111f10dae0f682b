package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/usecase"
)

// UserHandler exposes user account management endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes binds user management routes. Permission checks are applied
// by the caller at the group level.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/stats", h.Stats)
	r.GET("/available-employees", h.AvailableEmployees)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.PATCH("/:id/status", h.ToggleActive)
	r.DELETE("/:id", h.Delete)
	r.POST("/:id/reset-password", h.ResetPassword)
}

// List godoc
// @Summary List user accounts
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param username query string false "Username substring filter"
// @Param role query string false "Exact role filter"
// @Param is_active query bool false "Active flag filter"
// @Success 200 {object} UserListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := port.UserFilter{
		Username: strings.TrimSpace(c.Query("username")),
	}

	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role filter"))
			return
		}
		filter.Role = &role
	}

	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid is_active"))
			return
		}
		filter.IsActive = &active
	}

	details, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list users"))
		return
	}

	items := make([]UserPayload, 0, len(details))
	for _, detail := range details {
		items = append(items, newUserDetailPayload(detail))
	}

	c.JSON(http.StatusOK, UserListResponse{Items: items, Total: len(items)})
}

// Create godoc
// @Summary Create a user account
// @Tags Users
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body UserCreateRequest true "User payload"
// @Success 201 {object} UserPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), actor, usecase.CreateUserInput{
		Username:   req.Username,
		Password:   req.Password,
		Email:      req.Email,
		Role:       domain.Role(req.Role),
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		if respondWeakPassword(c, err) {
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "Username already exists"},
			{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "Invalid role"},
		}, http.StatusInternalServerError, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, newUserPayload(*user))
}

// Get godoc
// @Summary Fetch one user account
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "User ID"
// @Success 200 {object} UserPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		}, http.StatusInternalServerError, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, newUserPayload(*user))
}

// Update godoc
// @Summary Update a user account
// @Tags Users
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "User ID"
// @Param request body UserUpdateRequest true "User payload"
// @Success 200 {object} UserPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, usecase.UpdateUserInput{
		Username:   req.Username,
		Email:      req.Email,
		Role:       domain.Role(req.Role),
		EmployeeID: req.EmployeeID,
		IsActive:   *req.IsActive,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
			{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "Username already exists"},
			{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "Invalid role"},
		}, http.StatusInternalServerError, "failed to update user")
		return
	}

	c.JSON(http.StatusOK, newUserPayload(*user))
}

// ToggleActive godoc
// @Summary Toggle a user account's active flag
// @Description Flips the active state. Deactivating the last active admin is refused.
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "User ID"
// @Success 200 {object} UserStatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/status [patch]
func (h *UserHandler) ToggleActive(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	active, err := h.users.ToggleActive(c.Request.Context(), actor, id)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
			{Err: usecase.ErrLastAdminDeactivate, Status: http.StatusBadRequest, Message: "Cannot deactivate the last admin user"},
		}, http.StatusInternalServerError, "failed to update user status")
		return
	}

	c.JSON(http.StatusOK, UserStatusResponse{ID: id, IsActive: active})
}

// Delete godoc
// @Summary Soft-delete a user account
// @Description Removing the last admin account is refused.
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor, id); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
			{Err: usecase.ErrLastAdminDelete, Status: http.StatusBadRequest, Message: "Cannot delete the last admin user"},
		}, http.StatusInternalServerError, "failed to delete user")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "User deleted successfully"})
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Description Generates a random password, stores its hash, and returns the plaintext exactly once.
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "User ID"
// @Success 200 {object} PasswordResetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	password, err := h.users.ResetPassword(c.Request.Context(), actor, id)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		}, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, PasswordResetResponse{Password: password})
}

// Stats godoc
// @Summary User account statistics
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} UserStatsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load user stats"))
		return
	}

	c.JSON(http.StatusOK, UserStatsResponse{
		Total:        stats.Total,
		Active:       stats.Active,
		Admins:       stats.Admins,
		Managers:     stats.Managers,
		Regular:      stats.Regular,
		RecentLogins: stats.RecentLogins,
	})
}

// AvailableEmployees godoc
// @Summary Employees without a linked user account
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} EmployeePayload
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/available-employees [get]
func (h *UserHandler) AvailableEmployees(c *gin.Context) {
	employees, err := h.users.AvailableEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load available employees"))
		return
	}

	items := make([]EmployeePayload, 0, len(employees))
	for _, employee := range employees {
		items = append(items, newEmployeePayload(employee))
	}

	c.JSON(http.StatusOK, items)
}

// respondWeakPassword surfaces the specific policy rule that rejected a
// password. Returns false when err is not a policy failure.
func respondWeakPassword(c *gin.Context, err error) bool {
	if !errors.Is(err, usecase.ErrWeakPassword) {
		return false
	}
	c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
	return true
}
