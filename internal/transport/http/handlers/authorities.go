package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/transport/http/middleware"
	"github.com/hongquyngo/authority-management-system/internal/usecase"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AuthorityHandler exposes approval authority endpoints.
type AuthorityHandler struct {
	authorities *usecase.AuthorityService
}

// NewAuthorityHandler constructs AuthorityHandler.
func NewAuthorityHandler(authorities *usecase.AuthorityService) *AuthorityHandler {
	return &AuthorityHandler{authorities: authorities}
}

// RegisterRoutes binds authority routes onto an authenticated group.
func (h *AuthorityHandler) RegisterRoutes(r *gin.RouterGroup) {
	canCreate := middleware.RequirePermission(func(p domain.Permissions) bool { return p.CanCreate })
	canEdit := middleware.RequirePermission(func(p domain.Permissions) bool { return p.CanEdit })
	canDelete := middleware.RequirePermission(func(p domain.Permissions) bool { return p.CanDelete })

	r.GET("", h.List)
	r.POST("", canCreate, h.Create)
	r.POST("/validate", canCreate, h.Validate)
	r.POST("/batch", canCreate, h.BatchCreate)
	r.GET("/:id", h.Get)
	r.PUT("/:id", canEdit, h.Update)
	r.PATCH("/:id/status", canEdit, h.SetStatus)
	r.DELETE("/:id", canDelete, h.Delete)
}

// List godoc
// @Summary List approval authorities
// @Description Returns one page of authorities narrowed by the sparse filter set.
// @Tags Authorities
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param employee_id query int false "Filter by employee"
// @Param approval_type_id query int false "Filter by approval type"
// @Param company_id query int false "Filter by company (includes global grants)"
// @Param status query string false "Filter by derived status"
// @Param page query int false "Zero-based page index"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} AuthorityListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities [get]
func (h *AuthorityHandler) List(c *gin.Context) {
	filter, ok := parseAuthorityFilter(c)
	if !ok {
		return
	}

	page, err := h.authorities.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list authorities"))
		return
	}

	items := make([]AuthorityPayload, 0, len(page.Items))
	for _, detail := range page.Items {
		items = append(items, newAuthorityPayload(detail))
	}

	c.JSON(http.StatusOK, AuthorityListResponse{
		Items:   items,
		Page:    filter.Page,
		Limit:   filter.Limit,
		HasNext: page.HasNext,
	})
}

// Create godoc
// @Summary Create an approval authority
// @Description Validates the submitted authority and persists it when every rule passes.
// @Tags Authorities
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body AuthorityRequest true "Authority payload"
// @Success 201 {object} AuthorityPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities [post]
func (h *AuthorityHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req AuthorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid authority payload"))
		return
	}

	input, err := toAuthorityInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	detail, err := h.authorities.Create(c.Request.Context(), actor, input)
	if err != nil {
		if respondValidationError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Error: "+err.Error()))
		return
	}

	c.JSON(http.StatusCreated, newAuthorityPayload(*detail))
}

// Validate godoc
// @Summary Dry-run authority validation
// @Description Runs the full rule set against a draft authority without persisting anything.
// @Tags Authorities
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body AuthorityValidateRequest true "Draft authority"
// @Success 200 {object} AuthorityValidateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities/validate [post]
func (h *AuthorityHandler) Validate(c *gin.Context) {
	var req AuthorityValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid authority payload"))
		return
	}

	input, err := toAuthorityInput(req.AuthorityRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	violations, err := h.authorities.Validate(c.Request.Context(), input, req.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "validation check failed"))
		return
	}

	if violations == nil {
		violations = []string{}
	}

	c.JSON(http.StatusOK, AuthorityValidateResponse{
		Valid:  len(violations) == 0,
		Errors: violations,
	})
}

// BatchCreate godoc
// @Summary Grant several authorities at once
// @Description Expands approval types against companies and creates each pair independently, reporting per-pair failures.
// @Tags Authorities
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body AuthorityBatchRequest true "Batch grant payload"
// @Success 200 {object} AuthorityBatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities/batch [post]
func (h *AuthorityHandler) BatchCreate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req AuthorityBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid batch payload"))
		return
	}

	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}
	validTo, err := parseDatePtr(req.ValidTo)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	input := usecase.BatchCreateInput{
		EmployeeID: req.EmployeeID,
		Entries:    make([]usecase.BatchEntry, 0, len(req.Entries)),
		CompanyIDs: req.CompanyIDs,
		ValidFrom:  validFrom,
		ValidTo:    validTo,
		Notes:      req.Notes,
	}
	for _, entry := range req.Entries {
		input.Entries = append(input.Entries, usecase.BatchEntry{
			ApprovalTypeID: entry.ApprovalTypeID,
			MaxAmount:      entry.MaxAmount,
		})
	}

	result, err := h.authorities.BatchCreate(c.Request.Context(), actor, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	failures := make([]AuthorityBatchFailure, 0, len(result.Failures))
	for _, failure := range result.Failures {
		failures = append(failures, AuthorityBatchFailure{
			Label:  failure.Label,
			Reason: failure.Reason,
		})
	}

	c.JSON(http.StatusOK, AuthorityBatchResponse{
		SuccessCount: result.SuccessCount,
		Failures:     failures,
	})
}

// Get godoc
// @Summary Fetch one authority
// @Tags Authorities
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Authority ID"
// @Success 200 {object} AuthorityPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities/{id} [get]
func (h *AuthorityHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	detail, err := h.authorities.Get(c.Request.Context(), id)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAuthorityNotFound, Status: http.StatusNotFound, Message: "Authority not found"},
		}, http.StatusInternalServerError, "failed to load authority")
		return
	}

	c.JSON(http.StatusOK, newAuthorityPayload(*detail))
}

// Update godoc
// @Summary Update an approval authority
// @Description Revalidates the full rule set, excluding the record itself from the duplicate check.
// @Tags Authorities
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Authority ID"
// @Param request body AuthorityRequest true "Authority payload"
// @Success 200 {object} AuthorityPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities/{id} [put]
func (h *AuthorityHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AuthorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid authority payload"))
		return
	}

	input, err := toAuthorityInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	detail, err := h.authorities.Update(c.Request.Context(), actor, id, input)
	if err != nil {
		if respondValidationError(c, err) {
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAuthorityNotFound, Status: http.StatusNotFound, Message: "Authority not found"},
		}, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, newAuthorityPayload(*detail))
}

// SetStatus godoc
// @Summary Activate or deactivate an authority
// @Tags Authorities
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Authority ID"
// @Param request body AuthorityStatusRequest true "Desired active flag"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities/{id}/status [patch]
func (h *AuthorityHandler) SetStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AuthorityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "is_active is required"))
		return
	}

	if err := h.authorities.SetActive(c.Request.Context(), actor, id, *req.IsActive); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAuthorityNotFound, Status: http.StatusNotFound, Message: "Authority not found"},
		}, http.StatusInternalServerError, "failed to update authority status")
		return
	}

	message := "Authority deactivated"
	if *req.IsActive {
		message = "Authority activated"
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: message})
}

// Delete godoc
// @Summary Soft-delete an authority
// @Tags Authorities
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Authority ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/authorities/{id} [delete]
func (h *AuthorityHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.authorities.Delete(c.Request.Context(), actor, id); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAuthorityNotFound, Status: http.StatusNotFound, Message: "Authority not found"},
		}, http.StatusInternalServerError, "failed to delete authority")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Authority deleted successfully"})
}

// requireActor resolves the authenticated username used for audit stamping.
func requireActor(c *gin.Context) (string, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.Username == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return "", false
	}
	return claims.Username, true
}

// parseIDParam extracts the :id path parameter as a positive integer.
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid id"))
		return 0, false
	}
	return id, true
}

func toAuthorityInput(req AuthorityRequest) (usecase.AuthorityInput, error) {
	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		return usecase.AuthorityInput{}, err
	}

	validTo, err := parseDatePtr(req.ValidTo)
	if err != nil {
		return usecase.AuthorityInput{}, err
	}

	return usecase.AuthorityInput{
		EmployeeID:     req.EmployeeID,
		ApprovalTypeID: req.ApprovalTypeID,
		CompanyID:      req.CompanyID,
		ValidFrom:      validFrom,
		ValidTo:        validTo,
		MaxAmount:      req.MaxAmount,
		Notes:          req.Notes,
	}, nil
}

// parseAuthorityFilter reads list query parameters, responding with 400 on
// malformed values.
func parseAuthorityFilter(c *gin.Context) (port.AuthorityFilter, bool) {
	filter := port.AuthorityFilter{
		Page:  0,
		Limit: defaultPageSize,
	}

	var ok bool
	if filter.EmployeeID, ok = queryInt64Ptr(c, "employee_id"); !ok {
		return filter, false
	}
	if filter.ApprovalTypeID, ok = queryInt64Ptr(c, "approval_type_id"); !ok {
		return filter, false
	}
	if filter.CompanyID, ok = queryInt64Ptr(c, "company_id"); !ok {
		return filter, false
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.AuthorityStatus(raw)
		switch status {
		case domain.AuthorityStatusActive, domain.AuthorityStatusInactive,
			domain.AuthorityStatusExpired, domain.AuthorityStatusExpiringSoon:
			filter.Status = &status
		default:
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown status filter"))
			return filter, false
		}
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid page"))
			return filter, false
		}
		filter.Page = page
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
			return filter, false
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
		filter.Limit = limit
	}

	return filter, true
}

func queryInt64Ptr(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid "+name))
		return nil, false
	}

	return &value, true
}
