package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hongquyngo/authority-management-system/internal/usecase"
)

// LookupHandler serves the reference data behind authority and user forms.
type LookupHandler struct {
	lookups *usecase.LookupService
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(lookups *usecase.LookupService) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

// RegisterRoutes binds lookup routes onto an authenticated group.
func (h *LookupHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/approval-types", h.ApprovalTypes)
	r.GET("/companies", h.Companies)
	r.GET("/employees", h.Employees)
}

// ApprovalTypes godoc
// @Summary List active approval types
// @Tags Lookups
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} ApprovalTypePayload
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/approval-types [get]
func (h *LookupHandler) ApprovalTypes(c *gin.Context) {
	types, err := h.lookups.ApprovalTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load approval types"))
		return
	}

	items := make([]ApprovalTypePayload, 0, len(types))
	for _, approvalType := range types {
		items = append(items, ApprovalTypePayload{
			ID:             approvalType.ID,
			Code:           approvalType.Code,
			Name:           approvalType.Name,
			Description:    approvalType.Description,
			RequiresAmount: approvalType.RequiresAmount(),
		})
	}

	c.JSON(http.StatusOK, items)
}

// Companies godoc
// @Summary List companies
// @Tags Lookups
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} CompanyPayload
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/companies [get]
func (h *LookupHandler) Companies(c *gin.Context) {
	companies, err := h.lookups.Companies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load companies"))
		return
	}

	items := make([]CompanyPayload, 0, len(companies))
	for _, company := range companies {
		items = append(items, CompanyPayload{
			ID:   company.ID,
			Code: company.Code,
			Name: company.Name,
		})
	}

	c.JSON(http.StatusOK, items)
}

// Employees godoc
// @Summary List active employees
// @Tags Lookups
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} EmployeePayload
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/employees [get]
func (h *LookupHandler) Employees(c *gin.Context) {
	employees, err := h.lookups.Employees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load employees"))
		return
	}

	items := make([]EmployeePayload, 0, len(employees))
	for _, employee := range employees {
		items = append(items, newEmployeePayload(employee))
	}

	c.JSON(http.StatusOK, items)
}
