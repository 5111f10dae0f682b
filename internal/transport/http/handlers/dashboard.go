package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hongquyngo/authority-management-system/internal/usecase"
)

// DashboardHandler serves the landing page counters.
type DashboardHandler struct {
	authorities *usecase.AuthorityService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(authorities *usecase.AuthorityService) *DashboardHandler {
	return &DashboardHandler{authorities: authorities}
}

// RegisterRoutes binds dashboard routes onto an authenticated group.
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/summary", h.Summary)
}

// Summary godoc
// @Summary Dashboard counters
// @Description Returns approver, expiry and volume counters for the landing page.
// @Tags Dashboard
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} DashboardSummaryResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.authorities.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load dashboard summary"))
		return
	}

	c.JSON(http.StatusOK, DashboardSummaryResponse{
		ActiveApprovers:   summary.ActiveApprovers,
		ExpiringSoon:      summary.ExpiringSoon,
		TotalAuthorities:  summary.TotalAuthorities,
		ActiveAuthorities: summary.ActiveAuthorities,
	})
}
