package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wealthwise/internal/services"
)

// AnalyticsHandler handles budget analytics requests.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
	auditService     services.AuditServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer, auditService services.AuditServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, auditService: auditService}
}

// CheckOverspending handles the per-subcategory overspending report for the
// active period.
func (h *AnalyticsHandler) CheckOverspending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.analyticsService.CheckOverspending(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// CheckBalance handles the advisory allocation-versus-available check.
func (h *AnalyticsHandler) CheckBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.analyticsService.CheckBalance(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// CleanupDuplicateAllocations handles the duplicate-allocation remediation
// utility for the active budget.
func (h *AnalyticsHandler) CleanupDuplicateAllocations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	removed, err := h.analyticsService.CleanupDuplicateAllocations(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CLEANUP_DUPLICATE_ALLOCATIONS", "budget", 0, c.ClientIP(),
		map[string]interface{}{"removed": removed})

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
