package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
	"wealthwise/internal/pagination"
	"wealthwise/internal/services"
)

// PeriodHandler handles budget period lifecycle requests.
type PeriodHandler struct {
	periodService services.PeriodServicer
	auditService  services.AuditServicer
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodService services.PeriodServicer, auditService services.AuditServicer) *PeriodHandler {
	return &PeriodHandler{periodService: periodService, auditService: auditService}
}

// CreatePeriodRequest represents the request payload for creating a period.
type CreatePeriodRequest struct {
	Name       string            `json:"name" binding:"required,min=1,max=100"`
	PeriodType models.PeriodType `json:"period_type" binding:"required,period_type"`
	StartDate  time.Time         `json:"start_date" binding:"required"`
	EndDate    time.Time         `json:"end_date" binding:"required"`
}

// UpdatePeriodRequest represents the request payload for a partial period update.
type UpdatePeriodRequest struct {
	Name       *string            `json:"name" binding:"omitempty,min=1,max=100"`
	PeriodType *models.PeriodType `json:"period_type" binding:"omitempty,period_type"`
	StartDate  *time.Time         `json:"start_date"`
	EndDate    *time.Time         `json:"end_date"`
}

// CreatePeriod handles creating a new budget period with its empty budget.
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.periodService.CreatePeriod(userID, req.Name, req.PeriodType, req.StartDate, req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PERIOD", "budget_period", period.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "period_type": req.PeriodType})

	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// ListPeriods handles listing the user's periods, newest first.
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.periodService.ListPeriods(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetActivePeriod handles retrieving the active period of a given type.
func (h *PeriodHandler) GetActivePeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodType := models.PeriodType(c.DefaultQuery("period_type", string(models.PeriodTypeMonthly)))
	if !periodType.Valid() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid period_type"))
		return
	}

	period, err := h.periodService.GetActivePeriod(userID, periodType)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if period == nil {
		c.JSON(http.StatusOK, gin.H{"period": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// ActivatePeriod handles marking a period as the active one of its type.
func (h *PeriodHandler) ActivatePeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.ActivatePeriod(userID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ACTIVATE_PERIOD", "budget_period", periodID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// UpdatePeriod handles a partial update of a period.
func (h *PeriodHandler) UpdatePeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.periodService.UpdatePeriod(userID, periodID, services.PeriodUpdate{
		Name:       req.Name,
		PeriodType: req.PeriodType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PERIOD", "budget_period", periodID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// DeletePeriod handles deleting a period, its budget data, and every
// transaction inside its date range.
func (h *PeriodHandler) DeletePeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.periodService.DeletePeriod(userID, periodID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PERIOD", "budget_period", periodID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Period deleted successfully"})
}
