package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
	"wealthwise/internal/pagination"
	"wealthwise/internal/services"
)

// RecurringHandler handles recurring template requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer, auditService services.AuditServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, auditService: auditService}
}

// CreateRecurringIncomeRequest represents the payload for a recurring income template.
type CreateRecurringIncomeRequest struct {
	Name       string            `json:"name" binding:"required,min=1,max=100"`
	Amount     int64             `json:"amount" binding:"required,gt=0"`
	PeriodType models.PeriodType `json:"period_type" binding:"required,period_type"`
}

// UpdateRecurringIncomeRequest represents a partial update of a recurring income template.
type UpdateRecurringIncomeRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Amount   *int64  `json:"amount" binding:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
}

// CreateRecurringAllocationRequest represents the payload for a recurring allocation template.
type CreateRecurringAllocationRequest struct {
	SubcategoryID   uint              `json:"subcategory_id" binding:"required"`
	AllocatedAmount int64             `json:"allocated_amount" binding:"required,gt=0"`
	PeriodType      models.PeriodType `json:"period_type" binding:"required,period_type"`
}

// UpdateRecurringAllocationRequest represents a partial update of a recurring allocation template.
type UpdateRecurringAllocationRequest struct {
	AllocatedAmount *int64 `json:"allocated_amount" binding:"omitempty,gt=0"`
	IsActive        *bool  `json:"is_active"`
}

// ListIncomeSources handles listing recurring income templates.
func (h *RecurringHandler) ListIncomeSources(c *gin.Context) {
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

	result, err := h.recurringService.ListIncomeSources(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateIncomeSource handles creating a recurring income template.
func (h *RecurringHandler) CreateIncomeSource(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	source, err := h.recurringService.CreateIncomeSource(userID, req.Name, req.Amount, req.PeriodType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING_INCOME", "recurring_income_source", source.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"recurring_income_source": source})
}

// UpdateIncomeSource handles updating a recurring income template.
func (h *RecurringHandler) UpdateIncomeSource(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sourceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	source, err := h.recurringService.UpdateIncomeSource(userID, sourceID, req.Name, req.Amount, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECURRING_INCOME", "recurring_income_source", sourceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"recurring_income_source": source})
}

// DeleteIncomeSource handles deleting a recurring income template.
func (h *RecurringHandler) DeleteIncomeSource(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sourceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteIncomeSource(userID, sourceID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING_INCOME", "recurring_income_source", sourceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Recurring income source deleted successfully"})
}

// ListAllocations handles listing recurring allocation templates.
func (h *RecurringHandler) ListAllocations(c *gin.Context) {
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

	result, err := h.recurringService.ListAllocations(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateAllocation handles creating a recurring allocation template.
func (h *RecurringHandler) CreateAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	allocation, err := h.recurringService.CreateAllocation(userID, req.SubcategoryID, req.AllocatedAmount, req.PeriodType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING_ALLOCATION", "recurring_budget_allocation", allocation.ID, c.ClientIP(),
		map[string]interface{}{"subcategory_id": req.SubcategoryID, "allocated_amount": req.AllocatedAmount})

	c.JSON(http.StatusCreated, gin.H{"recurring_allocation": allocation})
}

// UpdateAllocation handles updating a recurring allocation template.
func (h *RecurringHandler) UpdateAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	allocation, err := h.recurringService.UpdateAllocation(userID, allocationID, req.AllocatedAmount, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECURRING_ALLOCATION", "recurring_budget_allocation", allocationID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"recurring_allocation": allocation})
}

// DeleteAllocation handles deleting a recurring allocation template.
func (h *RecurringHandler) DeleteAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteAllocation(userID, allocationID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING_ALLOCATION", "recurring_budget_allocation", allocationID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Recurring allocation deleted successfully"})
}
