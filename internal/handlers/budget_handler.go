package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/services"
)

// BudgetHandler handles active-budget bookkeeping requests: income sources,
// allocations, and the cached totals.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// UpdateBudgetRequest represents the request payload for directly setting
// budget fields. Amounts are minor units (cents).
type UpdateBudgetRequest struct {
	TotalIncome           *int64 `json:"total_income" binding:"omitempty,gte=0"`
	BalanceBroughtForward *int64 `json:"balance_brought_forward"`
}

// IncomeSourceRequest represents the request payload for adding an income source.
type IncomeSourceRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// UpdateIncomeSourceRequest represents the request payload for updating an income source.
type UpdateIncomeSourceRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=100"`
	Amount *int64  `json:"amount" binding:"omitempty,gt=0"`
}

// SetAllocationsRequest represents the full replacement set of allocations.
type SetAllocationsRequest struct {
	Allocations []services.AllocationEntry `json:"allocations" binding:"required,dive"`
}

// GetBudget handles retrieving the active budget snapshot.
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.budgetService.GetSnapshot(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": snapshot})
}

// UpdateBudget handles directly setting budget fields.
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudgetFields(userID, req.TotalIncome, req.BalanceBroughtForward)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// AddIncomeSource handles adding an income source to the active budget,
// creating a default monthly period first when none is active.
func (h *BudgetHandler) AddIncomeSource(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IncomeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	source, err := h.budgetService.AddIncomeSource(userID, req.Name, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_INCOME_SOURCE", "income_source", source.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"income_source": source})
}

// UpdateIncomeSource handles updating an income source on the active budget.
func (h *BudgetHandler) UpdateIncomeSource(c *gin.Context) {
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

	var req UpdateIncomeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	source, err := h.budgetService.UpdateIncomeSource(userID, sourceID, req.Name, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_INCOME_SOURCE", "income_source", sourceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"income_source": source})
}

// DeleteIncomeSource handles removing an income source from the active budget.
func (h *BudgetHandler) DeleteIncomeSource(c *gin.Context) {
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

	if err := h.budgetService.DeleteIncomeSource(userID, sourceID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_INCOME_SOURCE", "income_source", sourceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Income source deleted successfully"})
}

// RecalculateIncome handles recomputing the budget's total income from its
// income sources.
func (h *BudgetHandler) RecalculateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.budgetService.RecalculateTotalIncome(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total_income": total})
}

// SetAllocations handles atomically replacing the active budget's allocations.
func (h *BudgetHandler) SetAllocations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetAllocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.budgetService.SetAllocations(userID, req.Allocations); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_ALLOCATIONS", "budget", 0, c.ClientIP(),
		map[string]interface{}{"count": len(req.Allocations)})

	c.JSON(http.StatusOK, gin.H{"message": "Allocations updated successfully"})
}
