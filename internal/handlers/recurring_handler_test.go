package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
	"wealthwise/internal/pagination"
	"wealthwise/internal/services"
)

// --- mock recurring service ---

type mockRecurringService struct {
	listIncomeSourcesFn  func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringIncomeSource], error)
	createIncomeSourceFn func(userID uint, name string, amount int64, periodType models.PeriodType) (*models.RecurringIncomeSource, error)
	updateIncomeSourceFn func(userID, sourceID uint, name *string, amount *int64, isActive *bool) (*models.RecurringIncomeSource, error)
	deleteIncomeSourceFn func(userID, sourceID uint) error
	listAllocationsFn    func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringBudgetAllocation], error)
	createAllocationFn   func(userID, subcategoryID uint, allocatedAmount int64, periodType models.PeriodType) (*models.RecurringBudgetAllocation, error)
	updateAllocationFn   func(userID, allocationID uint, allocatedAmount *int64, isActive *bool) (*models.RecurringBudgetAllocation, error)
	deleteAllocationFn   func(userID, allocationID uint) error
}

func (m *mockRecurringService) PopulateBudget(_ *gorm.DB, _ uint, _ *models.Budget, _ models.PeriodType) error {
	return nil
}

func (m *mockRecurringService) ListIncomeSources(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringIncomeSource], error) {
	if m.listIncomeSourcesFn != nil {
		return m.listIncomeSourcesFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.RecurringIncomeSource{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockRecurringService) CreateIncomeSource(userID uint, name string, amount int64, periodType models.PeriodType) (*models.RecurringIncomeSource, error) {
	if m.createIncomeSourceFn != nil {
		return m.createIncomeSourceFn(userID, name, amount, periodType)
	}
	return &models.RecurringIncomeSource{}, nil
}

func (m *mockRecurringService) UpdateIncomeSource(userID, sourceID uint, name *string, amount *int64, isActive *bool) (*models.RecurringIncomeSource, error) {
	if m.updateIncomeSourceFn != nil {
		return m.updateIncomeSourceFn(userID, sourceID, name, amount, isActive)
	}
	return &models.RecurringIncomeSource{}, nil
}

func (m *mockRecurringService) DeleteIncomeSource(userID, sourceID uint) error {
	if m.deleteIncomeSourceFn != nil {
		return m.deleteIncomeSourceFn(userID, sourceID)
	}
	return nil
}

func (m *mockRecurringService) ListAllocations(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringBudgetAllocation], error) {
	if m.listAllocationsFn != nil {
		return m.listAllocationsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.RecurringBudgetAllocation{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockRecurringService) CreateAllocation(userID, subcategoryID uint, allocatedAmount int64, periodType models.PeriodType) (*models.RecurringBudgetAllocation, error) {
	if m.createAllocationFn != nil {
		return m.createAllocationFn(userID, subcategoryID, allocatedAmount, periodType)
	}
	return &models.RecurringBudgetAllocation{}, nil
}

func (m *mockRecurringService) UpdateAllocation(userID, allocationID uint, allocatedAmount *int64, isActive *bool) (*models.RecurringBudgetAllocation, error) {
	if m.updateAllocationFn != nil {
		return m.updateAllocationFn(userID, allocationID, allocatedAmount, isActive)
	}
	return &models.RecurringBudgetAllocation{}, nil
}

func (m *mockRecurringService) DeleteAllocation(userID, allocationID uint) error {
	if m.deleteAllocationFn != nil {
		return m.deleteAllocationFn(userID, allocationID)
	}
	return nil
}

var _ services.RecurringServicer = (*mockRecurringService)(nil)

func setupRecurringRouter(handler *RecurringHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.GET("/recurring/income-sources", handler.ListIncomeSources)
	auth.POST("/recurring/income-sources", handler.CreateIncomeSource)
	auth.PUT("/recurring/income-sources/:id", handler.UpdateIncomeSource)
	auth.DELETE("/recurring/income-sources/:id", handler.DeleteIncomeSource)
	auth.GET("/recurring/allocations", handler.ListAllocations)
	auth.POST("/recurring/allocations", handler.CreateAllocation)
	auth.PUT("/recurring/allocations/:id", handler.UpdateAllocation)
	auth.DELETE("/recurring/allocations/:id", handler.DeleteAllocation)
	return r
}

func TestRecurringHandler_CreateIncomeSource(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockRecurringService{
			createIncomeSourceFn: func(_ uint, name string, amount int64, periodType models.PeriodType) (*models.RecurringIncomeSource, error) {
				return &models.RecurringIncomeSource{
					Base:       models.Base{ID: 1},
					Name:       name,
					Amount:     amount,
					PeriodType: periodType,
					IsActive:   true,
				}, nil
			},
		}
		handler := NewRecurringHandler(svc, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "POST", "/recurring/income-sources",
			`{"name":"Salary","amount":300000,"period_type":"monthly"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		source := result["recurring_income_source"].(map[string]interface{})
		if source["name"] != "Salary" {
			t.Errorf("expected Salary, got %v", source["name"])
		}
		if source["is_active"] != true {
			t.Errorf("expected active template, got %v", source["is_active"])
		}
	})

	t.Run("returns 400 on invalid period type", func(t *testing.T) {
		handler := NewRecurringHandler(&mockRecurringService{}, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "POST", "/recurring/income-sources",
			`{"name":"Salary","amount":300000,"period_type":"daily"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on non-positive amount", func(t *testing.T) {
		handler := NewRecurringHandler(&mockRecurringService{}, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "POST", "/recurring/income-sources",
			`{"name":"Salary","amount":-5,"period_type":"monthly"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRecurringHandler_UpdateIncomeSource(t *testing.T) {
	t.Run("passes is_active false", func(t *testing.T) {
		var captured *bool
		svc := &mockRecurringService{
			updateIncomeSourceFn: func(_, sourceID uint, _ *string, _ *int64, isActive *bool) (*models.RecurringIncomeSource, error) {
				captured = isActive
				return &models.RecurringIncomeSource{Base: models.Base{ID: sourceID}}, nil
			},
		}
		handler := NewRecurringHandler(svc, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "PUT", "/recurring/income-sources/1", `{"is_active":false}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured == nil || *captured != false {
			t.Error("expected is_active=false to be passed")
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockRecurringService{
			updateIncomeSourceFn: func(_, _ uint, _ *string, _ *int64, _ *bool) (*models.RecurringIncomeSource, error) {
				return nil, apperrors.ErrRecurringSourceNotFound
			},
		}
		handler := NewRecurringHandler(svc, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "PUT", "/recurring/income-sources/999", `{"is_active":false}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RECURRING_SOURCE_NOT_FOUND")
	})
}

func TestRecurringHandler_CreateAllocation(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockRecurringService{
			createAllocationFn: func(_, subcategoryID uint, allocatedAmount int64, periodType models.PeriodType) (*models.RecurringBudgetAllocation, error) {
				return &models.RecurringBudgetAllocation{
					Base:            models.Base{ID: 1},
					SubcategoryID:   subcategoryID,
					AllocatedAmount: allocatedAmount,
					PeriodType:      periodType,
					IsActive:        true,
				}, nil
			},
		}
		handler := NewRecurringHandler(svc, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "POST", "/recurring/allocations",
			`{"subcategory_id":3,"allocated_amount":50000,"period_type":"monthly"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		allocation := result["recurring_allocation"].(map[string]interface{})
		if allocation["allocated_amount"].(float64) != 50000 {
			t.Errorf("expected allocated_amount=50000, got %v", allocation["allocated_amount"])
		}
	})

	t.Run("returns 404 on foreign subcategory", func(t *testing.T) {
		svc := &mockRecurringService{
			createAllocationFn: func(_, _ uint, _ int64, _ models.PeriodType) (*models.RecurringBudgetAllocation, error) {
				return nil, apperrors.ErrSubcategoryNotFound
			},
		}
		handler := NewRecurringHandler(svc, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "POST", "/recurring/allocations",
			`{"subcategory_id":999,"allocated_amount":50000,"period_type":"monthly"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SUBCATEGORY_NOT_FOUND")
	})
}

func TestRecurringHandler_DeleteAllocation(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewRecurringHandler(&mockRecurringService{}, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "DELETE", "/recurring/allocations/1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockRecurringService{
			deleteAllocationFn: func(_, _ uint) error {
				return apperrors.ErrRecurringAllocationNotFound
			},
		}
		handler := NewRecurringHandler(svc, &mockAuditService{})
		r := setupRecurringRouter(handler)

		rec := doRequest(r, "DELETE", "/recurring/allocations/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
