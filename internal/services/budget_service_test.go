package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"wealthwise/internal/models"
	"wealthwise/internal/testutil"
)

func newBudgetServiceForTest(db *gorm.DB) BudgetServicer {
	return NewBudgetService(db, newPeriodServiceForTest(db))
}

// setupActiveBudget creates a user with an active monthly period and a
// budget holding the given total income.
func setupActiveBudget(t *testing.T, db *gorm.DB, totalIncome int64) (*models.User, *models.BudgetPeriod, *models.Budget) {
	t.Helper()
	user := testutil.CreateTestUser(t, db)
	period := testutil.CreateTestPeriod(t, db, user.ID)
	budget := testutil.CreateTestBudget(t, db, user.ID, period.ID, totalIncome)
	return user, period, budget
}

func TestGetSnapshot(t *testing.T) {
	t.Run("no_active_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetSnapshot(user.ID)
		testutil.AssertAppError(t, err, "BUDGET_PERIOD_NOT_FOUND")
	})

	t.Run("derived_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, period, budget := setupActiveBudget(t, db, 0)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		sub := testutil.CreateTestSubcategory(t, db, cat.ID)

		testutil.CreateTestIncomeSource(t, db, budget.ID, 300000)
		testutil.CreateTestIncomeSource(t, db, budget.ID, 50000)
		testutil.CreateTestAllocation(t, db, budget.ID, sub.ID, 120000)
		if err := db.Model(budget).Update("balance_brought_forward", 10000).Error; err != nil {
			t.Fatalf("failed to set balance brought forward: %v", err)
		}

		snapshot, err := svc.GetSnapshot(user.ID)
		testutil.AssertNoError(t, err)

		if snapshot.Period.ID != period.ID {
			t.Errorf("expected period %d, got %d", period.ID, snapshot.Period.ID)
		}
		// Income total is live over the rows, not the stale cached column.
		if snapshot.TotalIncome != 350000 {
			t.Errorf("expected total income 350000, got %d", snapshot.TotalIncome)
		}
		if snapshot.Available != 360000 {
			t.Errorf("expected available 360000, got %d", snapshot.Available)
		}
		if snapshot.TotalAllocated != 120000 {
			t.Errorf("expected total allocated 120000, got %d", snapshot.TotalAllocated)
		}
		if snapshot.Balance != 240000 {
			t.Errorf("expected balance 240000, got %d", snapshot.Balance)
		}
		if len(snapshot.IncomeSources) != 2 {
			t.Errorf("expected 2 income sources, got %d", len(snapshot.IncomeSources))
		}
		if len(snapshot.Allocations) != 1 {
			t.Errorf("expected 1 allocation, got %d", len(snapshot.Allocations))
		}
	})
}

func TestAddIncomeSource(t *testing.T) {
	t.Run("recomputes_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 0)

		_, err := svc.AddIncomeSource(user.ID, "Salary", 300000)
		testutil.AssertNoError(t, err)
		_, err = svc.AddIncomeSource(user.ID, "Side gig", 50000)
		testutil.AssertNoError(t, err)

		var reloaded models.Budget
		if err := db.First(&reloaded, budget.ID).Error; err != nil {
			t.Fatalf("failed to reload budget: %v", err)
		}
		if reloaded.TotalIncome != 350000 {
			t.Errorf("expected total income 350000, got %d", reloaded.TotalIncome)
		}
	})

	t.Run("creates_default_period_on_first_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		source, err := svc.AddIncomeSource(user.ID, "Salary", 300000)
		testutil.AssertNoError(t, err)
		if source.ID == 0 {
			t.Fatal("expected income source to be created")
		}

		var period models.BudgetPeriod
		err = db.Where("user_id = ? AND is_active = ?", user.ID, true).First(&period).Error
		if err != nil {
			t.Fatalf("expected a default active period: %v", err)
		}
		if period.PeriodType != models.PeriodTypeMonthly {
			t.Errorf("expected monthly default period, got %s", period.PeriodType)
		}

		now := time.Now()
		wantStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		if !period.StartDate.Equal(wantStart) {
			t.Errorf("expected start %v, got %v", wantStart, period.StartDate)
		}
		if period.Name != wantStart.Format("January 2006") {
			t.Errorf("expected name %q, got %q", wantStart.Format("January 2006"), period.Name)
		}

		var budget models.Budget
		if err := db.Where("period_id = ?", period.ID).First(&budget).Error; err != nil {
			t.Fatalf("expected default period to have a budget: %v", err)
		}
		if budget.TotalIncome != 300000 {
			t.Errorf("expected total income 300000, got %d", budget.TotalIncome)
		}
	})
}

func TestUpdateIncomeSource(t *testing.T) {
	t.Run("recomputes_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 0)
		source := testutil.CreateTestIncomeSource(t, db, budget.ID, 300000)

		newAmount := int64(280000)
		_, err := svc.UpdateIncomeSource(user.ID, source.ID, nil, &newAmount)
		testutil.AssertNoError(t, err)

		var reloaded models.Budget
		if err := db.First(&reloaded, budget.ID).Error; err != nil {
			t.Fatalf("failed to reload budget: %v", err)
		}
		if reloaded.TotalIncome != 280000 {
			t.Errorf("expected total income 280000, got %d", reloaded.TotalIncome)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, _ := setupActiveBudget(t, db, 0)

		amount := int64(100)
		_, err := svc.UpdateIncomeSource(user.ID, 9999, nil, &amount)
		testutil.AssertAppError(t, err, "INCOME_SOURCE_NOT_FOUND")
	})
}

func TestDeleteIncomeSource(t *testing.T) {
	t.Run("recomputes_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 0)
		keep := testutil.CreateTestIncomeSource(t, db, budget.ID, 300000)
		remove := testutil.CreateTestIncomeSource(t, db, budget.ID, 50000)

		err := svc.DeleteIncomeSource(user.ID, remove.ID)
		testutil.AssertNoError(t, err)

		var reloaded models.Budget
		if err := db.First(&reloaded, budget.ID).Error; err != nil {
			t.Fatalf("failed to reload budget: %v", err)
		}
		if reloaded.TotalIncome != keep.Amount {
			t.Errorf("expected total income %d, got %d", keep.Amount, reloaded.TotalIncome)
		}
	})
}

func TestRecalculateTotalIncome(t *testing.T) {
	t.Run("fixes_drifted_cache", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 0)
		testutil.CreateTestIncomeSource(t, db, budget.ID, 300000)
		testutil.CreateTestIncomeSource(t, db, budget.ID, 50000)

		// Cached column drifted out of sync with the rows.
		if err := db.Model(budget).Update("total_income", 999999).Error; err != nil {
			t.Fatalf("failed to drift cache: %v", err)
		}

		total, err := svc.RecalculateTotalIncome(user.ID)
		testutil.AssertNoError(t, err)
		if total != 350000 {
			t.Errorf("expected recalculated total 350000, got %d", total)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 0)
		testutil.CreateTestIncomeSource(t, db, budget.ID, 300000)

		first, err := svc.RecalculateTotalIncome(user.ID)
		testutil.AssertNoError(t, err)
		second, err := svc.RecalculateTotalIncome(user.ID)
		testutil.AssertNoError(t, err)
		if first != second {
			t.Errorf("expected idempotent recalculation, got %d then %d", first, second)
		}
	})

	t.Run("empty_budget_is_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, _ := setupActiveBudget(t, db, 12345)

		total, err := svc.RecalculateTotalIncome(user.ID)
		testutil.AssertNoError(t, err)
		if total != 0 {
			t.Errorf("expected 0 for budget with no income sources, got %d", total)
		}
	})
}

func TestSetAllocations(t *testing.T) {
	t.Run("replaces_full_set", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 100000)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		sub1 := testutil.CreateTestSubcategory(t, db, cat.ID)
		sub2 := testutil.CreateTestSubcategory(t, db, cat.ID)
		testutil.CreateTestAllocation(t, db, budget.ID, sub1.ID, 99999)

		err := svc.SetAllocations(user.ID, []AllocationEntry{
			{SubcategoryID: sub1.ID, AllocatedAmount: 40000},
			{SubcategoryID: sub2.ID, AllocatedAmount: 30000},
		})
		testutil.AssertNoError(t, err)

		var allocations []models.BudgetAllocation
		if err := db.Where("budget_id = ?", budget.ID).Order("subcategory_id ASC").Find(&allocations).Error; err != nil {
			t.Fatalf("failed to load allocations: %v", err)
		}
		if len(allocations) != 2 {
			t.Fatalf("expected 2 allocations after replacement, got %d", len(allocations))
		}
		if allocations[0].AllocatedAmount != 40000 || allocations[1].AllocatedAmount != 30000 {
			t.Errorf("unexpected amounts: %d, %d", allocations[0].AllocatedAmount, allocations[1].AllocatedAmount)
		}
	})

	t.Run("keeps_first_entry_per_subcategory", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 100000)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		sub1 := testutil.CreateTestSubcategory(t, db, cat.ID)
		sub2 := testutil.CreateTestSubcategory(t, db, cat.ID)

		err := svc.SetAllocations(user.ID, []AllocationEntry{
			{SubcategoryID: sub1.ID, AllocatedAmount: 40000},
			{SubcategoryID: sub1.ID, AllocatedAmount: 30000},
			{SubcategoryID: sub2.ID, AllocatedAmount: 20000},
		})
		testutil.AssertNoError(t, err)

		var allocations []models.BudgetAllocation
		if err := db.Where("budget_id = ?", budget.ID).Order("subcategory_id ASC").Find(&allocations).Error; err != nil {
			t.Fatalf("failed to load allocations: %v", err)
		}
		if len(allocations) != 2 {
			t.Fatalf("expected 2 allocations, got %d", len(allocations))
		}
		if allocations[0].SubcategoryID != sub1.ID || allocations[0].AllocatedAmount != 40000 {
			t.Errorf("expected first entry for subcategory %d to win, got %+v", sub1.ID, allocations[0])
		}
	})

	t.Run("over_allocation_leaves_prior_set", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 100000)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		sub := testutil.CreateTestSubcategory(t, db, cat.ID)
		prior := testutil.CreateTestAllocation(t, db, budget.ID, sub.ID, 50000)

		// 120000 requested against 100000 available.
		err := svc.SetAllocations(user.ID, []AllocationEntry{
			{SubcategoryID: sub.ID, AllocatedAmount: 120000},
		})
		testutil.AssertAppError(t, err, "BUDGET_OVER_ALLOCATION")

		var allocations []models.BudgetAllocation
		if err := db.Where("budget_id = ?", budget.ID).Find(&allocations).Error; err != nil {
			t.Fatalf("failed to load allocations: %v", err)
		}
		if len(allocations) != 1 || allocations[0].ID != prior.ID {
			t.Fatalf("expected prior allocation to survive rejected replacement, got %+v", allocations)
		}
		if allocations[0].AllocatedAmount != 50000 {
			t.Errorf("expected prior amount 50000, got %d", allocations[0].AllocatedAmount)
		}
	})

	t.Run("counts_balance_brought_forward", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 100000)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		sub := testutil.CreateTestSubcategory(t, db, cat.ID)

		if err := db.Model(budget).Update("balance_brought_forward", 30000).Error; err != nil {
			t.Fatalf("failed to set balance brought forward: %v", err)
		}

		err := svc.SetAllocations(user.ID, []AllocationEntry{
			{SubcategoryID: sub.ID, AllocatedAmount: 120000},
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("drops_non_positive_entries", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 100000)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		sub1 := testutil.CreateTestSubcategory(t, db, cat.ID)
		sub2 := testutil.CreateTestSubcategory(t, db, cat.ID)

		err := svc.SetAllocations(user.ID, []AllocationEntry{
			{SubcategoryID: sub1.ID, AllocatedAmount: 40000},
			{SubcategoryID: sub2.ID, AllocatedAmount: 0},
		})
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.BudgetAllocation{}).Where("budget_id = ?", budget.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected zero-amount entry to be dropped, got %d rows", count)
		}
	})

	t.Run("empty_set_clears_allocations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 100000)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		sub := testutil.CreateTestSubcategory(t, db, cat.ID)
		testutil.CreateTestAllocation(t, db, budget.ID, sub.ID, 50000)

		err := svc.SetAllocations(user.ID, nil)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.BudgetAllocation{}).Where("budget_id = ?", budget.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected empty replacement to clear allocations, got %d rows", count)
		}
	})
}

func TestUpdateBudgetFields(t *testing.T) {
	t.Run("sets_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetServiceForTest(db)
		user, _, budget := setupActiveBudget(t, db, 0)

		income := int64(200000)
		carry := int64(-5000)
		_, err := svc.UpdateBudgetFields(user.ID, &income, &carry)
		testutil.AssertNoError(t, err)

		var reloaded models.Budget
		if err := db.First(&reloaded, budget.ID).Error; err != nil {
			t.Fatalf("failed to reload budget: %v", err)
		}
		if reloaded.TotalIncome != 200000 {
			t.Errorf("expected total income 200000, got %d", reloaded.TotalIncome)
		}
		if reloaded.BalanceBroughtForward != -5000 {
			t.Errorf("expected balance brought forward -5000, got %d", reloaded.BalanceBroughtForward)
		}
	})
}
