package services

import (
	"testing"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})
		staff := testutil.CreateTestStaffUser(t, db)

		cat, err := svc.CreateCategory(staff.ID, " Groceries ", models.KindExpense, "icons/cart.svg")
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected category ID to be set")
		}
		if cat.Name != "Groceries" {
			t.Errorf("expected name Groceries, got %s", cat.Name)
		}
		if cat.Kind != models.KindExpense {
			t.Errorf("expected kind expense, got %s", cat.Kind)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})
		staff := testutil.CreateTestStaffUser(t, db)

		_, err := svc.CreateCategory(staff.ID, "Food", models.KindExpense, "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(staff.ID, "Food", models.KindIncome, "")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})

		_, err := svc.CreateCategory("", "  ", models.KindExpense, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})

		_, err := svc.CreateCategory("", "Gifts", models.Kind("other"), "")
		testutil.AssertAppError(t, err, "INVALID_KIND")
	})
}

func TestListCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db, noopAudit{})

	testutil.CreateTestCategory(t, db, models.KindIncome)
	testutil.CreateTestCategory(t, db, models.KindExpense)
	testutil.CreateTestCategory(t, db, models.KindExpense)

	t.Run("by_kind", func(t *testing.T) {
		cats, err := svc.ListByKind(models.KindExpense)
		testutil.AssertNoError(t, err)
		if len(cats) != 2 {
			t.Fatalf("expected 2 expense categories, got %d", len(cats))
		}
		for _, c := range cats {
			if c.Kind != models.KindExpense {
				t.Errorf("expected only expense categories, got %s", c.Kind)
			}
		}
	})

	t.Run("by_invalid_kind", func(t *testing.T) {
		_, err := svc.ListByKind(models.Kind("savings"))
		testutil.AssertAppError(t, err, "INVALID_KIND")
	})

	t.Run("paginated", func(t *testing.T) {
		result, err := svc.ListCategories(pagination.PageRequest{Page: 1, PageSize: 2})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 3 || len(result.Data) != 2 || result.TotalPages != 2 {
			t.Errorf("unexpected page %+v", result)
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("rename_and_icon", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})
		cat := testutil.CreateTestCategory(t, db, models.KindExpense)

		got, err := svc.UpdateCategory("", cat.ID, "Travel", "icons/plane.svg", nil)
		testutil.AssertNoError(t, err)
		if got.Name != "Travel" || got.Icon != "icons/plane.svg" {
			t.Errorf("unexpected update result %+v", got)
		}
	})

	t.Run("rename_to_taken_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})
		first := testutil.CreateTestCategory(t, db, models.KindExpense)
		second := testutil.CreateTestCategory(t, db, models.KindExpense)

		_, err := svc.UpdateCategory("", second.ID, first.Name, "", nil)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("kind_change_with_referencing_expenses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.KindExpense)
		exp := testutil.CreateTestExpense(t, db, user.ID, models.KindExpense, "5.00")
		db.Model(exp).Update("category_id", cat.ID)

		income := models.KindIncome
		_, err := svc.UpdateCategory("", cat.ID, "", "", &income)
		testutil.AssertAppError(t, err, "CATEGORY_KIND_MISMATCH")
	})

	t.Run("kind_change_unreferenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})
		cat := testutil.CreateTestCategory(t, db, models.KindExpense)

		income := models.KindIncome
		got, err := svc.UpdateCategory("", cat.ID, "", "", &income)
		testutil.AssertNoError(t, err)
		if got.Kind != models.KindIncome {
			t.Errorf("expected kind income, got %s", got.Kind)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, noopAudit{})

		_, err := svc.UpdateCategory("", "0192f0a0-0000-7000-8000-000000000000", "X", "", nil)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db, noopAudit{})
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, models.KindExpense)
	exp := testutil.CreateTestExpense(t, db, user.ID, models.KindExpense, "5.00")
	db.Model(exp).Update("category_id", cat.ID)

	testutil.AssertNoError(t, svc.DeleteCategory("", cat.ID))

	_, err := svc.GetCategoryByID(cat.ID)
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

	var kept models.Expense
	if err := db.First(&kept, "id = ?", exp.ID).Error; err != nil {
		t.Fatalf("expected expense to survive category deletion: %v", err)
	}
	if kept.CategoryID != nil {
		t.Errorf("expected category to be cleared, got %v", *kept.CategoryID)
	}

	// The name is free again once the category is gone.
	_, err = svc.CreateCategory("", cat.Name, models.KindExpense, "")
	testutil.AssertNoError(t, err)
}
