package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateExpense(t *testing.T) {
	t.Run("valid_with_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.KindExpense)

		exp, err := svc.CreateExpense(user.ID, models.KindExpense, amount("12.50"), " Lunch ", &cat.ID)
		testutil.AssertNoError(t, err)

		if exp.ID == "" {
			t.Fatal("expected expense ID to be set")
		}
		testutil.AssertDecimal(t, exp.Amount, "12.50")
		if exp.Description != "Lunch" {
			t.Errorf("expected trimmed description, got %q", exp.Description)
		}
		if exp.Category == nil || exp.Category.ID != cat.ID {
			t.Errorf("expected embedded category %s, got %+v", cat.ID, exp.Category)
		}
	})

	t.Run("without_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)

		empty := ""
		exp, err := svc.CreateExpense(user.ID, models.KindIncome, amount("100"), "", &empty)
		testutil.AssertNoError(t, err)
		if exp.CategoryID != nil {
			t.Errorf("expected no category, got %v", *exp.CategoryID)
		}
	})

	t.Run("kind_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.KindIncome)

		_, err := svc.CreateExpense(user.ID, models.KindExpense, amount("5"), "", &cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_KIND_MISMATCH")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)

		missing := "0192f0a0-0000-7000-8000-000000000000"
		_, err := svc.CreateExpense(user.ID, models.KindExpense, amount("5"), "", &missing)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("invalid_amounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)

		for _, a := range []string{"-1.00", "-0.01", "1.001", "100000000"} {
			_, err := svc.CreateExpense(user.ID, models.KindExpense, amount(a), "", nil)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)

		exp, err := svc.CreateExpense(user.ID, models.KindExpense, decimal.Zero, "", nil)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, exp.Amount, "0.00")
	})

	t.Run("invalid_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateExpense(user.ID, models.Kind("transfer"), amount("1"), "", nil)
		testutil.AssertAppError(t, err, "INVALID_KIND")
	})
}

func TestGetUserExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, noopAudit{})
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	for i := 0; i < 3; i++ {
		testutil.CreateTestExpense(t, db, user.ID, models.KindExpense, "1.00")
	}
	testutil.CreateTestExpense(t, db, user.ID, models.KindIncome, "50.00")
	testutil.CreateTestExpense(t, db, other.ID, models.KindExpense, "9.00")

	t.Run("owner_only", func(t *testing.T) {
		result, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 4 {
			t.Errorf("expected 4 expenses, got %d", result.TotalItems)
		}
	})

	t.Run("filter_by_kind", func(t *testing.T) {
		kind := models.KindIncome
		result, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{Kind: &kind})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 income, got %d", result.TotalItems)
		}
	})

	t.Run("paginated", func(t *testing.T) {
		result, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{Page: 2, PageSize: 3}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		if len(result.Data) != 1 || result.TotalPages != 2 {
			t.Errorf("expected 1 item on page 2 of 2, got %d items, %d pages", len(result.Data), result.TotalPages)
		}
	})
}

func TestGetExpenseByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, noopAudit{})
	owner := testutil.CreateTestUser(t, db)
	stranger := testutil.CreateTestUser(t, db)
	exp := testutil.CreateTestExpense(t, db, owner.ID, models.KindExpense, "7.25")

	got, err := svc.GetExpenseByID(owner.ID, exp.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, got.Amount, "7.25")

	_, err = svc.GetExpenseByID(stranger.ID, exp.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
}

func TestUpdateExpense(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)
		exp := testutil.CreateTestExpense(t, db, user.ID, models.KindExpense, "7.25")

		newAmount := amount("8.00")
		desc := "Taxi"
		got, err := svc.UpdateExpense(user.ID, exp.ID, ExpenseUpdate{Amount: &newAmount, Description: &desc})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, got.Amount, "8.00")
		if got.Description != "Taxi" || got.Kind != models.KindExpense {
			t.Errorf("unexpected update result %+v", got)
		}
	})

	t.Run("kind_change_checks_existing_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.KindExpense)

		exp, err := svc.CreateExpense(user.ID, models.KindExpense, amount("3"), "", &cat.ID)
		testutil.AssertNoError(t, err)

		income := models.KindIncome
		_, err = svc.UpdateExpense(user.ID, exp.ID, ExpenseUpdate{Kind: &income})
		testutil.AssertAppError(t, err, "CATEGORY_KIND_MISMATCH")

		none := ""
		got, err := svc.UpdateExpense(user.ID, exp.ID, ExpenseUpdate{Kind: &income, CategoryID: &none})
		testutil.AssertNoError(t, err)
		if got.Kind != models.KindIncome || got.CategoryID != nil {
			t.Errorf("expected uncategorised income, got %+v", got)
		}
	})

	t.Run("other_users_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, noopAudit{})
		owner := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		exp := testutil.CreateTestExpense(t, db, owner.ID, models.KindExpense, "1.00")

		desc := "hijack"
		_, err := svc.UpdateExpense(stranger.ID, exp.ID, ExpenseUpdate{Description: &desc})
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})
}

func TestDeleteExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, noopAudit{})
	user := testutil.CreateTestUser(t, db)
	exp := testutil.CreateTestExpense(t, db, user.ID, models.KindIncome, "20.00")

	deleted, err := svc.DeleteExpense(user.ID, exp.ID)
	testutil.AssertNoError(t, err)
	if deleted.ID != exp.ID {
		t.Errorf("expected deleted record %s, got %s", exp.ID, deleted.ID)
	}

	_, err = svc.GetExpenseByID(user.ID, exp.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")

	_, err = svc.DeleteExpense(user.ID, exp.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
}
