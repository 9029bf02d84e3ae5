package testutil_test

import (
	"testing"

	"moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "categories", "expenses", "verification_codes", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}
	if !user.IsActive {
		t.Error("expected active user")
	}

	inactive := testutil.CreateTestInactiveUser(t, db, "pending@test.com")
	var reloaded models.User
	if err := db.First(&reloaded, "id = ?", inactive.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if reloaded.IsActive {
		t.Error("expected inactive user to stay inactive")
	}

	category := testutil.CreateTestCategory(t, db, models.KindExpense)
	if category.Kind != models.KindExpense {
		t.Errorf("expected expense category, got %s", category.Kind)
	}

	expense := testutil.CreateTestExpense(t, db, user.ID, models.KindIncome, "10.10")
	if expense.Amount.StringFixed(2) != "10.10" {
		t.Errorf("expected amount 10.10, got %s", expense.Amount.StringFixed(2))
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrExpenseNotFound, "custom message")
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
