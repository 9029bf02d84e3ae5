package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"moneta/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "Passw0rd!"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates an active user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email, true, false)
}

// CreateTestInactiveUser creates a user that has not confirmed registration.
func CreateTestInactiveUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email, false, false)
}

// CreateTestStaffUser creates an active staff user.
func CreateTestStaffUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, fmt.Sprintf("staff%d@test.com", nextID()), true, true)
}

func createUser(t *testing.T, db *gorm.DB, email string, active, staff bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Fullname: "Test User",
		IsActive: active,
		IsStaff:  staff,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given kind.
func CreateTestCategory(t *testing.T, db *gorm.DB, kind models.Kind) *models.Category {
	t.Helper()

	category := &models.Category{
		Name: fmt.Sprintf("Test Category %d", nextID()),
		Kind: kind,
		Icon: "icons/test.svg",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an uncategorised record of the given kind and
// decimal amount, e.g. "10.10".
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, kind models.Kind, amount string) *models.Expense {
	t.Helper()

	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid fixture amount %q: %v", amount, err)
	}

	uid := userID
	expense := &models.Expense{
		UserID:      &uid,
		Kind:        kind,
		Amount:      value,
		Description: fmt.Sprintf("Test expense %d", nextID()),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
