package services

import (
	"context"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// UserServicer defines the contract for the user directory.
type UserServicer interface {
	CreatePendingUser(fullname, email, password string) (*models.User, error)
	CreateSuperuser(fullname, email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	Activate(userID string) error
	SetPassword(userID, password string) error
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AuthFlowServicer drives the emailed-code flows: registration confirmation
// and password reset.
type AuthFlowServicer interface {
	RequestRegistration(ctx context.Context, fullname, email, password string) error
	ConfirmRegistration(ctx context.Context, email, code string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	VerifyPasswordReset(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, email, resetToken, newPassword string) error
}

// CodeDispatcher delivers verification codes out of band. Dispatch must not
// block the caller on delivery.
type CodeDispatcher interface {
	Dispatch(email, code string)
}

// BalanceServicer computes a user's balance over all of their records.
type BalanceServicer interface {
	GetBalance(userID string) (*Balance, error)
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	Kind       *models.Kind
	CategoryID *string
}

// ExpenseUpdate holds the fields of a partial expense update. Nil fields are
// left unchanged; an empty CategoryID clears the category.
type ExpenseUpdate struct {
	Kind        *models.Kind
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *string
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID string, kind models.Kind, amount decimal.Decimal, description string, categoryID *string) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, update ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) (*models.Expense, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	ListByKind(kind models.Kind) ([]models.Category, error)
	ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	CreateCategory(actorID, name string, kind models.Kind, icon string) (*models.Category, error)
	UpdateCategory(actorID, categoryID, name, icon string, kind *models.Kind) (*models.Category, error)
	DeleteCategory(actorID, categoryID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Record(event AuditEvent)
}
