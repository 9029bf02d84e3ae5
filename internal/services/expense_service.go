package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// maxAmount is the first value that no longer fits numeric(10,2).
var maxAmount = decimal.New(1, 8)

// expenseService handles expense-related business logic.
type expenseService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, audit AuditServicer) ExpenseServicer {
	return &expenseService{db: db, audit: audit}
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must have at most two decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount is too large")
	}
	return nil
}

// resolveCategory loads the category and checks that it agrees with kind.
func (s *expenseService) resolveCategory(categoryID string, kind models.Kind) error {
	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Kind != kind {
		return apperrors.ErrCategoryKindMismatch
	}
	return nil
}

// CreateExpense records a new income or expense for a user.
func (s *expenseService) CreateExpense(
	userID string,
	kind models.Kind,
	amount decimal.Decimal,
	description string,
	categoryID *string,
) (*models.Expense, error) {
	if !kind.Valid() {
		return nil, apperrors.ErrInvalidKind
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	if categoryID != nil && *categoryID == "" {
		categoryID = nil
	}
	if categoryID != nil {
		if err := s.resolveCategory(*categoryID, kind); err != nil {
			return nil, err
		}
	}

	owner := userID
	expense := &models.Expense{
		Amount:      amount,
		Kind:        kind,
		Description: strings.TrimSpace(description),
		CategoryID:  categoryID,
		UserID:      &owner,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetExpenseByID(userID, expense.ID)
}

// GetUserExpenses retrieves a paginated, filtered list of a user's expenses,
// newest first.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if filter.Kind != nil {
		base = base.Where("kind = ?", *filter.Kind)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("created_at DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpenseByID retrieves an expense by ID for a specific user. Expenses of
// other users are reported as not found.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", expenseID, userID).
		First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense applies a partial update. The resulting kind and category
// must still agree.
func (s *expenseService) UpdateExpense(userID, expenseID string, update ExpenseUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	kind := expense.Kind
	if update.Kind != nil {
		if !update.Kind.Valid() {
			return nil, apperrors.ErrInvalidKind
		}
		kind = *update.Kind
		updates["kind"] = kind
	}
	if update.Amount != nil {
		if err := validateAmount(*update.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *update.Amount
	}
	if update.Description != nil {
		updates["description"] = strings.TrimSpace(*update.Description)
	}

	categoryID := expense.CategoryID
	if update.CategoryID != nil {
		if *update.CategoryID == "" {
			categoryID = nil
		} else {
			categoryID = update.CategoryID
		}
		updates["category_id"] = categoryID
	}
	if categoryID != nil && (update.Kind != nil || update.CategoryID != nil) {
		if err := s.resolveCategory(*categoryID, kind); err != nil {
			return nil, err
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Expense{}).
			Where("id = ? AND user_id = ?", expenseID, userID).
			Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetExpenseByID(userID, expenseID)
}

// DeleteExpense deletes an expense and returns it as it was before deletion.
func (s *expenseService) DeleteExpense(userID, expenseID string) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(&models.Expense{}, "id = ?", expense.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(AuditEvent{
		ActorID:      userID,
		Action:       ActionExpenseDeleted,
		ResourceType: "expense",
		ResourceID:   expense.ID,
		Changes: map[string]interface{}{
			"amount": expense.Amount.StringFixed(2),
			"kind":   expense.Kind,
		},
	})
	return expense, nil
}
