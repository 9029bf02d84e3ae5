package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// Balance summarises a set of records. Total is the sum of every amount
// regardless of kind; Net is income minus expense.
type Balance struct {
	Total      decimal.Decimal
	IncomeSum  decimal.Decimal
	ExpenseSum decimal.Decimal
	Net        decimal.Decimal
}

// Aggregate sums expenses in exact decimal arithmetic. The result does not
// depend on the order of expenses, and an empty slice yields zeros.
func Aggregate(expenses []models.Expense) Balance {
	income := decimal.Zero
	expense := decimal.Zero
	total := decimal.Zero

	for _, e := range expenses {
		total = total.Add(e.Amount)
		switch e.Kind {
		case models.KindIncome:
			income = income.Add(e.Amount)
		case models.KindExpense:
			expense = expense.Add(e.Amount)
		}
	}

	return Balance{
		Total:      total,
		IncomeSum:  income,
		ExpenseSum: expense,
		Net:        income.Sub(expense),
	}
}

// balanceService loads a user's records and aggregates them.
type balanceService struct {
	db *gorm.DB
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB) BalanceServicer {
	return &balanceService{db: db}
}

// GetBalance aggregates every record owned by userID.
func (s *balanceService) GetBalance(userID string) (*Balance, error) {
	var expenses []models.Expense
	if err := s.db.Select("amount", "kind").Where("user_id = ?", userID).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := Aggregate(expenses)
	return &balance, nil
}
