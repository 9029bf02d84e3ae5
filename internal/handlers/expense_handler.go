package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// ExpenseHandler handles expense and balance requests
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	balanceService services.BalanceServicer
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService services.ExpenseServicer, balanceService services.BalanceServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, balanceService: balanceService}
}

// CreateExpenseRequest represents the request payload for creating an expense.
// Amount accepts a JSON number or a decimal string.
type CreateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"12.50"`
	Kind        models.Kind      `json:"type" binding:"required,kind" swaggertype:"string" enums:"income,expense"`
	CategoryID  *string          `json:"category" binding:"omitempty,uuid"`
	Description string           `json:"description" binding:"max=1000"`
}

// UpdateExpenseRequest represents the request payload for updating an
// expense. PUT requires amount and type; PATCH accepts any subset. An empty
// category clears it.
type UpdateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Kind        *models.Kind     `json:"type" binding:"omitempty,kind" swaggertype:"string" enums:"income,expense"`
	CategoryID  *string          `json:"category" binding:"omitempty,max=36"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
}

// ExpenseListQuery holds the list filters.
type ExpenseListQuery struct {
	pagination.PageRequest
	Kind       string `form:"type" binding:"omitempty,kind"`
	CategoryID string `form:"category" binding:"omitempty,uuid"`
}

// ExpenseResponse represents an expense in the response. Amounts are
// rendered with two decimals.
type ExpenseResponse struct {
	ID          string            `json:"id"`
	Amount      json.Number       `json:"amount" swaggertype:"number"`
	Kind        models.Kind       `json:"type" swaggertype:"string"`
	Description string            `json:"description"`
	Category    *CategoryResponse `json:"category"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ExpenseListResponse is a page of expenses.
type ExpenseListResponse struct {
	Status     int               `json:"status"`
	Expenses   []ExpenseResponse `json:"expenses"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalItems int64             `json:"total_items"`
	TotalPages int               `json:"total_pages"`
}

// BalanceResponse is the user's balance. Total sums every record regardless
// of type; Net is income minus expense.
type BalanceResponse struct {
	Status     int         `json:"status"`
	Total      json.Number `json:"total" swaggertype:"number"`
	IncomeSum  json.Number `json:"income_sum" swaggertype:"number"`
	ExpenseSum json.Number `json:"expense_sum" swaggertype:"number"`
	Net        json.Number `json:"net" swaggertype:"number"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func toExpenseResponse(e *models.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID,
		Amount:      money(e.Amount),
		Kind:        e.Kind,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.Category != nil {
		category := toCategoryResponse(e.Category)
		resp.Category = &category
	}
	return resp
}

// CreateExpense handles the creation of a new expense
// @Summary     Create an expense
// @Description Record an income or expense for the authenticated user
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} ExpenseResponse "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input or category type mismatch"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if !bindJSON(c, &req) {
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, req.Kind, *req.Amount, req.Description, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// ListExpenses handles listing the user's expenses
// @Summary     List expenses
// @Description Paginated list of the authenticated user's expenses, newest first
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Filter by type" Enums(income, expense)
// @Param       category  query string false "Filter by category ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} ExpenseListResponse "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ExpenseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ExpenseFilter
	if query.Kind != "" {
		kind := models.Kind(query.Kind)
		filter.Kind = &kind
	}
	if query.CategoryID != "" {
		filter.CategoryID = &query.CategoryID
	}

	result, err := h.expenseService.GetUserExpenses(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses := make([]ExpenseResponse, 0, len(result.Data))
	for i := range result.Data {
		expenses = append(expenses, toExpenseResponse(&result.Data[i]))
	}

	c.JSON(http.StatusOK, ExpenseListResponse{
		Status:     http.StatusOK,
		Expenses:   expenses,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// GetExpense handles retrieving a specific expense
// @Summary     Get expense by ID
// @Description Get one of the authenticated user's expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} ExpenseResponse "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// UpdateExpense handles PUT and PATCH on an expense
// @Summary     Update an expense
// @Description PUT replaces amount and type (both required); PATCH updates any subset of fields
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to update"
// @Success     200 {object} ExpenseResponse "Expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input or category type mismatch"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
// @Router      /expenses/{id} [patch]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if !bindJSON(c, &req) {
		return
	}

	if c.Request.Method == http.MethodPut {
		fields := map[string][]string{}
		if req.Amount == nil {
			fields["amount"] = []string{"This field is required."}
		}
		if req.Kind == nil {
			fields["type"] = []string{"This field is required."}
		}
		if len(fields) > 0 {
			respondWithError(c, apperrors.WithFields(fields))
			return
		}
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, services.ExpenseUpdate{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// DeleteExpense handles deleting an expense
// @Summary     Delete an expense
// @Description Delete one of the authenticated user's expenses and return it
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} ExpenseResponse "Deleted expense"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.DeleteExpense(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// GetBalance handles the balance summary
// @Summary     Get balance
// @Description Sum the authenticated user's records by type
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} BalanceResponse "Balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/balance [get]
func (h *ExpenseHandler) GetBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.balanceService.GetBalance(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		Status:     http.StatusOK,
		Total:      money(balance.Total),
		IncomeSum:  money(balance.IncomeSum),
		ExpenseSum: money(balance.ExpenseSum),
		Net:        money(balance.Net),
	})
}
