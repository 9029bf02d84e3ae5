package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name string      `json:"name" binding:"required,max=50"`
	Kind models.Kind `json:"type" binding:"required,kind" swaggertype:"string" enums:"income,expense"`
	Icon string      `json:"icon" binding:"max=255"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// Omitted fields keep their value.
type UpdateCategoryRequest struct {
	Name string       `json:"name" binding:"max=50"`
	Kind *models.Kind `json:"type" binding:"omitempty,kind" swaggertype:"string" enums:"income,expense"`
	Icon string       `json:"icon" binding:"max=255"`
}

// CategoryResponse represents a category in the response
type CategoryResponse struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Kind models.Kind `json:"type" swaggertype:"string"`
	Icon string      `json:"icon"`
}

func toCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Kind: c.Kind, Icon: c.Icon}
}

func toCategoryResponses(categories []models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	return out
}

// GetCategoriesByKind lists the categories of one kind
// @Summary     List categories by type
// @Description Public list of the categories of one type
// @Tags        categories
// @Produce     json
// @Param       kind path string true "Category type" Enums(income, expense)
// @Success     200 {array}  CategoryResponse "Categories"
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /category/{kind} [get]
func (h *CategoryHandler) GetCategoriesByKind(c *gin.Context) {
	categories, err := h.categoryService.ListByKind(models.Kind(c.Param("kind")))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCategoryResponses(categories))
}

// ListCategories handles the staff category listing
// @Summary     List all categories
// @Description Paginated list of every category (staff only)
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[CategoryResponse] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/category [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.categoryService.ListCategories(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewPageResponse(
		toCategoryResponses(result.Data), result.Page, result.PageSize, result.TotalItems,
	))
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new category (staff only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} CategoryResponse "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Name already taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/category [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.CreateCategory(userID, req.Name, req.Kind, req.Icon)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// UpdateCategory handles updating a category
// @Summary     Update a category
// @Description Update a category's name, type or icon (staff only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to update"
// @Success     200 {object} CategoryResponse "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input or type still in use"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Name already taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/category/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.UpdateCategory(userID, categoryID, req.Name, req.Icon, req.Kind)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory handles deleting a category
// @Summary     Delete a category
// @Description Delete a category; expenses that used it lose their category (staff only)
// @Tags        admin
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     204 "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/category/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
