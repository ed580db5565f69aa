package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
	"expensetracker/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name        string                 `json:"name" binding:"required,min=1,max=50"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Description string                 `json:"description" binding:"max=200"`
	Icon        string                 `json:"icon" binding:"max=50"`
	Color       string                 `json:"color" binding:"omitempty,hex_color"`
	Keywords    []string               `json:"keywords" binding:"omitempty,max=50,dive,max=50"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// Omitted fields are left unchanged; an empty keywords list clears them.
type UpdateCategoryRequest struct {
	Name        string                 `json:"name" binding:"omitempty,min=1,max=50"`
	Type        models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Description string                 `json:"description" binding:"max=200"`
	Icon        string                 `json:"icon" binding:"max=50"`
	Color       string                 `json:"color" binding:"omitempty,hex_color"`
	Keywords    []string               `json:"keywords" binding:"omitempty,max=50,dive,max=50"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new transaction category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate category name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, services.CategoryInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Keywords:    req.Keywords,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "type": category.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles the retrieval of categories for the authenticated user
// @Summary     Get user categories
// @Description Get a paginated list of categories for the authenticated user, ordered by name
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Filter by type (income, expense)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var result *pagination.PageResponse[models.Category]
	if v := c.Query("type"); v != "" {
		categoryType := models.TransactionType(v)
		if categoryType != models.TransactionTypeIncome && categoryType != models.TransactionTypeExpense {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be 'income' or 'expense'"))
			return
		}
		result, err = h.categoryService.GetUserCategoriesByType(userID, categoryType, page)
	} else {
		result, err = h.categoryService.GetUserCategories(userID, page)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategory handles the retrieval of a specific category
// @Summary     Get category by ID
// @Description Get a specific category by ID
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
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

	category, err := h.categoryService.GetCategoryByID(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Description Update an existing category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Updated category details"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input or category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate category name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [put]
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
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(userID, categoryID, services.CategoryInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Keywords:    req.Keywords,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, "category", categoryID, c.ClientIP(),
		map[string]interface{}{"name": category.Name})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Description Delete a category by ID. Categories referenced by transactions cannot be deleted.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category has transactions"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
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

	h.auditService.Log(userID, services.AuditActionDelete, "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
