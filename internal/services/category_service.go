package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
)

// DefaultCategories is the fixed seed inserted for users without categories.
var DefaultCategories = []models.Category{
	{Name: "Food & Dining", Icon: "bi-cup-straw", Color: "#dc3545", Type: models.TransactionTypeExpense,
		Keywords: []string{"restaurant", "food", "dinner", "lunch", "coffee", "grocery"}},
	{Name: "Transportation", Icon: "bi-car-front", Color: "#007bff", Type: models.TransactionTypeExpense,
		Keywords: []string{"gas", "fuel", "uber", "taxi", "bus", "train", "metro"}},
	{Name: "Shopping", Icon: "bi-bag", Color: "#ffc107", Type: models.TransactionTypeExpense,
		Keywords: []string{"shopping", "clothes", "electronics", "amazon", "store"}},
	{Name: "Entertainment", Icon: "bi-film", Color: "#20c997", Type: models.TransactionTypeExpense,
		Keywords: []string{"movie", "netflix", "concert", "game", "entertainment"}},
	{Name: "Salary", Icon: "bi-cash-stack", Color: "#28a745", Type: models.TransactionTypeIncome,
		Keywords: []string{"salary", "paycheck", "income"}},
	{Name: "Freelance", Icon: "bi-laptop", Color: "#28a745", Type: models.TransactionTypeIncome,
		Keywords: []string{"freelance", "contract", "project"}},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID string, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if input.Type != models.TransactionTypeExpense && input.Type != models.TransactionTypeIncome {
		return nil, apperrors.ErrInvalidTransactionType
	}

	if err := s.ensureUniqueName(userID, name, ""); err != nil {
		return nil, err
	}

	icon := input.Icon
	if icon == "" {
		icon = models.DefaultCategoryIcon
	}
	color := input.Color
	if color == "" {
		color = models.DefaultCategoryColor
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Type:        input.Type,
		Description: input.Description,
		Icon:        icon,
		Color:       color,
		Keywords:    normalizeKeywords(input.Keywords),
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// ensureUniqueName rejects a name already used by another category of the user.
func (s *categoryService) ensureUniqueName(userID, name, excludeID string) error {
	query := s.db.Model(&models.Category{}).Where("user_id = ? AND LOWER(name) = ?", userID, strings.ToLower(name))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategoryName
	}
	return nil
}

// GetUserCategories retrieves a paginated list of categories for a user.
func (s *categoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	return s.listCategories(s.db.Model(&models.Category{}).Where("user_id = ?", userID), page)
}

// GetUserCategoriesByType retrieves a paginated list of categories of a specific type for a user.
func (s *categoryService) GetUserCategoriesByType(userID string, categoryType models.TransactionType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	return s.listCategories(s.db.Model(&models.Category{}).Where("user_id = ? AND type = ?", userID, categoryType), page)
}

func (s *categoryService) listCategories(base *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	result, err := pagination.Query[models.Category](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetAllCategories returns every category of the user in creation order.
func (s *categoryService) GetAllCategories(userID string) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category
func (s *categoryService) UpdateCategory(userID, categoryID string, input CategoryInput) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name := strings.TrimSpace(input.Name); name != "" && name != category.Name {
		if err := s.ensureUniqueName(userID, name, categoryID); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if input.Type != "" {
		if input.Type != models.TransactionTypeExpense && input.Type != models.TransactionTypeIncome {
			return nil, apperrors.ErrInvalidTransactionType
		}
		updates["type"] = input.Type
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if input.Icon != "" {
		updates["icon"] = input.Icon
	}
	if input.Color != "" {
		updates["color"] = input.Color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	// Keywords go through the json serializer, which map updates bypass.
	if input.Keywords != nil {
		category.Keywords = normalizeKeywords(input.Keywords)
		if err := s.db.Model(category).Select("keywords").Updates(&models.Category{Keywords: category.Keywords}).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory deletes a category that no transaction references. Budgets
// filtered on the category fall back to covering all expenses.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	var txCount int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&txCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SeedDefaultCategories inserts the default categories when the user has
// none and returns how many were created.
func (s *categoryService) SeedDefaultCategories(userID string) (int, error) {
	var count int64
	if err := s.db.Model(&models.Category{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return 0, nil
	}

	seed := make([]models.Category, len(DefaultCategories))
	for i, c := range DefaultCategories {
		c.UserID = userID
		c.Keywords = append([]string(nil), c.Keywords...)
		seed[i] = c
	}

	// Create one by one so UUIDv7 ids follow seed order.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range seed {
			if err := tx.Create(&seed[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return len(seed), nil
}

// normalizeKeywords lowercases, trims and de-duplicates keywords.
func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
