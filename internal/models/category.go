package models

// Category represents a transaction category. Keywords drive automatic
// category suggestion for new transactions.
type Category struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string          `gorm:"size:50;not null" json:"name"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Description string          `gorm:"size:200" json:"description"`
	Icon        string          `gorm:"size:50" json:"icon"`
	Color       string          `gorm:"size:7" json:"color"`
	Keywords    []string        `gorm:"serializer:json" json:"keywords"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:CategoryID" json:"budgets,omitempty"`
}

// Defaults applied when a category is created without an icon or color.
const (
	DefaultCategoryIcon  = "bi-tag"
	DefaultCategoryColor = "#6c757d"
)
