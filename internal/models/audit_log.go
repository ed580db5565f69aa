package models

// AuditLog records create/update/delete operations on user data.
// ResourceID is nil for operations spanning several rows.
type AuditLog struct {
	Base
	UserID       string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string  `gorm:"not null" json:"action"`
	ResourceType string  `gorm:"not null" json:"resource_type"`
	ResourceID   *string `gorm:"type:uuid" json:"resource_id,omitempty"`
	IPAddress    string  `json:"ip_address"`
	Changes      string  `json:"changes,omitempty"`
}
