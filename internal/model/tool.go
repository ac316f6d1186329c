package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tool represents an agricultural implement available for borrowing
type Tool struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(100);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	ImageURL    string     `gorm:"type:varchar(500)" json:"image_url"`
	ManagerID   *uuid.UUID `gorm:"type:uuid;index" json:"manager_id"` // Nullable: cleared when the manager account is removed
	Manager     *User      `gorm:"foreignKey:ManagerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"manager,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns the record id
func (t *Tool) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsManagedBy reports whether the given user is the tool's manager
func (t *Tool) IsManagedBy(userID uuid.UUID) bool {
	return t.ManagerID != nil && *t.ManagerID == userID
}
