package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessGrant lets a non-manager user borrow a given tool.
// At most one grant exists per (tool, user) pair; the composite unique
// index is the authority for that invariant, concurrent grants included.
type AccessGrant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ToolID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_access_tool_user" json:"tool_id"`
	Tool      Tool      `gorm:"foreignKey:ToolID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_access_tool_user" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns the record id
func (g *AccessGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
