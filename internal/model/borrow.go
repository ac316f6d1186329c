package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BorrowRecord logs a single usage of a tool with start/end meter readings.
// Records are immutable once created; they only disappear when their tool
// or borrower is deleted (cascade).
type BorrowRecord struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ToolID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tool_id"`
	Tool         Tool            `gorm:"foreignKey:ToolID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Date         time.Time       `gorm:"type:date;not null" json:"date"`
	StartReading decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"start_reading"`
	EndReading   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"end_reading"`
	Comment      string          `gorm:"type:text" json:"comment"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BeforeCreate assigns the record id
func (b *BorrowRecord) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Duration is the metered usage, end minus start
func (b *BorrowRecord) Duration() decimal.Decimal {
	return b.EndReading.Sub(b.StartReading)
}
