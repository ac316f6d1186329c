package repository

import (
	"context"
	"time"

	"toolshed/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BorrowRepository defines the interface for data access of BorrowRecord entities.
// Records are append-only: there is no update or delete operation.
type BorrowRepository interface {
	Create(ctx context.Context, record *model.BorrowRecord) error
	ListByTool(ctx context.Context, toolID string, page, limit int) ([]model.BorrowRecord, int64, error)
	ListForExport(ctx context.Context, toolID string, from, to *time.Time) ([]model.BorrowRecord, error)
	LastEndReading(ctx context.Context, toolID string) (*decimal.Decimal, error)
}

type borrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository returns a new instance of BorrowRepository
func NewBorrowRepository(db *gorm.DB) BorrowRepository {
	return &borrowRepository{db: db}
}

func (r *borrowRepository) Create(ctx context.Context, record *model.BorrowRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *borrowRepository) ListByTool(ctx context.Context, toolID string, page, limit int) ([]model.BorrowRecord, int64, error) {
	var records []model.BorrowRecord
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.BorrowRecord{}).Where("tool_id = ?", toolID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").Where("tool_id = ?", toolID).
		Order("date desc").Order("start_reading desc").
		Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// ListForExport returns the full history for a tool, optionally bounded to
// [from, to] on the borrow date, in display order (date desc, start desc).
func (r *borrowRepository) ListForExport(ctx context.Context, toolID string, from, to *time.Time) ([]model.BorrowRecord, error) {
	db := GetDB(ctx, r.db).Preload("User").Where("tool_id = ?", toolID)
	if from != nil {
		db = db.Where("date >= ?", *from)
	}
	if to != nil {
		db = db.Where("date <= ?", *to)
	}

	var records []model.BorrowRecord
	if err := db.Order("date desc").Order("start_reading desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// LastEndReading returns the maximum end reading recorded for the tool,
// or nil when the tool has no history yet.
func (r *borrowRepository) LastEndReading(ctx context.Context, toolID string) (*decimal.Decimal, error) {
	var result struct {
		Max decimal.NullDecimal
	}
	err := GetDB(ctx, r.db).Model(&model.BorrowRecord{}).
		Select("MAX(end_reading) as max").
		Where("tool_id = ?", toolID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	if !result.Max.Valid {
		return nil, nil
	}
	return &result.Max.Decimal, nil
}
