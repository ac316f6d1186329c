package repository

import (
	"context"

	"toolshed/internal/model"

	"gorm.io/gorm"
)

// ToolRepository defines the interface for data access of Tool entities
type ToolRepository interface {
	Create(ctx context.Context, tool *model.Tool) error
	GetByID(ctx context.Context, id string) (*model.Tool, error)
	ListAll(ctx context.Context, page, limit int) ([]model.Tool, int64, error)
	ListVisible(ctx context.Context, userID string, page, limit int) ([]model.Tool, int64, error)
	Update(ctx context.Context, tool *model.Tool) error
	Delete(ctx context.Context, id string) error
}

type toolRepository struct {
	db *gorm.DB
}

// NewToolRepository returns a new instance of ToolRepository
func NewToolRepository(db *gorm.DB) ToolRepository {
	return &toolRepository{db: db}
}

func (r *toolRepository) Create(ctx context.Context, tool *model.Tool) error {
	return GetDB(ctx, r.db).Create(tool).Error
}

func (r *toolRepository) GetByID(ctx context.Context, id string) (*model.Tool, error) {
	var tool model.Tool
	if err := GetDB(ctx, r.db).Preload("Manager").First(&tool, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *toolRepository) ListAll(ctx context.Context, page, limit int) ([]model.Tool, int64, error) {
	var tools []model.Tool
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Tool{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Manager").Order("name asc").Offset(offset).Limit(limit).Find(&tools).Error; err != nil {
		return nil, 0, err
	}

	return tools, total, nil
}

// ListVisible returns tools where the user is the manager or holds an access
// grant, without duplicates when both relations somehow hold at once.
func (r *toolRepository) ListVisible(ctx context.Context, userID string, page, limit int) ([]model.Tool, int64, error) {
	var tools []model.Tool
	var total int64

	db := GetDB(ctx, r.db)
	visible := func() *gorm.DB {
		return db.Model(&model.Tool{}).
			Joins("LEFT JOIN access_grants ON access_grants.tool_id = tools.id AND access_grants.user_id = ?", userID).
			Where("tools.manager_id = ? OR access_grants.id IS NOT NULL", userID)
	}

	if err := visible().Distinct("tools.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := visible().Select("DISTINCT tools.*").Preload("Manager").
		Order("tools.name asc").Offset(offset).Limit(limit).Find(&tools).Error; err != nil {
		return nil, 0, err
	}

	return tools, total, nil
}

func (r *toolRepository) Update(ctx context.Context, tool *model.Tool) error {
	return GetDB(ctx, r.db).Save(tool).Error
}

// Delete hard-deletes the tool; borrow records and access grants go with it
// via the store's cascade rules.
func (r *toolRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Tool{}).Error
}
