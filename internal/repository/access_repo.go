package repository

import (
	"context"

	"toolshed/internal/model"

	"gorm.io/gorm"
)

// AccessRepository defines the interface for data access of AccessGrant entities
type AccessRepository interface {
	Create(ctx context.Context, grant *model.AccessGrant) error
	GetByID(ctx context.Context, id string) (*model.AccessGrant, error)
	ListByTool(ctx context.Context, toolID string) ([]model.AccessGrant, error)
	Exists(ctx context.Context, toolID, userID string) (bool, error)
	GrantableUsers(ctx context.Context, toolID string) ([]model.User, error)
	Delete(ctx context.Context, id string) error
}

type accessRepository struct {
	db *gorm.DB
}

// NewAccessRepository returns a new instance of AccessRepository
func NewAccessRepository(db *gorm.DB) AccessRepository {
	return &accessRepository{db: db}
}

func (r *accessRepository) Create(ctx context.Context, grant *model.AccessGrant) error {
	return GetDB(ctx, r.db).Create(grant).Error
}

func (r *accessRepository) GetByID(ctx context.Context, id string) (*model.AccessGrant, error) {
	var grant model.AccessGrant
	if err := GetDB(ctx, r.db).Preload("Tool").Preload("User").First(&grant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *accessRepository) ListByTool(ctx context.Context, toolID string) ([]model.AccessGrant, error) {
	var grants []model.AccessGrant
	if err := GetDB(ctx, r.db).Preload("User").Where("tool_id = ?", toolID).
		Order("created_at asc").Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *accessRepository) Exists(ctx context.Context, toolID, userID string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.AccessGrant{}).
		Where("tool_id = ? AND user_id = ?", toolID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GrantableUsers returns every user except the tool's manager and users
// already holding a grant for the tool.
func (r *accessRepository) GrantableUsers(ctx context.Context, toolID string) ([]model.User, error) {
	var users []model.User
	db := GetDB(ctx, r.db)
	err := db.Model(&model.User{}).
		Where("users.id NOT IN (?)", db.Model(&model.AccessGrant{}).Select("user_id").Where("tool_id = ?", toolID)).
		Where("users.id NOT IN (?)", db.Model(&model.Tool{}).Select("manager_id").Where("id = ? AND manager_id IS NOT NULL", toolID)).
		Order("username asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *accessRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.AccessGrant{}).Error
}
