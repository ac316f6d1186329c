package service

import (
	"context"
	"errors"
	"strings"

	"toolshed/internal/model"
	"toolshed/internal/repository"
	ws "toolshed/internal/websocket"

	"gorm.io/gorm"
)

// --- DTOs ---

type CreateToolRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
}

type UpdateToolRequest struct {
	Name        string  `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" binding:"omitempty"`
}

type ToolResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url,omitempty"`
	ManagerID   *string `json:"manager_id"`
	ManagerName string  `json:"manager_name,omitempty"`
	CanManage   bool    `json:"can_manage"`
	CreatedAt   string  `json:"created_at"`
}

// ToolService owns the tool lifecycle and the visible-tools query
type ToolService interface {
	CreateTool(ctx context.Context, actorID string, req CreateToolRequest) (*ToolResponse, error)
	GetTool(ctx context.Context, actorID, id string) (*ToolResponse, error)
	ListVisibleTools(ctx context.Context, actorID string, page, limit int) ([]ToolResponse, int64, error)
	UpdateTool(ctx context.Context, actorID, id string, req UpdateToolRequest) (*ToolResponse, error)
	DeleteTool(ctx context.Context, actorID, id string) error
}

type toolService struct {
	toolRepo  repository.ToolRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	access    AccessService
	txManager repository.TransactionManager
	hub       *ws.Hub
}

// NewToolService returns a new instance of ToolService
func NewToolService(
	toolRepo repository.ToolRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	access AccessService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ToolService {
	return &toolService{
		toolRepo:  toolRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		access:    access,
		txManager: txManager,
		hub:       hub,
	}
}

// CreateTool registers a tool; the creating user becomes its manager
func (s *toolService) CreateTool(ctx context.Context, actorID string, req CreateToolRequest) (*ToolResponse, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, ErrForbidden
	}

	ve := NewValidationError()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		ve.Add("name", MsgRequired)
	}
	if len([]rune(name)) > 100 {
		ve.Add("name", "name must be at most 100 characters")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	tool := &model.Tool{
		Name:        name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ManagerID:   &actor.ID,
	}
	if err := s.toolRepo.Create(ctx, tool); err != nil {
		return nil, err
	}
	tool.Manager = actor

	writeAudit(ctx, s.auditRepo, actor.ID, model.ActionCreateTool, tool.ID.String(), tool.Name, req)
	broadcastEvent(s.hub, "tool.created", map[string]interface{}{
		"tool_id":   tool.ID.String(),
		"tool_name": tool.Name,
		"manager":   actor.Username,
	})

	res := s.toToolResponse(tool, actor)
	return &res, nil
}

func (s *toolService) GetTool(ctx context.Context, actorID, id string) (*ToolResponse, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, ErrForbidden
	}

	tool, err := s.toolRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	visible, err := s.access.CanView(ctx, actor, tool)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrForbidden
	}

	res := s.toToolResponse(tool, actor)
	return &res, nil
}

// ListVisibleTools returns tools the actor manages or holds a grant for.
// Privileged accounts see everything.
func (s *toolService) ListVisibleTools(ctx context.Context, actorID string, page, limit int) ([]ToolResponse, int64, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, 0, ErrForbidden
	}

	var tools []model.Tool
	var total int64
	if actor.IsPrivileged() {
		tools, total, err = s.toolRepo.ListAll(ctx, page, limit)
	} else {
		tools, total, err = s.toolRepo.ListVisible(ctx, actorID, page, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	res := make([]ToolResponse, 0, len(tools))
	for i := range tools {
		res = append(res, s.toToolResponse(&tools[i], actor))
	}
	return res, total, nil
}

func (s *toolService) UpdateTool(ctx context.Context, actorID, id string, req UpdateToolRequest) (*ToolResponse, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, ErrForbidden
	}

	tool, err := s.toolRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.access.CanManage(actor, tool) {
		return nil, ErrForbidden
	}

	if req.Name != "" {
		name := strings.TrimSpace(req.Name)
		if name == "" || len([]rune(name)) > 100 {
			ve := NewValidationError()
			ve.Add("name", "name must be 1-100 characters")
			return nil, ve
		}
		tool.Name = name
	}
	if req.Description != nil {
		tool.Description = *req.Description
	}
	if req.ImageURL != nil {
		tool.ImageURL = *req.ImageURL
	}

	if err := s.toolRepo.Update(ctx, tool); err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, actor.ID, model.ActionUpdateTool, tool.ID.String(), tool.Name, req)

	res := s.toToolResponse(tool, actor)
	return &res, nil
}

// DeleteTool removes the tool; its borrow records and access grants are
// cascade-deleted by the store. Delete and audit write commit together.
func (s *toolService) DeleteTool(ctx context.Context, actorID, id string) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return ErrForbidden
	}

	tool, err := s.toolRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !s.access.CanManage(actor, tool) {
		return ErrForbidden
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.toolRepo.Delete(txCtx, id); err != nil {
			return err
		}
		writeAudit(txCtx, s.auditRepo, actor.ID, model.ActionDeleteTool, id, tool.Name, nil)
		return nil
	})
	if err != nil {
		return err
	}

	broadcastEvent(s.hub, "tool.deleted", map[string]interface{}{
		"tool_id":   id,
		"tool_name": tool.Name,
	})
	return nil
}

func (s *toolService) toToolResponse(tool *model.Tool, actor *model.User) ToolResponse {
	res := ToolResponse{
		ID:          tool.ID.String(),
		Name:        tool.Name,
		Description: tool.Description,
		ImageURL:    tool.ImageURL,
		CanManage:   s.access.CanManage(actor, tool),
		CreatedAt:   tool.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if tool.ManagerID != nil {
		id := tool.ManagerID.String()
		res.ManagerID = &id
	}
	if tool.Manager != nil {
		res.ManagerName = tool.Manager.FullName()
	}
	return res
}
