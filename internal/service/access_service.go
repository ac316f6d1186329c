package service

import (
	"context"
	"errors"

	"toolshed/internal/model"
	"toolshed/internal/repository"
	ws "toolshed/internal/websocket"

	"gorm.io/gorm"
)

// --- DTOs ---

type GrantResponse struct {
	ID        string `json:"id"`
	ToolID    string `json:"tool_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
}

type GrantAccessRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// AccessService decides tool visibility and management rights and owns the
// grant/revoke lifecycle of access grants.
type AccessService interface {
	CanManage(actor *model.User, tool *model.Tool) bool
	CanView(ctx context.Context, actor *model.User, tool *model.Tool) (bool, error)
	ListGrants(ctx context.Context, actorID, toolID string) ([]GrantResponse, error)
	GrantableUsers(ctx context.Context, actorID, toolID string) ([]UserSummary, error)
	GrantAccess(ctx context.Context, actorID, toolID string, req GrantAccessRequest) (*GrantResponse, error)
	RevokeAccess(ctx context.Context, actorID, grantID string) error
}

type accessService struct {
	toolRepo   repository.ToolRepository
	accessRepo repository.AccessRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	hub        *ws.Hub
}

// NewAccessService returns a new instance of AccessService
func NewAccessService(
	toolRepo repository.ToolRepository,
	accessRepo repository.AccessRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	hub *ws.Hub,
) AccessService {
	return &accessService{
		toolRepo:   toolRepo,
		accessRepo: accessRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		hub:        hub,
	}
}

// CanManage is true for the tool's manager and for privileged accounts
func (s *accessService) CanManage(actor *model.User, tool *model.Tool) bool {
	if actor == nil || tool == nil {
		return false
	}
	return tool.IsManagedBy(actor.ID) || actor.IsPrivileged()
}

// CanView is true when the actor manages the tool, holds a grant for it,
// or is privileged.
func (s *accessService) CanView(ctx context.Context, actor *model.User, tool *model.Tool) (bool, error) {
	if s.CanManage(actor, tool) {
		return true, nil
	}
	return s.accessRepo.Exists(ctx, tool.ID.String(), actor.ID.String())
}

func (s *accessService) ListGrants(ctx context.Context, actorID, toolID string) ([]GrantResponse, error) {
	actor, tool, err := s.loadActorAndTool(ctx, actorID, toolID)
	if err != nil {
		return nil, err
	}
	if !s.CanManage(actor, tool) {
		return nil, ErrForbidden
	}

	grants, err := s.accessRepo.ListByTool(ctx, toolID)
	if err != nil {
		return nil, err
	}

	res := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		res = append(res, toGrantResponse(&g))
	}
	return res, nil
}

// GrantableUsers lists every user except the tool's manager and users already
// holding a grant. The exclusion is recomputed from live data: even a stale
// candidate list cannot slip an excluded user past GrantAccess.
func (s *accessService) GrantableUsers(ctx context.Context, actorID, toolID string) ([]UserSummary, error) {
	actor, tool, err := s.loadActorAndTool(ctx, actorID, toolID)
	if err != nil {
		return nil, err
	}
	if !s.CanManage(actor, tool) {
		return nil, ErrForbidden
	}

	users, err := s.accessRepo.GrantableUsers(ctx, toolID)
	if err != nil {
		return nil, err
	}

	res := make([]UserSummary, 0, len(users))
	for _, u := range users {
		res = append(res, UserSummary{
			ID:       u.ID.String(),
			Username: u.Username,
			FullName: u.FullName(),
			Email:    u.Email,
		})
	}
	return res, nil
}

func (s *accessService) GrantAccess(ctx context.Context, actorID, toolID string, req GrantAccessRequest) (*GrantResponse, error) {
	actor, tool, err := s.loadActorAndTool(ctx, actorID, toolID)
	if err != nil {
		return nil, err
	}
	if !s.CanManage(actor, tool) {
		return nil, ErrForbidden
	}

	target, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Idempotent exclusion: the manager and already-granted users are rejected
	// regardless of how the candidate list was computed.
	if tool.IsManagedBy(target.ID) {
		return nil, ErrAlreadyAuthorized
	}
	if exists, err := s.accessRepo.Exists(ctx, toolID, req.UserID); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadyAuthorized
	}

	grant := &model.AccessGrant{
		ToolID: tool.ID,
		UserID: target.ID,
	}
	if err := s.accessRepo.Create(ctx, grant); err != nil {
		// A concurrent grant for the same pair loses against the unique
		// constraint; surface it the same way as the pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAuthorized
		}
		return nil, err
	}
	grant.User = *target

	writeAudit(ctx, s.auditRepo, actor.ID, model.ActionGrantAccess, grant.ID.String(), tool.Name, map[string]string{
		"tool_id": tool.ID.String(),
		"user_id": target.ID.String(),
	})
	broadcastEvent(s.hub, "access.granted", map[string]interface{}{
		"tool_id":   tool.ID.String(),
		"tool_name": tool.Name,
		"user_id":   target.ID.String(),
		"username":  target.Username,
	})

	res := toGrantResponse(grant)
	return &res, nil
}

func (s *accessService) RevokeAccess(ctx context.Context, actorID, grantID string) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return ErrForbidden
	}

	grant, err := s.accessRepo.GetByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !s.CanManage(actor, &grant.Tool) {
		return ErrForbidden
	}

	if err := s.accessRepo.Delete(ctx, grantID); err != nil {
		return err
	}

	writeAudit(ctx, s.auditRepo, actor.ID, model.ActionRevokeAccess, grantID, grant.Tool.Name, map[string]string{
		"tool_id": grant.ToolID.String(),
		"user_id": grant.UserID.String(),
	})
	broadcastEvent(s.hub, "access.revoked", map[string]interface{}{
		"tool_id": grant.ToolID.String(),
		"user_id": grant.UserID.String(),
	})

	return nil
}

// --- helpers ---

func (s *accessService) loadActorAndTool(ctx context.Context, actorID, toolID string) (*model.User, *model.Tool, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, ErrForbidden
	}
	tool, err := s.toolRepo.GetByID(ctx, toolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return actor, tool, nil
}

func toGrantResponse(g *model.AccessGrant) GrantResponse {
	return GrantResponse{
		ID:        g.ID.String(),
		ToolID:    g.ToolID.String(),
		UserID:    g.UserID.String(),
		Username:  g.User.Username,
		FullName:  g.User.FullName(),
		CreatedAt: g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
