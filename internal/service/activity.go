package service

import (
	"context"
	"encoding/json"
	"log"

	"toolshed/internal/model"
	"toolshed/internal/repository"
	ws "toolshed/internal/websocket"

	"github.com/google/uuid"
)

// writeAudit records an audit entry; failures are logged, never fatal to the request
func writeAudit(ctx context.Context, repo repository.AuditRepository, actorID uuid.UUID, action, entityID, entityName string, details interface{}) {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     &actorID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit log for %s: %v", action, err)
	}
}

// broadcastEvent pushes an activity event to connected WebSocket clients
func broadcastEvent(hub *ws.Hub, event string, data map[string]interface{}) {
	if hub == nil {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		return
	}
	hub.Broadcast <- msg
}
