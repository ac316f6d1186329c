package service

import (
	"context"
	"errors"
	"testing"

	"toolshed/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGrantAccess(t *testing.T) {
	env := newTestEnv(t)
	svc := env.accessService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "Alice", "Martin", model.RoleMember)
	borrower := createUser(t, env.db, "bob", "Bob", "Durand", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	t.Run("manager can grant", func(t *testing.T) {
		grant, err := svc.GrantAccess(ctx, manager.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: borrower.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, borrower.ID.String(), grant.UserID)
		assert.Equal(t, "Bob Durand", grant.FullName)
	})

	t.Run("second grant for same pair fails", func(t *testing.T) {
		_, err := svc.GrantAccess(ctx, manager.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: borrower.ID.String()})
		assert.ErrorIs(t, err, ErrAlreadyAuthorized)
	})

	t.Run("granting to the manager fails", func(t *testing.T) {
		_, err := svc.GrantAccess(ctx, manager.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: manager.ID.String()})
		assert.ErrorIs(t, err, ErrAlreadyAuthorized)
	})

	t.Run("non-manager cannot grant", func(t *testing.T) {
		stranger := createUser(t, env.db, "carol", "", "", model.RoleMember)
		_, err := svc.GrantAccess(ctx, stranger.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: stranger.ID.String()})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin can grant on any tool", func(t *testing.T) {
		admin := createUser(t, env.db, "root", "", "", model.RoleAdmin)
		dave := createUser(t, env.db, "dave", "", "", model.RoleMember)
		_, err := svc.GrantAccess(ctx, admin.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: dave.ID.String()})
		assert.NoError(t, err)
	})

	t.Run("unknown target user", func(t *testing.T) {
		_, err := svc.GrantAccess(ctx, manager.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: "3f0a0c6e-0000-0000-0000-000000000000"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRevokeThenRegrant(t *testing.T) {
	env := newTestEnv(t)
	svc := env.accessService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	borrower := createUser(t, env.db, "bob", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Seeder", manager)

	grant, err := svc.GrantAccess(ctx, manager.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: borrower.ID.String()})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAccess(ctx, manager.ID.String(), grant.ID))

	// The pair is free again after revocation
	_, err = svc.GrantAccess(ctx, manager.ID.String(), tool.ID.String(), GrantAccessRequest{UserID: borrower.ID.String()})
	assert.NoError(t, err)
}

func TestRevokeAccessForbiddenForNonManager(t *testing.T) {
	env := newTestEnv(t)
	svc := env.accessService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	borrower := createUser(t, env.db, "bob", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Plough", manager)
	grant := createGrant(t, env.db, tool, borrower)

	err := svc.RevokeAccess(ctx, borrower.ID.String(), grant.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)
}

// The store's unique constraint is the last line of defense against
// concurrent grants for the same pair.
func TestGrantUniqueConstraint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	borrower := createUser(t, env.db, "bob", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Baler", manager)

	require.NoError(t, env.access.Create(ctx, &model.AccessGrant{ToolID: tool.ID, UserID: borrower.ID}))
	err := env.access.Create(ctx, &model.AccessGrant{ToolID: tool.ID, UserID: borrower.ID})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestGrantableUsers(t *testing.T) {
	env := newTestEnv(t)
	svc := env.accessService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	granted := createUser(t, env.db, "bob", "", "", model.RoleMember)
	candidate := createUser(t, env.db, "carol", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Mower", manager)
	createGrant(t, env.db, tool, granted)

	users, err := svc.GrantableUsers(ctx, manager.ID.String(), tool.ID.String())
	require.NoError(t, err)

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Contains(t, ids, candidate.ID.String())
	assert.NotContains(t, ids, manager.ID.String())
	assert.NotContains(t, ids, granted.ID.String())
}

func TestVisibleToolsDeduplicated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := createUser(t, env.db, "alice", "", "", model.RoleMember)
	other := createUser(t, env.db, "bob", "", "", model.RoleMember)
	managed := createTool(t, env.db, "Tractor", owner)
	grantedTool := createTool(t, env.db, "Seeder", other)
	createTool(t, env.db, "Hidden", other)

	createGrant(t, env.db, grantedTool, owner)
	// Both relations at once must still yield the tool exactly once
	createGrant(t, env.db, managed, owner)

	tools, total, err := env.tools.ListVisible(ctx, owner.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, tools, 2)

	names := []string{tools[0].Name, tools[1].Name}
	assert.ElementsMatch(t, []string{"Tractor", "Seeder"}, names)
}

func TestDeleteToolCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	borrower := createUser(t, env.db, "bob", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)
	createGrant(t, env.db, tool, borrower)
	createBorrow(t, env.db, tool, borrower, "2025-01-01", 140, 150.2)

	require.NoError(t, env.tools.Delete(ctx, tool.ID.String()))

	var grants, borrows int64
	env.db.Model(&model.AccessGrant{}).Where("tool_id = ?", tool.ID).Count(&grants)
	env.db.Model(&model.BorrowRecord{}).Where("tool_id = ?", tool.ID).Count(&borrows)
	assert.Zero(t, grants)
	assert.Zero(t, borrows)
}

func TestDeleteManagerClearsToolReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	require.NoError(t, env.users.Delete(ctx, manager.ID.String()))

	var reloaded model.Tool
	require.NoError(t, env.db.First(&reloaded, "id = ?", tool.ID).Error)
	assert.Nil(t, reloaded.ManagerID)
}
