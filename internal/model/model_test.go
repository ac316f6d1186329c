package model

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The schema must migrate on sqlite as well as postgres; ids come from the
// BeforeCreate hooks, not from a database-side default.
func TestAutoMigrateAndIDAssignment(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Tool{},
		&AccessGrant{},
		&BorrowRecord{},
		&AuditLog{},
	))

	user := &User{Username: "alice", Email: "alice@example.com", Password: "x", Role: RoleMember}
	require.NoError(t, db.Create(user).Error)
	assert.NotEqual(t, uuid.Nil, user.ID)

	tool := &Tool{Name: "Tractor", ManagerID: &user.ID}
	require.NoError(t, db.Create(tool).Error)
	assert.NotEqual(t, uuid.Nil, tool.ID)

	grant := &AccessGrant{ToolID: tool.ID, UserID: user.ID}
	require.NoError(t, db.Create(grant).Error)
	assert.NotEqual(t, uuid.Nil, grant.ID)

	// Pre-set ids are preserved
	fixed := uuid.New()
	log := &AuditLog{ID: fixed, Action: ActionCreateTool, EntityID: tool.ID.String()}
	require.NoError(t, db.Create(log).Error)
	assert.Equal(t, fixed, log.ID)
}
