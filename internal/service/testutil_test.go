package service

import (
	"testing"
	"time"

	"toolshed/internal/model"
	"toolshed/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory store with foreign keys enforced,
// so cascade and unique-constraint behavior matches the real schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Tool{},
		&model.AccessGrant{},
		&model.BorrowRecord{},
		&model.AuditLog{},
	))
	return db
}

type testEnv struct {
	db     *gorm.DB
	users  repository.UserRepository
	tools  repository.ToolRepository
	access repository.AccessRepository
	borrow repository.BorrowRepository
	audit  repository.AuditRepository
	tx     repository.TransactionManager
}

func newTestEnv(t *testing.T) *testEnv {
	db := newTestDB(t)
	return &testEnv{
		db:     db,
		users:  repository.NewUserRepository(db),
		tools:  repository.NewToolRepository(db),
		access: repository.NewAccessRepository(db),
		borrow: repository.NewBorrowRepository(db),
		audit:  repository.NewAuditRepository(db),
		tx:     repository.NewTransactionManager(db),
	}
}

func (e *testEnv) accessService() AccessService {
	return NewAccessService(e.tools, e.access, e.users, e.audit, nil)
}

func (e *testEnv) borrowService(now time.Time) *borrowService {
	s := NewBorrowService(e.borrow, e.tools, e.users, e.audit, e.accessService(), nil).(*borrowService)
	s.now = func() time.Time { return now }
	return s
}

func (e *testEnv) exportService() ExportService {
	return NewExportService(e.borrow, e.tools, e.users, e.audit, e.accessService())
}

func createUser(t *testing.T, db *gorm.DB, username, firstName, lastName, role string) *model.User {
	t.Helper()
	u := &model.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: firstName,
		LastName:  lastName,
		Password:  "x",
		Role:      role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTool(t *testing.T, db *gorm.DB, name string, manager *model.User) *model.Tool {
	t.Helper()
	tool := &model.Tool{Name: name, Description: "test tool"}
	if manager != nil {
		tool.ManagerID = &manager.ID
	}
	require.NoError(t, db.Create(tool).Error)
	return tool
}

func createGrant(t *testing.T, db *gorm.DB, tool *model.Tool, user *model.User) *model.AccessGrant {
	t.Helper()
	g := &model.AccessGrant{ToolID: tool.ID, UserID: user.ID}
	require.NoError(t, db.Create(g).Error)
	return g
}

func createBorrow(t *testing.T, db *gorm.DB, tool *model.Tool, user *model.User, date string, start, end float64) *model.BorrowRecord {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	r := &model.BorrowRecord{
		ToolID:       tool.ID,
		UserID:       user.ID,
		Date:         d,
		StartReading: decimal.NewFromFloat(start),
		EndReading:   decimal.NewFromFloat(end),
	}
	require.NoError(t, db.Create(r).Error)
	return r
}
