package service

import (
	"context"
	"testing"
	"time"

	"toolshed/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestCreateBorrowValid(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "Alice", "Martin", model.RoleMember)
	borrower := createUser(t, env.db, "bob", "Bob", "Durand", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)
	createGrant(t, env.db, tool, borrower)

	record, err := svc.CreateBorrow(ctx, borrower.ID.String(), tool.ID.String(), CreateBorrowRequest{
		Date:         "2025-01-01",
		StartReading: "140",
		EndReading:   "150.2",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", record.Date)
	assert.Equal(t, "10.2", record.Duration)
	assert.Equal(t, borrower.ID.String(), record.UserID)
	assert.Equal(t, "Bob Durand", record.UserName)
}

func TestCreateBorrowNonIncreasingReading(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	for _, end := range []string{"130", "140"} {
		_, err := svc.CreateBorrow(ctx, manager.ID.String(), tool.ID.String(), CreateBorrowRequest{
			Date:         "2025-01-01",
			StartReading: "140",
			EndReading:   end,
		})
		ve, ok := AsValidationError(err)
		require.True(t, ok, "expected validation error for end=%s", end)
		assert.Contains(t, ve.Fields["end_reading"], MsgNonIncreasingReading)
	}

	// Nothing persisted on failure
	var count int64
	env.db.Model(&model.BorrowRecord{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateBorrowFutureDate(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	_, err := svc.CreateBorrow(ctx, manager.ID.String(), tool.ID.String(), CreateBorrowRequest{
		Date:         "2025-06-16",
		StartReading: "10",
		EndReading:   "12",
	})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields["date"], MsgFutureDate)

	// Today itself is fine
	_, err = svc.CreateBorrow(ctx, manager.ID.String(), tool.ID.String(), CreateBorrowRequest{
		Date:         "2025-06-15",
		StartReading: "10",
		EndReading:   "12",
	})
	assert.NoError(t, err)
}

func TestCreateBorrowCollectsAllFieldErrors(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	_, err := svc.CreateBorrow(ctx, manager.ID.String(), tool.ID.String(), CreateBorrowRequest{})
	ve, ok := AsValidationError(err)
	require.True(t, ok)

	assert.Contains(t, ve.Fields["date"], MsgRequired)
	assert.Contains(t, ve.Fields["start_reading"], MsgRequired)
	assert.Contains(t, ve.Fields["end_reading"], MsgRequired)
}

func TestCreateBorrowUserSelection(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	carol := createUser(t, env.db, "carol", "", "", model.RoleMember)
	dave := createUser(t, env.db, "dave", "Dave", "Petit", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)
	createGrant(t, env.db, tool, carol)
	createGrant(t, env.db, tool, dave)

	t.Run("non-manager cannot submit for someone else", func(t *testing.T) {
		_, err := svc.CreateBorrow(ctx, carol.ID.String(), tool.ID.String(), CreateBorrowRequest{
			UserID:       dave.ID.String(),
			Date:         "2025-01-01",
			StartReading: "10",
			EndReading:   "11",
		})
		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields["user"], MsgInvalidUserChoice)
	})

	t.Run("manager submits on behalf of another user", func(t *testing.T) {
		record, err := svc.CreateBorrow(ctx, manager.ID.String(), tool.ID.String(), CreateBorrowRequest{
			UserID:       dave.ID.String(),
			Date:         "2025-01-01",
			StartReading: "10",
			EndReading:   "11",
		})
		require.NoError(t, err)
		assert.Equal(t, dave.ID.String(), record.UserID)
	})

	t.Run("empty user defaults to the acting user", func(t *testing.T) {
		record, err := svc.CreateBorrow(ctx, carol.ID.String(), tool.ID.String(), CreateBorrowRequest{
			Date:         "2025-01-02",
			StartReading: "11",
			EndReading:   "12",
		})
		require.NoError(t, err)
		assert.Equal(t, carol.ID.String(), record.UserID)
	})
}

func TestCreateBorrowRequiresVisibility(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	stranger := createUser(t, env.db, "eve", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	_, err := svc.CreateBorrow(ctx, stranger.ID.String(), tool.ID.String(), CreateBorrowRequest{
		Date:         "2025-01-01",
		StartReading: "10",
		EndReading:   "11",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestNewBorrowDefaults(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	t.Run("no history yields no suggestion", func(t *testing.T) {
		defaults, err := svc.NewBorrowDefaults(ctx, manager.ID.String(), tool.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "2025-06-15", defaults.Date)
		assert.Nil(t, defaults.SuggestedStartReading)
	})

	t.Run("suggests the maximum recorded end reading", func(t *testing.T) {
		createBorrow(t, env.db, tool, manager, "2025-02-01", 100, 150.2)
		createBorrow(t, env.db, tool, manager, "2025-03-01", 90, 120)

		defaults, err := svc.NewBorrowDefaults(ctx, manager.ID.String(), tool.ID.String())
		require.NoError(t, err)
		require.NotNil(t, defaults.SuggestedStartReading)
		assert.Equal(t, "150.2", *defaults.SuggestedStartReading)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := svc.NewBorrowDefaults(ctx, manager.ID.String(), "3f0a0c6e-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListBorrowsOrdering(t *testing.T) {
	env := newTestEnv(t)
	svc := env.borrowService(testNow)
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	createBorrow(t, env.db, tool, manager, "2025-01-01", 10, 20)
	createBorrow(t, env.db, tool, manager, "2025-02-01", 30, 40)
	createBorrow(t, env.db, tool, manager, "2025-02-01", 50, 60)

	records, total, err := svc.ListBorrows(ctx, manager.ID.String(), tool.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, records, 3)

	// date desc, then start reading desc
	assert.Equal(t, "50", records[0].StartReading)
	assert.Equal(t, "30", records[1].StartReading)
	assert.Equal(t, "10", records[2].StartReading)
}
