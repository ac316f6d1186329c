package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"toolshed/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildReportSummary(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "Alice", "Martin", model.RoleMember)
	jane := createUser(t, env.db, "jane", "Jane", "Doe", model.RoleMember)
	bob := createUser(t, env.db, "bob", "Bob", "Durand", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)
	createGrant(t, env.db, tool, jane)
	createGrant(t, env.db, tool, bob)

	createBorrow(t, env.db, tool, jane, "2025-01-10", 100, 105)
	createBorrow(t, env.db, tool, bob, "2025-01-12", 105, 107)
	createBorrow(t, env.db, tool, jane, "2025-01-20", 107, 110)

	report, err := svc.BuildReport(ctx, manager.ID.String(), tool.ID.String(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Tractor", report.ToolName)
	require.Len(t, report.Rows, 3)

	// Detail rows mirror the listing order: date desc, then start reading desc
	assert.Equal(t, "20/01/2025", report.Rows[0].Date)
	assert.Equal(t, "Jane Doe", report.Rows[0].Name)
	assert.Equal(t, "12/01/2025", report.Rows[1].Date)
	assert.Equal(t, "10/01/2025", report.Rows[2].Date)

	// One summary row per borrower, ordered by first appearance, durations summed
	require.Len(t, report.Summary, 2)
	assert.Equal(t, "Jane Doe", report.Summary[0].Name)
	assert.Equal(t, "8", report.Summary[0].Total.String())
	assert.Equal(t, "Bob Durand", report.Summary[1].Name)
	assert.Equal(t, "2", report.Summary[1].Total.String())
}

func TestBuildReportDateRange(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	createBorrow(t, env.db, tool, manager, "2025-01-05", 10, 12)
	createBorrow(t, env.db, tool, manager, "2025-02-05", 12, 15)
	createBorrow(t, env.db, tool, manager, "2025-03-05", 15, 19)

	from := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)

	report, err := svc.BuildReport(ctx, manager.ID.String(), tool.ID.String(), &from, &to)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "05/02/2025", report.Rows[0].Date)
}

func TestBuildReportEmptyHistory(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Idle mower", manager)

	report, err := svc.BuildReport(ctx, manager.ID.String(), tool.ID.String(), nil, nil)
	require.NoError(t, err)

	// Both sections serialize as empty arrays, not null
	require.NotNil(t, report.Rows)
	require.NotNil(t, report.Summary)
	assert.Empty(t, report.Rows)
	assert.Empty(t, report.Summary)
}

func TestBuildReportAccess(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "", "", model.RoleMember)
	stranger := createUser(t, env.db, "eve", "", "", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)

	_, err := svc.BuildReport(ctx, stranger.ID.String(), tool.ID.String(), nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.BuildReport(ctx, manager.ID.String(), "7b7a0c6e-0000-0000-0000-000000000000", nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportFilename(t *testing.T) {
	report := &UsageReport{
		ToolName:    "Big tractor",
		GeneratedAt: time.Date(2025, 3, 7, 9, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, "Big tractor_07_03_2025.xlsx", report.Filename())
}

func TestWriteXLSX(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	manager := createUser(t, env.db, "alice", "Alice", "Martin", model.RoleMember)
	tool := createTool(t, env.db, "Tractor", manager)
	createBorrow(t, env.db, tool, manager, "2025-01-10", 140, 150.2)

	report, err := svc.BuildReport(ctx, manager.ID.String(), tool.ID.String(), nil, nil)
	require.NoError(t, err)

	data, err := svc.WriteXLSX(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Name", get("A1"))
	assert.Equal(t, "Duration (hours)", get("E1"))
	assert.Equal(t, "Total hours per person", get("G1"))

	assert.Equal(t, "Alice Martin", get("A2"))
	assert.Equal(t, "10/01/2025", get("B2"))
	assert.Equal(t, "140", get("C2"))
	assert.Equal(t, "150.2", get("D2"))
	assert.Equal(t, "10.2", get("E2"))

	assert.Equal(t, "Alice Martin", get("F2"))
	assert.Equal(t, "10.2", get("G2"))
}
