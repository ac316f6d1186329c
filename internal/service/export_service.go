package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"toolshed/internal/model"
	"toolshed/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// --- report types ---

type ReportRow struct {
	Name         string          `json:"name"`
	Date         string          `json:"date"` // DD/MM/YYYY
	StartReading decimal.Decimal `json:"start_reading"`
	EndReading   decimal.Decimal `json:"end_reading"`
	Duration     decimal.Decimal `json:"duration"`
}

type SummaryRow struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// UsageReport is the two-section result of the aggregation: detail rows in
// display order, then one summary row per distinct borrower name.
type UsageReport struct {
	ToolName    string       `json:"tool_name"`
	Rows        []ReportRow  `json:"rows"`
	Summary     []SummaryRow `json:"summary"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Filename follows the `<tool-name>_<DD_MM_YYYY>.xlsx` convention
func (r *UsageReport) Filename() string {
	return fmt.Sprintf("%s_%s.xlsx", r.ToolName, r.GeneratedAt.Format("02_01_2006"))
}

// ContentTypeXLSX identifies the export artifact as a spreadsheet document
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportService reduces a tool's borrow history into a tabular report
type ExportService interface {
	BuildReport(ctx context.Context, actorID, toolID string, from, to *time.Time) (*UsageReport, error)
	WriteXLSX(report *UsageReport) ([]byte, error)
}

type exportService struct {
	borrowRepo repository.BorrowRepository
	toolRepo   repository.ToolRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	access     AccessService
	now        func() time.Time
}

// NewExportService returns a new instance of ExportService
func NewExportService(
	borrowRepo repository.BorrowRepository,
	toolRepo repository.ToolRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	access AccessService,
) ExportService {
	return &exportService{
		borrowRepo: borrowRepo,
		toolRepo:   toolRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		access:     access,
		now:        time.Now,
	}
}

// BuildReport selects the tool's records (optionally bounded on the borrow
// date), renders detail rows and sums durations per borrower name. An empty
// history yields an empty report, not an error.
func (s *exportService) BuildReport(ctx context.Context, actorID, toolID string, from, to *time.Time) (*UsageReport, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, ErrForbidden
	}

	tool, err := s.toolRepo.GetByID(ctx, toolID)
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

	records, err := s.borrowRepo.ListForExport(ctx, toolID, from, to)
	if err != nil {
		return nil, err
	}

	report := &UsageReport{
		ToolName:    tool.Name,
		Rows:        make([]ReportRow, 0, len(records)),
		Summary:     make([]SummaryRow, 0),
		GeneratedAt: s.now(),
	}

	// Per-name totals keyed by display name, summary ordered by first appearance
	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0)

	for i := range records {
		r := &records[i]
		name := r.User.FullName()
		duration := r.Duration()

		report.Rows = append(report.Rows, ReportRow{
			Name:         name,
			Date:         r.Date.Format("02/01/2006"),
			StartReading: r.StartReading,
			EndReading:   r.EndReading,
			Duration:     duration,
		})

		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] = totals[name].Add(duration)
	}

	for _, name := range order {
		report.Summary = append(report.Summary, SummaryRow{Name: name, Total: totals[name]})
	}

	writeAudit(ctx, s.auditRepo, actor.ID, model.ActionExportHistory, tool.ID.String(), tool.Name, map[string]interface{}{
		"rows": len(report.Rows),
	})

	return report, nil
}

// WriteXLSX renders the report as a workbook: detail columns A-E, per-person
// summary in columns F-G alongside, matching the layout history of the export.
func (s *exportService) WriteXLSX(report *UsageReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	headers := map[string]string{
		"A1": "Name",
		"B1": "Date",
		"C1": "Start reading",
		"D1": "End reading",
		"E1": "Duration (hours)",
		"F1": "Name",
		"G1": "Total hours per person",
	}
	for cell, v := range headers {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return nil, err
		}
	}

	for i, row := range report.Rows {
		n := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.Name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.Date)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.StartReading.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.EndReading.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", n), row.Duration.InexactFloat64())
	}

	for i, row := range report.Summary {
		n := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("F%d", n), row.Name)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", n), row.Total.InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
