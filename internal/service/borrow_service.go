package service

import (
	"context"
	"errors"
	"time"

	"toolshed/internal/model"
	"toolshed/internal/repository"
	ws "toolshed/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// --- DTOs ---

// CreateBorrowRequest carries raw submitted field values. Validation happens
// in the service so every failing field is reported, not just the first.
type CreateBorrowRequest struct {
	UserID       string `json:"user_id"` // empty means the acting user (self-service)
	Date         string `json:"date"`    // YYYY-MM-DD
	StartReading string `json:"start_reading"`
	EndReading   string `json:"end_reading"`
	Comment      string `json:"comment"`
}

type BorrowResponse struct {
	ID           string `json:"id"`
	ToolID       string `json:"tool_id"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	Date         string `json:"date"`
	StartReading string `json:"start_reading"`
	EndReading   string `json:"end_reading"`
	Duration     string `json:"duration"`
	Comment      string `json:"comment,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// BorrowDefaults is the pre-fill contract for a new submission. The suggested
// start reading is advisory only; submissions may override it freely.
type BorrowDefaults struct {
	Date                  string  `json:"date"`
	SuggestedStartReading *string `json:"suggested_start_reading"`
}

// BorrowService validates and records tool usage
type BorrowService interface {
	CreateBorrow(ctx context.Context, actorID, toolID string, req CreateBorrowRequest) (*BorrowResponse, error)
	NewBorrowDefaults(ctx context.Context, actorID, toolID string) (*BorrowDefaults, error)
	ListBorrows(ctx context.Context, actorID, toolID string, page, limit int) ([]BorrowResponse, int64, error)
}

type borrowService struct {
	borrowRepo repository.BorrowRepository
	toolRepo   repository.ToolRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	access     AccessService
	hub        *ws.Hub
	now        func() time.Time // injectable clock for the future-date rule
}

// NewBorrowService returns a new instance of BorrowService
func NewBorrowService(
	borrowRepo repository.BorrowRepository,
	toolRepo repository.ToolRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	access AccessService,
	hub *ws.Hub,
) BorrowService {
	return &borrowService{
		borrowRepo: borrowRepo,
		toolRepo:   toolRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		access:     access,
		hub:        hub,
		now:        time.Now,
	}
}

// CreateBorrow validates the submission and persists it. All field rules are
// evaluated; on any failure nothing is written and the caller receives the
// full field→messages mapping.
func (s *borrowService) CreateBorrow(ctx context.Context, actorID, toolID string, req CreateBorrowRequest) (*BorrowResponse, error) {
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

	ve := NewValidationError()

	date, _ := s.validateDate(ve, req.Date)
	start, end := s.validateReadings(ve, req.StartReading, req.EndReading)
	borrower := s.validateBorrower(ctx, ve, actor, tool, req.UserID)

	if ve.HasErrors() {
		return nil, ve
	}

	record := &model.BorrowRecord{
		ToolID:       tool.ID,
		UserID:       borrower.ID,
		Date:         date,
		StartReading: start,
		EndReading:   end,
		Comment:      req.Comment,
	}
	if err := s.borrowRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	record.User = *borrower

	writeAudit(ctx, s.auditRepo, actor.ID, model.ActionCreateBorrow, record.ID.String(), tool.Name, map[string]string{
		"tool_id":       tool.ID.String(),
		"user_id":       borrower.ID.String(),
		"date":          req.Date,
		"start_reading": start.String(),
		"end_reading":   end.String(),
	})
	broadcastEvent(s.hub, "borrow.created", map[string]interface{}{
		"tool_id":   tool.ID.String(),
		"tool_name": tool.Name,
		"user":      borrower.FullName(),
		"duration":  record.Duration().String(),
	})

	res := toBorrowResponse(record)
	return &res, nil
}

// NewBorrowDefaults pre-fills a fresh submission: today's date and the last
// recorded end reading of the tool as the suggested start reading.
func (s *borrowService) NewBorrowDefaults(ctx context.Context, actorID, toolID string) (*BorrowDefaults, error) {
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

	defaults := &BorrowDefaults{Date: s.now().Format(dateLayout)}

	last, err := s.borrowRepo.LastEndReading(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		v := last.String()
		defaults.SuggestedStartReading = &v
	}
	return defaults, nil
}

func (s *borrowService) ListBorrows(ctx context.Context, actorID, toolID string, page, limit int) ([]BorrowResponse, int64, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, 0, ErrForbidden
	}

	tool, err := s.toolRepo.GetByID(ctx, toolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	visible, err := s.access.CanView(ctx, actor, tool)
	if err != nil {
		return nil, 0, err
	}
	if !visible {
		return nil, 0, ErrForbidden
	}

	records, total, err := s.borrowRepo.ListByTool(ctx, toolID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]BorrowResponse, 0, len(records))
	for i := range records {
		res = append(res, toBorrowResponse(&records[i]))
	}
	return res, total, nil
}

// --- field validators ---

func (s *borrowService) validateDate(ve *ValidationError, raw string) (time.Time, bool) {
	if raw == "" {
		ve.Add("date", MsgRequired)
		return time.Time{}, false
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		ve.Add("date", "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(today) {
		ve.Add("date", MsgFutureDate)
		return time.Time{}, false
	}
	return date, true
}

func (s *borrowService) validateReadings(ve *ValidationError, rawStart, rawEnd string) (decimal.Decimal, decimal.Decimal) {
	var start, end decimal.Decimal
	startOK, endOK := false, false

	if rawStart == "" {
		ve.Add("start_reading", MsgRequired)
	} else if v, err := decimal.NewFromString(rawStart); err != nil {
		ve.Add("start_reading", "invalid number")
	} else {
		start, startOK = v, true
	}

	if rawEnd == "" {
		ve.Add("end_reading", MsgRequired)
	} else if v, err := decimal.NewFromString(rawEnd); err != nil {
		ve.Add("end_reading", "invalid number")
	} else {
		end, endOK = v, true
	}

	// Cross-field rule only applies once both readings parsed
	if startOK && endOK && end.LessThanOrEqual(start) {
		ve.Add("end_reading", MsgNonIncreasingReading)
	}
	return start, end
}

// validateBorrower resolves the borrowing user. Non-managers may only record
// borrows for themselves; the tool's manager (or a privileged account) may
// record on behalf of anyone.
func (s *borrowService) validateBorrower(ctx context.Context, ve *ValidationError, actor *model.User, tool *model.Tool, rawUserID string) *model.User {
	if rawUserID == "" || rawUserID == actor.ID.String() {
		return actor
	}

	if !s.access.CanManage(actor, tool) {
		ve.Add("user", MsgInvalidUserChoice)
		return actor
	}

	if _, err := uuid.Parse(rawUserID); err != nil {
		ve.Add("user", "invalid user id")
		return actor
	}
	target, err := s.userRepo.GetByID(ctx, rawUserID)
	if err != nil {
		ve.Add("user", "unknown user")
		return actor
	}
	return target
}

func toBorrowResponse(r *model.BorrowRecord) BorrowResponse {
	return BorrowResponse{
		ID:           r.ID.String(),
		ToolID:       r.ToolID.String(),
		UserID:       r.UserID.String(),
		UserName:     r.User.FullName(),
		Date:         r.Date.Format(dateLayout),
		StartReading: r.StartReading.String(),
		EndReading:   r.EndReading.String(),
		Duration:     r.Duration().String(),
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
