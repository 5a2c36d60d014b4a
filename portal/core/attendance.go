package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/portal/model"
	v1 "zentrix.com/portal/sheets/v1"
	"zentrix.com/portal/utils"
)

type AttendanceService struct {
	Feed     FeedReader
	Notifier communication.Notifier
	Location *time.Location
	Now      func() time.Time
}

type SummaryResult struct {
	Summary    model.AttendanceSummary `json:"summary"`
	LoadFailed bool                    `json:"loadFailed"`
	Message    string                  `json:"loadError,omitempty"`
}

type TodayStatus struct {
	Punches       []model.PunchRecord `json:"punches"`
	HasIn         bool                `json:"hasIn"`
	HasOut        bool                `json:"hasOut"`
	ActiveSession bool                `json:"activeSession"`
}

func (s *AttendanceService) location() *time.Location {
	if s.Location == nil {
		return utils.IndiaTZ
	}
	return s.Location
}

func (s *AttendanceService) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.location())
	}
	return time.Now().In(s.location())
}

// Records loads every punch from the Attendance sheet
func (s *AttendanceService) Records(ctx context.Context) ([]model.PunchRecord, error) {
	rows, err := s.Feed.Rows(ctx, v1.AttendanceColumns.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return ParsePunches(rows, s.location()), nil
}

// Summary reconciles the current month for the viewer. A feed failure
// yields an empty summary flagged as a load failure.
func (s *AttendanceService) Summary(ctx context.Context, viewer model.Viewer) SummaryResult {
	now := s.now()
	records, err := s.Records(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "attendance feed failed", "employee", viewer.Name, "error", err)
		communication.Send(ctx, s.Notifier, "Error loading attendance data", communication.KindError)
		return SummaryResult{
			Summary:    Reconcile(nil, now, ScopeFor(viewer)),
			LoadFailed: true,
			Message:    ErrFeedUnavailable.Error(),
		}
	}
	return SummaryResult{Summary: Reconcile(records, now, ScopeFor(viewer))}
}

// History lists the viewer's punches newest first. Admins see everyone.
func (s *AttendanceService) History(ctx context.Context, viewer model.Viewer) ([]model.PunchRecord, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	scope := ScopeFor(viewer)
	out := utils.Filter(records, func(r model.PunchRecord) bool { return scope.includes(r.EmployeeName) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Today returns the employee's punches for the current day
func (s *AttendanceService) Today(ctx context.Context, employee string) (*TodayStatus, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	return todayStatus(records, employee, s.now()), nil
}

func todayStatus(records []model.PunchRecord, employee string, now time.Time) *TodayStatus {
	scope := Scope{Employee: employee}
	status := &TodayStatus{Punches: []model.PunchRecord{}}
	for _, r := range records {
		if !scope.includes(r.EmployeeName) || !utils.SameDay(r.Timestamp.In(now.Location()), now) {
			continue
		}
		status.Punches = append(status.Punches, r)
		switch r.Status {
		case model.PunchIn:
			status.HasIn = true
		case model.PunchOut:
			status.HasOut = true
		}
	}
	sort.SliceStable(status.Punches, func(i, j int) bool {
		return status.Punches[i].Timestamp.Before(status.Punches[j].Timestamp)
	})
	if n := len(status.Punches); n > 0 {
		status.ActiveSession = status.Punches[n-1].Status == model.PunchIn
	}
	return status
}
