package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/portal/model"
	v1 "zentrix.com/portal/sheets/v1"
	"zentrix.com/portal/utils"
)

type AdvanceWriter interface {
	SubmitAdvance(ctx context.Context, row *v1.RowData) (*v1.Receipt, error)
	UpdateAdvanceStatus(ctx context.Context, rowNumber int, serial, status, remarks, admin string) (*v1.Receipt, error)
}

type AdvanceSubmission struct {
	FromLocation string
	ToLocation   string
	StartDate    string
	EndDate      string
	TravelType   string
	Amount       decimal.Decimal
	Company      string
	Remarks      string
}

// AdvanceList is the advance view of one viewer. Admins get the queue
// of requests awaiting action next to the decided ones.
type AdvanceList struct {
	Requests  []model.AdvanceRequest `json:"requests"`
	Awaiting  []model.AdvanceRequest `json:"awaiting,omitempty"`
	Completed []model.AdvanceRequest `json:"completed,omitempty"`
}

type AdvanceService struct {
	Feed     FeedReader
	Writer   AdvanceWriter
	Notifier communication.Notifier
}

func (s *AdvanceService) requests(ctx context.Context) ([]model.AdvanceRequest, error) {
	rows, err := s.Feed.Rows(ctx, v1.AdvanceColumns.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	out := ParseAdvances(rows)
	sort.SliceStable(out, func(i, j int) bool { return serialOrder(out[i].SerialNumber) > serialOrder(out[j].SerialNumber) })
	return out, nil
}

func (s *AdvanceService) List(ctx context.Context, viewer model.Viewer) (*AdvanceList, error) {
	all, err := s.requests(ctx)
	if err != nil {
		return nil, err
	}
	list := &AdvanceList{Requests: []model.AdvanceRequest{}}
	scope := ScopeFor(viewer)
	for _, r := range all {
		if !scope.includes(r.PersonName) {
			continue
		}
		list.Requests = append(list.Requests, r)
		if !viewer.IsAdmin() {
			continue
		}
		switch {
		case r.AwaitingAction():
			list.Awaiting = append(list.Awaiting, r)
		case r.Completed():
			list.Completed = append(list.Completed, r)
		}
	}
	return list, nil
}

func validateAdvance(a AdvanceSubmission) error {
	errs := ValidationErrors{}
	if strings.TrimSpace(a.FromLocation) == "" {
		errs.add("fromLocation", "From location is required")
	}
	if strings.TrimSpace(a.ToLocation) == "" {
		errs.add("toLocation", "To location is required")
	}
	if a.StartDate == "" {
		errs.add("startDate", "Start date is required")
	}
	if a.EndDate == "" {
		errs.add("endDate", "End date is required")
	}
	if a.TravelType == "" {
		errs.add("travelType", "Travel type is required")
	}
	if !a.Amount.IsPositive() {
		errs.add("advanceAmount", "Valid advance amount is required")
	}
	if strings.TrimSpace(a.Company) == "" {
		errs.add("companyName", "Company name is required")
	}
	if a.StartDate != "" && a.EndDate != "" && a.EndDate < a.StartDate {
		errs.add("endDate", "End date cannot be earlier than start date")
	}
	return errs.orNil()
}

// Submit files a new request. The gateway assigns the serial and the
// planned timestamp.
func (s *AdvanceService) Submit(ctx context.Context, employee string, a AdvanceSubmission) (*v1.Receipt, error) {
	if err := validateAdvance(a); err != nil {
		return nil, err
	}

	row := v1.AdvanceColumns.NewRow().
		Set(v1.PersonName, employee).
		Set(v1.FromLocation, a.FromLocation).
		Set(v1.ToLocation, a.ToLocation).
		Set(v1.StartDate, a.StartDate).
		Set(v1.EndDate, a.EndDate).
		Set(v1.TravelType, a.TravelType).
		Set(v1.Amount, a.Amount.String()).
		Set(v1.Company, a.Company).
		Set(v1.Remarks, a.Remarks)

	receipt, err := s.Writer.SubmitAdvance(ctx, row)
	if err != nil {
		slog.ErrorContext(ctx, "advance submit failed", "employee", employee, "error", err.Error())
		communication.Send(ctx, s.Notifier, "Submission failed", communication.KindError)
		return nil, fmt.Errorf("failed to submit advance: %w", err)
	}
	communication.Send(ctx, s.Notifier, "Advance request submitted successfully!", communication.KindSuccess)
	return receipt, nil
}

// Decide approves or rejects a request awaiting action
func (s *AdvanceService) Decide(ctx context.Context, admin model.Viewer, serial string, status model.AdvanceStatus, remarks string) (*model.AdvanceRequest, error) {
	if !admin.IsAdmin() {
		return nil, ErrNotAdmin
	}
	switch status {
	case model.AdvanceApproved:
	case model.AdvanceRejected:
		if strings.TrimSpace(remarks) == "" {
			return nil, ValidationErrors{"adminRemarks": "Please provide remarks for rejection"}
		}
	default:
		return nil, ValidationErrors{"status": "Please select approve or reject"}
	}

	all, err := s.requests(ctx)
	if err != nil {
		return nil, err
	}
	target := utils.Find(all, func(r model.AdvanceRequest) bool { return r.SerialNumber == serial })
	if target == nil {
		return nil, fmt.Errorf("advance %s: %w", serial, ErrNotFound)
	}
	if !target.AwaitingAction() {
		return nil, ErrAdvanceNotPending
	}

	if _, err := s.Writer.UpdateAdvanceStatus(ctx, target.RowNumber, serial, string(status), remarks, admin.Name); err != nil {
		slog.ErrorContext(ctx, "advance decision failed", "serial", serial, "status", status, "error", err.Error())
		communication.Send(ctx, s.Notifier, "Action failed", communication.KindError)
		return nil, fmt.Errorf("failed to update advance %s: %w", serial, err)
	}

	target.Status = status
	target.AdminRemarks = remarks
	target.ApprovedBy = admin.Name
	communication.Send(ctx, s.Notifier,
		fmt.Sprintf("Request %s successfully!", strings.ToLower(string(status))), communication.KindSuccess)
	return target, nil
}
