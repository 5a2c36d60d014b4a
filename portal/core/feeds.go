package core

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"zentrix.com/portal/portal/model"
	v1 "zentrix.com/portal/sheets/v1"
)

// FeedReader reads all rows of a named sheet
type FeedReader interface {
	Rows(ctx context.Context, sheet string) ([]v1.Row, error)
}

// RowInserter appends rows through the gateway
type RowInserter interface {
	Insert(ctx context.Context, row *v1.RowData) (*v1.Receipt, error)
}

var serialPattern = regexp.MustCompile(`^TI-(\d+)$`)

// ParsePunches maps Attendance rows to punch records. Rows without a
// recognisable status, time or employee are skipped.
func ParsePunches(rows []v1.Row, loc *time.Location) []model.PunchRecord {
	s := v1.AttendanceColumns
	records := make([]model.PunchRecord, 0, len(rows))
	for _, row := range rows {
		status, ok := model.ParsePunchStatus(row.Get(s, v1.PunchStatus))
		if !ok {
			continue
		}
		name := row.Get(s, v1.PersonName)
		if name == "" {
			continue
		}
		ts, ok := punchTime(row, loc)
		if !ok {
			continue
		}

		rec := model.PunchRecord{
			EmployeeName: name,
			Timestamp:    ts,
			Status:       status,
			Reason:       row.Get(s, v1.Reason),
			Latitude:     row.Number(s, v1.Latitude),
			Longitude:    row.Number(s, v1.Longitude),
			MapLink:      row.Get(s, v1.MapLink),
			Address:      row.Get(s, v1.Address),
		}
		if end, ok := row.TimeOf(s, v1.LeaveEnd, loc); ok {
			rec.LeaveEnd = &end
		}
		records = append(records, rec)
	}
	return records
}

// the submission timestamp wins when the sheet stored it as a date cell
func punchTime(row v1.Row, loc *time.Location) (time.Time, bool) {
	s := v1.AttendanceColumns
	if raw := row.Get(s, v1.Timestamp); v1.IsDateMarker(raw) {
		if t, err := v1.ParseDateMarker(raw, loc); err == nil {
			return t, true
		}
	}
	if t, ok := row.TimeOf(s, v1.PunchDateTime, loc); ok {
		return t, true
	}
	return row.TimeOf(s, v1.Timestamp, loc)
}

// ParseSessions maps FMS rows to travel sessions. Rows without a
// TI- serial are skipped.
func ParseSessions(rows []v1.Row, loc *time.Location) []model.TravelSession {
	s := v1.FMSColumns
	sessions := make([]model.TravelSession, 0, len(rows))
	for _, row := range rows {
		serial := row.Get(s, v1.SerialNumber)
		if !serialPattern.MatchString(serial) {
			continue
		}
		ts, _ := row.TimeOf(s, v1.Timestamp, loc)

		sessions = append(sessions, model.TravelSession{
			SerialNumber:   serial,
			Timestamp:      ts,
			PersonName:     row.Get(s, v1.PersonName),
			FromLocation:   row.Get(s, v1.FromLocation),
			ToLocation:     row.Get(s, v1.ToLocation),
			TravelDate:     dateCell(row, s, v1.TravelDate, loc),
			InVehicleType:  model.VehicleType(row.Get(s, v1.InVehicleType)),
			InMeter:        row.Number(s, v1.InMeter),
			InImages:       splitImages(row.Get(s, v1.InImages)),
			InRemarks:      row.Get(s, v1.Remarks),
			InAmount:       amountCell(row, s, v1.InAmount),
			OutVehicleType: model.VehicleType(row.Get(s, v1.OutVehicleType)),
			OutMeter:       row.Number(s, v1.OutMeter),
			OutImages:      splitImages(row.Get(s, v1.OutImages)),
			OutRemarks:     row.Get(s, v1.OutRemarks),
			OutAmount:      amountCell(row, s, v1.OutAmount),
			OutTotalAmount: amountCell(row, s, v1.OutTotalAmount),
			ReturnDate:     dateCell(row, s, v1.ReturnDate, loc),
			ActualDate:     dateCell(row, s, v1.ActualDate, loc),
			TotalRunningKm: row.Number(s, v1.RunningKm),
		})
	}
	return sessions
}

// isAdvanceHeader reports a header row: its amount cell carries text
func isAdvanceHeader(row v1.Row) bool {
	raw := row.Get(v1.AdvanceColumns, v1.Amount)
	if raw == "" {
		return false
	}
	_, err := decimal.NewFromString(raw)
	return err != nil
}

// ParseAdvances maps Advance rows. RowNumber is the 1-based sheet row.
// The feed usually drops the header row; when it does not, the header
// is its first row.
func ParseAdvances(rows []v1.Row) []model.AdvanceRequest {
	s := v1.AdvanceColumns
	offset := 2
	if len(rows) > 0 && isAdvanceHeader(rows[0]) {
		offset = 1
	}
	requests := make([]model.AdvanceRequest, 0, len(rows))
	for i, row := range rows {
		req := model.AdvanceRequest{
			RowNumber:    i + offset,
			Timestamp:    row.Get(s, v1.Timestamp),
			SerialNumber: row.Get(s, v1.SerialNumber),
			PersonName:   row.Get(s, v1.PersonName),
			FromLocation: row.Get(s, v1.FromLocation),
			ToLocation:   row.Get(s, v1.ToLocation),
			StartDate:    row.Get(s, v1.StartDate),
			EndDate:      row.Get(s, v1.EndDate),
			TravelType:   row.Get(s, v1.TravelType),
			Amount:       amountCell(row, s, v1.Amount),
			Company:      row.Get(s, v1.Company),
			Remarks:      row.Get(s, v1.Remarks),
			Planned:      row.Get(s, v1.Planned),
			Actual:       row.Get(s, v1.Actual),
			Status:       model.AdvanceStatus(row.Get(s, v1.Status)),
			AdminRemarks: row.Get(s, v1.AdminRemarks),
			ApprovedBy:   row.Get(s, v1.ApprovedBy),
		}
		if req.SerialNumber == "" || req.PersonName == "" || req.FromLocation == "" || req.ToLocation == "" {
			continue
		}
		if isAdvanceHeader(row) {
			continue
		}
		if req.Status == "" {
			req.Status = model.AdvancePending
		}
		requests = append(requests, req)
	}
	return requests
}

func ParseEmployees(rows []v1.Row) []model.Employee {
	s := v1.MasterColumns
	employees := make([]model.Employee, 0, len(rows))
	for _, row := range rows {
		username := row.Get(s, v1.Username)
		if username == "" {
			continue
		}
		name := row.Get(s, v1.Name)
		if name == "" {
			name = "Unknown Sales Person"
		}
		role := row.Get(s, v1.Role)
		if role == "" {
			role = model.RoleUser
		}
		employees = append(employees, model.Employee{
			Name:         name,
			Username:     username,
			Password:     row.Get(s, v1.Password),
			Role:         role,
			Tabs:         model.ParseAccess(row.Get(s, v1.Access)),
			EmployeeType: row.Get(s, v1.EmployeeType),
			OfficeLat:    row.Number(s, v1.OfficeLat),
			OfficeLong:   row.Number(s, v1.OfficeLong),
			OfficeRange:  row.Number(s, v1.OfficeRange),
		})
	}
	return employees
}

func splitImages(cell string) []string {
	if cell == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(cell, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func amountCell(row v1.Row, s *v1.Schema, f v1.Field) decimal.Decimal {
	d, err := decimal.NewFromString(row.Get(s, f))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// dateCell normalises a date column to yyyy-mm-dd when it parses
func dateCell(row v1.Row, s *v1.Schema, f v1.Field, loc *time.Location) string {
	raw := row.Get(s, f)
	if raw == "" {
		return ""
	}
	t, err := v1.ParseCellTime(raw, loc)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}
