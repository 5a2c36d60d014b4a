package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/portal/model"
	v1 "zentrix.com/portal/sheets/v1"
	"zentrix.com/portal/utils"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

func (l Location) MapLink() string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%v,%v", l.Latitude, l.Longitude)
}

type PunchSubmission struct {
	Status    model.PunchStatus
	StartDate string
	EndDate   string
	Reason    string
	Location  *Location
	// LocationErrorCode is the device's failure code when no location was obtained
	LocationErrorCode int
}

type PunchService struct {
	Attendance *AttendanceService
	Writer     RowInserter
	Notifier   communication.Notifier

	locks keyedMutex
}

// CalculateDistance returns the great-circle distance in metres
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	R := 6371.0 // Earth's radius in kilometers
	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	Δφ := (lat2 - lat1) * math.Pi / 180.0
	Δλ := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c * 1000
}

func validatePunch(sub PunchSubmission) error {
	errs := ValidationErrors{}
	switch sub.Status {
	case model.PunchIn, model.PunchOut:
	case model.PunchLeave:
		if sub.StartDate == "" {
			errs.add("startDate", "Start date is required")
		}
		if sub.StartDate != "" && sub.EndDate != "" && sub.EndDate < sub.StartDate {
			errs.add("endDate", "End date cannot be before start date")
		}
		if sub.Reason == "" {
			errs.add("reason", "Reason is required for leave")
		}
	default:
		errs.add("status", "Status is required")
	}
	return errs.orNil()
}

// checkDayRules applies the one IN / one OUT per day rules
func checkDayRules(status model.PunchStatus, today *TodayStatus) error {
	switch status {
	case model.PunchIn:
		if today.HasIn {
			return ValidationErrors{"status": "Today Already in"}
		}
	case model.PunchOut:
		if !today.HasIn {
			return ValidationErrors{"status": "First In"}
		}
		if today.HasOut {
			return ValidationErrors{"status": "Today Already out"}
		}
	}
	return nil
}

// checkGeofence keeps In Office employees within their office radius
func checkGeofence(employee model.Employee, loc Location) error {
	if employee.EmployeeType != model.InOffice {
		return nil
	}
	if employee.OfficeLat == 0 || employee.OfficeLong == 0 || employee.OfficeRange == 0 {
		return ValidationErrors{"location": "Office location settings missing for In Office employee."}
	}
	distance := CalculateDistance(loc.Latitude, loc.Longitude, employee.OfficeLat, employee.OfficeLong)
	if distance > employee.OfficeRange {
		return ValidationErrors{"location": fmt.Sprintf("You are out of office range (%dm). Allowed: %sm",
			int(math.Round(distance)), utils.FormatNumber(employee.OfficeRange))}
	}
	return nil
}

// Submit records an IN, OUT or Leave punch for employee
func (p *PunchService) Submit(ctx context.Context, employee model.Employee, sub PunchSubmission) (*model.PunchRecord, error) {
	if err := validatePunch(sub); err != nil {
		return nil, err
	}

	unlock := p.locks.Lock("punch:" + employee.Name)
	defer unlock()

	now := p.Attendance.now()

	if sub.Status != model.PunchLeave {
		today, err := p.Attendance.Today(ctx, employee.Name)
		if err != nil {
			return nil, err
		}
		if err := checkDayRules(sub.Status, today); err != nil {
			return nil, err
		}
	}

	if sub.LocationErrorCode != 0 {
		return nil, &LocationError{Code: sub.LocationErrorCode}
	}
	if sub.Location == nil {
		return nil, ValidationErrors{"location": "Location is required"}
	}
	if err := checkGeofence(employee, *sub.Location); err != nil {
		return nil, err
	}

	loc := p.Attendance.location()
	record := model.PunchRecord{
		EmployeeName: employee.Name,
		Timestamp:    now,
		Status:       sub.Status,
		Reason:       sub.Reason,
		Latitude:     sub.Location.Latitude,
		Longitude:    sub.Location.Longitude,
		MapLink:      sub.Location.MapLink(),
		Address:      sub.Location.Address,
	}

	row := v1.AttendanceColumns.NewRow().
		Set(v1.Timestamp, utils.FormatDateTime(now)).
		Set(v1.PunchStatus, string(sub.Status)).
		Set(v1.Reason, sub.Reason).
		Set(v1.Latitude, sub.Location.Latitude).
		Set(v1.Longitude, sub.Location.Longitude).
		Set(v1.MapLink, record.MapLink).
		Set(v1.Address, sub.Location.Address).
		Set(v1.PersonName, employee.Name)

	if sub.Status == model.PunchLeave {
		start, err := utils.ParseDate(sub.StartDate, loc)
		if err != nil {
			return nil, ValidationErrors{"startDate": "Start date is invalid"}
		}
		row.Set(v1.PunchDateTime, utils.FormatDateTime(start))
		if sub.EndDate != "" {
			end, err := utils.ParseDate(sub.EndDate, loc)
			if err != nil {
				return nil, ValidationErrors{"endDate": "End date is invalid"}
			}
			row.Set(v1.LeaveEnd, utils.FormatDateTime(end))
			record.LeaveEnd = &end
		}
	} else {
		row.Set(v1.PunchDateTime, utils.FormatDateTime(now))
	}

	if _, err := p.Writer.Insert(ctx, row); err != nil {
		slog.ErrorContext(ctx, "punch write failed", "employee", employee.Name, "status", sub.Status, "error", err.Error())
		communication.Send(ctx, p.Notifier, "Error submitting attendance. Please try again.", communication.KindError)
		return nil, fmt.Errorf("failed to submit punch: %w", err)
	}

	msg := "Leave application submitted successfully!"
	switch sub.Status {
	case model.PunchIn:
		msg = "Check-in successful!"
	case model.PunchOut:
		msg = "Check-out successful!"
	}
	communication.Send(ctx, p.Notifier, msg, communication.KindSuccess)
	return &record, nil
}
