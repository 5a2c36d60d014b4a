package core

import (
	"strings"
	"time"

	"zentrix.com/portal/portal/model"
)

// Scope limits reconciliation to one employee unless All is set
type Scope struct {
	Employee string
	All      bool
}

func ScopeFor(v model.Viewer) Scope {
	return Scope{Employee: v.Name, All: v.IsAdmin()}
}

func (s Scope) includes(employee string) bool {
	return s.All || strings.EqualFold(strings.TrimSpace(employee), strings.TrimSpace(s.Employee))
}

// Reconcile builds the monthly summary for now's month. It is a pure
// function of its inputs and is recomputed in full on every call.
func Reconcile(records []model.PunchRecord, now time.Time, scope Scope) model.AttendanceSummary {
	loc := now.Location()

	var current []model.PunchRecord
	for _, r := range records {
		if !scope.includes(r.EmployeeName) {
			continue
		}
		r.Timestamp = r.Timestamp.In(loc)
		if r.Timestamp.Year() != now.Year() || r.Timestamp.Month() != now.Month() {
			continue
		}
		current = append(current, r)
	}

	summary := model.AttendanceSummary{
		Mispunches: []model.MispunchFinding{},
		Days:       GroupDays(current),
	}
	if summary.Days == nil {
		summary.Days = []model.DayAggregate{}
	}

	for i := range summary.Days {
		day := &summary.Days[i]
		complete := IsDayComplete(day.Day, now)
		kind, details := ClassifyDay(*day, complete)
		day.Kind = kind

		summary.TotalIn += day.InCount
		summary.TotalOut += day.OutCount
		switch {
		case day.HasLeave:
			summary.TotalLeave++
		case day.InCount > 0 || day.OutCount > 0:
			summary.TotalPresent++
		}

		if kind.IsMispunch() {
			summary.TotalMispunch++
			summary.Mispunches = append(summary.Mispunches, model.MispunchFinding{
				Employee:    day.Employee,
				Date:        day.Date,
				InCount:     day.InCount,
				OutCount:    day.OutCount,
				Kind:        kind,
				Details:     details,
				DayComplete: complete,
				Punches:     day.Punches,
			})
		}
	}
	return summary
}
