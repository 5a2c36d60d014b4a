package core

import (
	"sort"
	"time"

	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/utils"
)

// GroupDays buckets punches by employee and local calendar day.
// Timestamps are expected to be in the reconciliation zone already.
func GroupDays(records []model.PunchRecord) []model.DayAggregate {
	var days []model.DayAggregate
	dategroups := utils.GroupBy(records, func(r model.PunchRecord) string { return utils.FormatDay(r.Timestamp) })

	for date, recs := range dategroups {
		employeegroups := utils.GroupBy(recs, func(r model.PunchRecord) string { return r.EmployeeName })
		for employee, punches := range employeegroups {
			sort.SliceStable(punches, func(i, j int) bool {
				return punches[i].Timestamp.Before(punches[j].Timestamp)
			})

			first := punches[0].Timestamp
			day := model.DayAggregate{
				Employee: employee,
				Date:     date,
				Day:      time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location()),
				Punches:  punches,
			}
			for _, p := range punches {
				switch p.Status {
				case model.PunchIn:
					day.InCount++
				case model.PunchOut:
					day.OutCount++
				case model.PunchLeave:
					day.LeaveCount++
				}
			}
			day.HasLeave = day.LeaveCount > 0
			days = append(days, day)
		}
	}

	sort.Slice(days, func(i, j int) bool {
		if !days[i].Day.Equal(days[j].Day) {
			return days[i].Day.Before(days[j].Day)
		}
		return days[i].Employee < days[j].Employee
	})
	return days
}
