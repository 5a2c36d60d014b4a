package core

import (
	"fmt"
	"time"

	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/utils"
)

// IsDayComplete reports whether now is past the last millisecond of day,
// both taken in now's location
func IsDayComplete(day, now time.Time) bool {
	return now.After(utils.EndOfDay(day.In(now.Location())))
}

// ClassifyDay applies the mispunch rules to one employee-day.
// Leave always wins over punch counts.
func ClassifyDay(day model.DayAggregate, complete bool) (model.DayKind, string) {
	in, out := day.InCount, day.OutCount
	switch {
	case day.HasLeave:
		return model.DayLeave, ""
	case in == 0 && out == 0:
		return model.DayAbsent, ""
	case in == out:
		return model.DayComplete, ""
	case in > out && !complete:
		return model.DayInProgress, fmt.Sprintf("%d IN vs %d OUT - Day in progress", in, out)
	case in > out:
		return model.DayMissingOut, fmt.Sprintf("%d IN vs %d OUT - Missing %d OUT punch(es)", in, out, in-out)
	default:
		return model.DayInvalid, fmt.Sprintf("%d IN vs %d OUT - Invalid: More OUT than IN punches", in, out)
	}
}
