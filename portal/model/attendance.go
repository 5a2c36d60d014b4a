package model

import "time"

// DayAggregate holds the punches of one employee on one local calendar day
type DayAggregate struct {
	Employee   string        `json:"employee"`
	Date       string        `json:"date"`
	Day        time.Time     `json:"-"`
	InCount    int           `json:"inCount"`
	OutCount   int           `json:"outCount"`
	LeaveCount int           `json:"leaveCount"`
	HasLeave   bool          `json:"hasLeave"`
	Kind       DayKind       `json:"kind"`
	Punches    []PunchRecord `json:"punches"`
}

type DayKind string

const (
	DayLeave      DayKind = "leave"
	DayAbsent     DayKind = "absent"
	DayComplete   DayKind = "complete"
	DayInProgress DayKind = "in_progress"
	DayMissingOut DayKind = "missing_out"
	DayInvalid    DayKind = "invalid"
)

func (k DayKind) IsMispunch() bool {
	return k == DayMissingOut || k == DayInvalid
}

type MispunchFinding struct {
	Employee    string        `json:"employee"`
	Date        string        `json:"date"`
	InCount     int           `json:"inCount"`
	OutCount    int           `json:"outCount"`
	Kind        DayKind       `json:"kind"`
	Details     string        `json:"details"`
	DayComplete bool          `json:"dayComplete"`
	Punches     []PunchRecord `json:"punches"`
}

type AttendanceSummary struct {
	TotalPresent  int               `json:"totalPresent"`
	TotalLeave    int               `json:"totalLeave"`
	TotalIn       int               `json:"totalIn"`
	TotalOut      int               `json:"totalOut"`
	TotalMispunch int               `json:"totalMispunch"`
	Mispunches    []MispunchFinding `json:"mispunchDetails"`
	Days          []DayAggregate    `json:"days"`
}
