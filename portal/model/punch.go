package model

import (
	"strings"
	"time"
)

type PunchStatus string

const (
	PunchIn    PunchStatus = "IN"
	PunchOut   PunchStatus = "OUT"
	PunchLeave PunchStatus = "Leave"
)

func ParsePunchStatus(s string) (PunchStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return PunchIn, true
	case "out":
		return PunchOut, true
	case "leave":
		return PunchLeave, true
	}
	return "", false
}

// PunchRecord is one Attendance sheet row. Records are never deduplicated.
type PunchRecord struct {
	EmployeeName string      `json:"employeeName"`
	Timestamp    time.Time   `json:"timestamp"`
	Status       PunchStatus `json:"status"`
	LeaveEnd     *time.Time  `json:"leaveEnd,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	Latitude     float64     `json:"latitude,omitempty"`
	Longitude    float64     `json:"longitude,omitempty"`
	MapLink      string      `json:"mapLink,omitempty"`
	Address      string      `json:"address,omitempty"`
}
