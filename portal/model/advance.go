package model

import "github.com/shopspring/decimal"

type AdvanceStatus string

const (
	AdvancePending  AdvanceStatus = "Pending"
	AdvanceApproved AdvanceStatus = "Approved"
	AdvanceRejected AdvanceStatus = "Rejected"
)

type AdvanceRequest struct {
	RowNumber    int             `json:"rowNumber"`
	Timestamp    string          `json:"timestamp"`
	SerialNumber string          `json:"serialNumber"`
	PersonName   string          `json:"personName"`
	FromLocation string          `json:"fromLocation"`
	ToLocation   string          `json:"toLocation"`
	StartDate    string          `json:"startDate"`
	EndDate      string          `json:"endDate"`
	TravelType   string          `json:"travelType"`
	Amount       decimal.Decimal `json:"advanceAmount"`
	Company      string          `json:"companyName"`
	Remarks      string          `json:"remarks"`
	Planned      string          `json:"planned"`
	Actual       string          `json:"actual"`
	Status       AdvanceStatus   `json:"status"`
	AdminRemarks string          `json:"adminRemarks"`
	ApprovedBy   string          `json:"approvedBy"`
}

// AwaitingAction is true while an admin decision is outstanding
func (a AdvanceRequest) AwaitingAction() bool {
	return a.Planned != "" && a.Actual == ""
}

func (a AdvanceRequest) Completed() bool {
	return a.Planned != "" && a.Actual != ""
}
