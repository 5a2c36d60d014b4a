package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type VehicleType string

const (
	VehicleCar      VehicleType = "Car"
	VehicleBike     VehicleType = "Bike"
	VehicleBus      VehicleType = "Bus"
	VehicleRentCar  VehicleType = "Rent Car"
	VehicleRentBike VehicleType = "Rent Bike"
)

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleCar, VehicleBike, VehicleBus, VehicleRentCar, VehicleRentBike:
		return true
	}
	return false
}

// UsesMeter is true for own vehicles that log odometer readings
func (v VehicleType) UsesMeter() bool {
	return v == VehicleCar || v == VehicleBike
}

func (v VehicleType) IsRental() bool {
	return v == VehicleRentCar || v == VehicleRentBike
}

// TravelSession is one FMS row. It is open until the OUT phase is written.
type TravelSession struct {
	SerialNumber string    `json:"serialNumber"`
	Timestamp    time.Time `json:"timestamp"`
	PersonName   string    `json:"personName"`
	FromLocation string    `json:"fromLocation"`
	ToLocation   string    `json:"toLocation"`
	TravelDate   string    `json:"travelDate"`

	InVehicleType VehicleType     `json:"inVehicleType"`
	InMeter       float64         `json:"inVehicleMeterNumber"`
	InImages      []string        `json:"inImages"`
	InRemarks     string          `json:"remarks"`
	InAmount      decimal.Decimal `json:"inAmount"`

	OutVehicleType VehicleType     `json:"outVehicleType,omitempty"`
	OutMeter       float64         `json:"outVehicleMeterNumber,omitempty"`
	OutImages      []string        `json:"outImages,omitempty"`
	OutRemarks     string          `json:"outRemarks,omitempty"`
	OutAmount      decimal.Decimal `json:"outAmount"`
	OutTotalAmount decimal.Decimal `json:"outTotalAmount"`
	ReturnDate     string          `json:"returnDate,omitempty"`
	ActualDate     string          `json:"actualDate,omitempty"`
	TotalRunningKm float64         `json:"totalRunningKm"`
}

func (s TravelSession) IsOpen() bool {
	return s.ActualDate == "" && s.ReturnDate == "" && s.OutVehicleType == "" && s.OutMeter == 0 && len(s.OutImages) == 0
}

const PendingOutStatus = "pending_out"

// PendingOut is the locally persisted record of an open session
type PendingOut struct {
	SerialNumber         string          `json:"serialNumber"`
	PersonName           string          `json:"personName"`
	FromLocation         string          `json:"fromLocation"`
	ToLocation           string          `json:"toLocation"`
	TravelDate           string          `json:"travelDate"`
	InVehicleType        VehicleType     `json:"inVehicleType"`
	InVehicleMeterNumber float64         `json:"inVehicleMeterNumber"`
	InAmount             decimal.Decimal `json:"inAmount"`
	Remarks              string          `json:"remarks"`
	CreatedAt            time.Time       `json:"createdAt"`
	Status               string          `json:"status"`
}

// PendingFromSession rebuilds the local record from a log row
func PendingFromSession(s TravelSession) PendingOut {
	return PendingOut{
		SerialNumber:         s.SerialNumber,
		PersonName:           s.PersonName,
		FromLocation:         s.FromLocation,
		ToLocation:           s.ToLocation,
		TravelDate:           s.TravelDate,
		InVehicleType:        s.InVehicleType,
		InVehicleMeterNumber: s.InMeter,
		InAmount:             s.InAmount,
		Remarks:              s.InRemarks,
		CreatedAt:            s.Timestamp,
		Status:               PendingOutStatus,
	}
}
