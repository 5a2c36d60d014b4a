package core

import (
	"strings"

	"github.com/shopspring/decimal"

	"zentrix.com/portal/portal/model"
)

type InSubmission struct {
	FromLocation string
	ToLocation   string
	TravelDate   string
	VehicleType  model.VehicleType
	MeterNumber  float64
	Amount       decimal.Decimal
	Remarks      string
	MeterImage   *Attachment
	// Receipt is the bus ticket or the rental bill
	Receipt *Attachment
}

type OutSubmission struct {
	ReturnDate  string
	VehicleType model.VehicleType
	MeterNumber float64
	Amount      decimal.Decimal
	Remarks     string
	MeterImage  *Attachment
	Receipt     *Attachment
}

func ValidateIn(in InSubmission) error {
	errs := ValidationErrors{}
	if strings.TrimSpace(in.FromLocation) == "" {
		errs.add("fromLocation", "From location is required")
	}
	if strings.TrimSpace(in.ToLocation) == "" {
		errs.add("toLocation", "To location is required")
	}
	if in.TravelDate == "" {
		errs.add("travelDate", "Travel date is required")
	}

	switch {
	case in.VehicleType == "":
		errs.add("inVehicleType", "IN vehicle type is required")
	case !in.VehicleType.Valid():
		errs.add("inVehicleType", "IN vehicle type is invalid")
	case in.VehicleType.UsesMeter():
		if in.MeterNumber <= 0 {
			errs.add("inVehicleMeterNumber", "Vehicle meter number is required")
		}
		if in.MeterImage == nil {
			errs.add("inVehicleMeterImage", "Vehicle meter image is required")
		}
	case in.VehicleType == model.VehicleBus:
		if in.Receipt == nil {
			errs.add("inBusTicketImage", "Bus ticket image is required")
		}
		if !in.Amount.IsPositive() {
			errs.add("inBusAmount", "Bus amount is required")
		}
	case in.VehicleType.IsRental():
		if in.Receipt == nil {
			errs.add("inBillReceipt", "Bill receipt is required")
		}
		if !in.Amount.IsPositive() {
			errs.add("inRentAmount", "Rent amount is required")
		}
	}

	in.MeterImage.check("inVehicleMeterImage", errs)
	in.Receipt.check(receiptField("in", in.VehicleType), errs)
	return errs.orNil()
}

// ValidateOut checks the OUT form against the open session
func ValidateOut(out OutSubmission, pending model.PendingOut) error {
	errs := ValidationErrors{}
	if out.ReturnDate == "" {
		errs.add("returnDate", "Return date is required")
	}

	vehicle := out.VehicleType
	if vehicle == "" {
		vehicle = pending.InVehicleType
	}

	switch {
	case !vehicle.Valid():
		errs.add("outVehicleType", "OUT vehicle type is invalid")
	case vehicle.UsesMeter():
		if out.MeterNumber <= 0 {
			errs.add("outVehicleMeterNumber", "OUT vehicle meter number is required")
		}
		if out.MeterImage == nil {
			errs.add("outVehicleMeterImage", "OUT vehicle meter image is required")
		}
		inMeter := pending.InVehicleMeterNumber
		if out.MeterNumber > 0 && inMeter > 0 && out.MeterNumber <= inMeter {
			errs["outVehicleMeterNumber"] = "OUT meter number should be greater than IN meter number"
		}
	case vehicle == model.VehicleBus:
		if out.Receipt == nil {
			errs.add("outBusTicketImage", "OUT bus ticket image is required")
		}
		if !out.Amount.IsPositive() {
			errs.add("outBusAmount", "OUT bus amount is required")
		}
	case vehicle.IsRental():
		if out.Receipt == nil {
			errs.add("outBillReceipt", "OUT bill receipt is required")
		}
		if !out.Amount.IsPositive() {
			errs.add("outRentAmount", "OUT rent amount is required")
		}
	}

	out.MeterImage.check("outVehicleMeterImage", errs)
	out.Receipt.check(receiptField("out", vehicle), errs)
	return errs.orNil()
}

func receiptField(phase string, v model.VehicleType) string {
	if v == model.VehicleBus {
		return phase + "BusTicketImage"
	}
	return phase + "BillReceipt"
}
