package v1

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field is the logical name of a sheet column
type Field string

const (
	Timestamp    Field = "timestamp"
	SerialNumber Field = "serialNumber"
	PersonName   Field = "personName"
	FromLocation Field = "fromLocation"
	ToLocation   Field = "toLocation"
	Remarks      Field = "remarks"

	// Attendance
	PunchDateTime Field = "dateTime"
	LeaveEnd      Field = "leaveEnd"
	PunchStatus   Field = "status"
	Reason        Field = "reason"
	Latitude      Field = "latitude"
	Longitude     Field = "longitude"
	MapLink       Field = "mapLink"
	Address       Field = "address"

	// FMS
	InVehicleType       Field = "inVehicleType"
	InMeter             Field = "inMeter"
	RunningKm           Field = "totalRunningKm"
	InImages            Field = "inImages"
	TravelDate          Field = "travelDate"
	InAmount            Field = "inAmount"
	OutAmount           Field = "outAmount"
	ActualDate          Field = "actualDate"
	ReturnDateFormatted Field = "returnDateFormatted"
	ReturnDate          Field = "returnDate"
	OutVehicleType      Field = "outVehicleType"
	OutMeter            Field = "outMeter"
	OutImages           Field = "outImages"
	OutRemarks          Field = "outRemarks"
	OutTotalAmount      Field = "outTotalAmount"

	// Advance
	StartDate    Field = "startDate"
	EndDate      Field = "endDate"
	TravelType   Field = "travelType"
	Amount       Field = "amount"
	Company      Field = "company"
	Planned      Field = "planned"
	Actual       Field = "actual"
	Status       Field = "advanceStatus"
	AdminRemarks Field = "adminRemarks"
	ApprovedBy   Field = "approvedBy"

	// Master
	Name         Field = "name"
	Username     Field = "username"
	Password     Field = "password"
	Role         Field = "role"
	Access       Field = "access"
	EmployeeType Field = "employeeType"
	OfficeLat    Field = "officeLat"
	OfficeLong   Field = "officeLong"
	OfficeRange  Field = "officeRange"
)

// Schema maps named fields to column positions of one sheet.
// Readers and writers share it so a column move is a one line change.
type Schema struct {
	Sheet   string
	Width   int
	indexes map[Field]int
}

func NewSchema(sheet string, width int, columns map[Field]int) *Schema {
	for f, i := range columns {
		if i < 0 || i >= width {
			panic(fmt.Sprintf("schema %s: column %s at %d outside width %d", sheet, f, i, width))
		}
	}
	return &Schema{Sheet: sheet, Width: width, indexes: columns}
}

// Index returns the column of f or -1 when the sheet does not carry it
func (s *Schema) Index(f Field) int {
	if i, ok := s.indexes[f]; ok {
		return i
	}
	return -1
}

var AttendanceColumns = NewSchema("Attendance", 10, map[Field]int{
	Timestamp:     0,
	PunchDateTime: 1,
	LeaveEnd:      2,
	PunchStatus:   3,
	Reason:        4,
	Latitude:      5,
	Longitude:     6,
	MapLink:       7,
	Address:       8,
	PersonName:    9,
})

var FMSColumns = NewSchema("FMS", 21, map[Field]int{
	Timestamp:           0,
	SerialNumber:        1,
	PersonName:          2,
	FromLocation:        3,
	ToLocation:          4,
	InVehicleType:       5,
	InMeter:             6,
	RunningKm:           7,
	InImages:            8,
	TravelDate:          9,
	Remarks:             10,
	InAmount:            11,
	OutAmount:           12,
	ActualDate:          13,
	ReturnDateFormatted: 14,
	ReturnDate:          15,
	OutVehicleType:      16,
	OutMeter:            17,
	OutImages:           18,
	OutRemarks:          19,
	OutTotalAmount:      20,
})

var AdvanceColumns = NewSchema("Advance", 17, map[Field]int{
	Timestamp:    0,
	SerialNumber: 1,
	PersonName:   2,
	FromLocation: 3,
	ToLocation:   4,
	StartDate:    5,
	EndDate:      6,
	TravelType:   7,
	Amount:       8,
	Company:      9,
	Remarks:      10,
	Planned:      11,
	Actual:       12,
	Status:       14,
	AdminRemarks: 15,
	ApprovedBy:   16,
})

var MasterColumns = NewSchema("Master", 9, map[Field]int{
	Name:         0,
	Username:     1,
	Password:     2,
	Role:         3,
	Access:       4,
	EmployeeType: 5,
	OfficeLat:    6,
	OfficeLong:   7,
	OfficeRange:  8,
})

func (r Row) Get(s *Schema, f Field) string {
	return r.String(s.Index(f))
}

func (r Row) Number(s *Schema, f Field) float64 {
	return r.Float(s.Index(f))
}

func (r Row) TimeOf(s *Schema, f Field, loc *time.Location) (time.Time, bool) {
	return r.Time(s.Index(f), loc)
}

// RowData is a positional row being written through the gateway.
// Unset columns are sent as "".
type RowData struct {
	schema *Schema
	offset int
	values []any
}

func (s *Schema) NewRow() *RowData {
	values := make([]any, s.Width)
	for i := range values {
		values[i] = ""
	}
	return &RowData{schema: s, values: values}
}

func (d *RowData) index(f Field) int {
	i := d.schema.Index(f) - d.offset
	if i < 0 || i >= len(d.values) {
		return -1
	}
	return i
}

func (d *RowData) Set(f Field, v any) *RowData {
	i := d.index(f)
	if i < 0 {
		panic(fmt.Sprintf("schema %s has no column %s", d.schema.Sheet, f))
	}
	d.values[i] = v
	return d
}

func (d *RowData) Value(f Field) any {
	i := d.index(f)
	if i < 0 {
		return nil
	}
	return d.values[i]
}

func (d *RowData) Values() []any {
	return d.values
}

func (d *RowData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.values)
}

// Span returns the columns from first through last inclusive
func (d *RowData) Span(first, last Field) *RowData {
	i, j := d.index(first), d.index(last)
	if i < 0 || j < i {
		return d
	}
	return &RowData{schema: d.schema, offset: d.offset + i, values: d.values[i : j+1]}
}
