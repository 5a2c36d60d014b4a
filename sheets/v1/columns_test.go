package v1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowDataPositions(t *testing.T) {
	row := FMSColumns.NewRow().
		Set(SerialNumber, "TI-008").
		Set(PersonName, "Asha").
		Set(OutTotalAmount, "120")

	values := row.Values()
	require.Len(t, values, 21)
	assert.Equal(t, "TI-008", values[1])
	assert.Equal(t, "Asha", values[2])
	assert.Equal(t, "120", values[20])
	assert.Equal(t, "", values[13])

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])
}

func TestRowDataRoundTripThroughRow(t *testing.T) {
	written := AttendanceColumns.NewRow().
		Set(PunchStatus, "OUT").
		Set(PersonName, "Ravi")

	cells := make([]*Cell, 0, AttendanceColumns.Width)
	for _, v := range written.Values() {
		cells = append(cells, &Cell{V: v})
	}
	read := Row{C: cells}

	assert.Equal(t, "OUT", read.Get(AttendanceColumns, PunchStatus))
	assert.Equal(t, "Ravi", read.Get(AttendanceColumns, PersonName))
}

func TestRowDataSpan(t *testing.T) {
	row := AdvanceColumns.NewRow().
		Set(Timestamp, "01/03/2024 09:00:00").
		Set(PersonName, "Asha").
		Set(Remarks, "site visit").
		Set(Status, "Pending")

	span := row.Span(SerialNumber, Remarks)
	assert.Len(t, span.Values(), 10)
	assert.Equal(t, "", span.Values()[0])
	assert.Equal(t, "Asha", span.Value(PersonName))
	assert.Equal(t, "site visit", span.Value(Remarks))
	assert.Nil(t, span.Value(Status))
	assert.Nil(t, span.Value(Timestamp))
}

func TestSchemaUnknownField(t *testing.T) {
	assert.Equal(t, -1, MasterColumns.Index(OutMeter))
	assert.Panics(t, func() { MasterColumns.NewRow().Set(OutMeter, 1) })
}
