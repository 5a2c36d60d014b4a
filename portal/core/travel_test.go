package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/portal/model"
	v1 "zentrix.com/portal/sheets/v1"
	"zentrix.com/portal/utils"
)

func TestNextSerial(t *testing.T) {
	tests := []struct {
		name     string
		serials  []string
		expected string
	}{
		{name: "Empty log", expected: "TI-001"},
		{name: "Highest wins", serials: []string{"TI-001", "TI-007", "TI-003"}, expected: "TI-008"},
		{name: "Malformed ignored", serials: []string{"TI-abc", "X-9", "TI-0", " TI-004"}, expected: "TI-001"},
		{name: "Past three digits", serials: []string{"TI-999"}, expected: "TI-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextSerial(tt.serials))
		})
	}
}

func TestRunningKm(t *testing.T) {
	tests := []struct {
		name    string
		in, out float64
		km      float64
	}{
		{name: "Forward", in: 1000, out: 1050, km: 50},
		{name: "Backward", in: 1000, out: 900, km: 0},
		{name: "Same", in: 1000, out: 1000, km: 0},
		{name: "No IN reading", in: 0, out: 1050, km: 0},
		{name: "No OUT reading", in: 1000, out: 0, km: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.km, RunningKm(tt.in, tt.out))
		})
	}
}

func image(name string) *Attachment {
	return &Attachment{FileName: name, MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}}
}

func TestValidateIn(t *testing.T) {
	base := InSubmission{FromLocation: "Pune", ToLocation: "Mumbai", TravelDate: "2024-03-15"}

	tests := []struct {
		name   string
		modify func(in *InSubmission)
		fields []string
	}{
		{
			name: "Car with meter",
			modify: func(in *InSubmission) {
				in.VehicleType, in.MeterNumber, in.MeterImage = model.VehicleCar, 1000, image("m.jpg")
			},
		},
		{
			name:   "Car without meter",
			modify: func(in *InSubmission) { in.VehicleType = model.VehicleCar },
			fields: []string{"inVehicleMeterImage", "inVehicleMeterNumber"},
		},
		{
			name:   "Bus without ticket or amount",
			modify: func(in *InSubmission) { in.VehicleType = model.VehicleBus },
			fields: []string{"inBusAmount", "inBusTicketImage"},
		},
		{
			name: "Rental with bill",
			modify: func(in *InSubmission) {
				in.VehicleType, in.Receipt, in.Amount = model.VehicleRentCar, image("bill.png"), decimal.NewFromInt(800)
			},
		},
		{
			name: "Receipt not an image",
			modify: func(in *InSubmission) {
				in.VehicleType, in.Amount = model.VehicleRentBike, decimal.NewFromInt(300)
				in.Receipt = &Attachment{FileName: "bill.pdf", MimeType: "application/pdf"}
			},
			fields: []string{"inBillReceipt"},
		},
		{
			name: "Oversized meter image",
			modify: func(in *InSubmission) {
				in.VehicleType, in.MeterNumber = model.VehicleBike, 20
				in.MeterImage = &Attachment{FileName: "m.jpg", MimeType: "image/jpeg", Data: make([]byte, MaxAttachmentSize+1)}
			},
			fields: []string{"inVehicleMeterImage"},
		},
		{
			name: "Missing locations",
			modify: func(in *InSubmission) {
				in.FromLocation, in.ToLocation = " ", ""
				in.VehicleType, in.Receipt, in.Amount = model.VehicleBus, image("t.jpg"), decimal.NewFromInt(50)
			},
			fields: []string{"fromLocation", "toLocation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.modify(&in)
			err := ValidateIn(in)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			for _, f := range tt.fields {
				assert.Contains(t, verrs, f)
			}
			assert.Len(t, verrs, len(tt.fields))
		})
	}
}

func TestValidateOutMeterMustAdvance(t *testing.T) {
	pending := model.PendingOut{SerialNumber: "TI-008", InVehicleType: model.VehicleCar, InVehicleMeterNumber: 1000}
	out := OutSubmission{ReturnDate: "2024-03-15", MeterNumber: 900, MeterImage: image("m.jpg")}

	err := ValidateOut(out, pending)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "OUT meter number should be greater than IN meter number", verrs["outVehicleMeterNumber"])

	out.MeterNumber = 1050
	assert.NoError(t, ValidateOut(out, pending))
}

func TestValidateOutVehicleSwitch(t *testing.T) {
	pending := model.PendingOut{InVehicleType: model.VehicleCar, InVehicleMeterNumber: 1000}
	out := OutSubmission{ReturnDate: "2024-03-15", VehicleType: model.VehicleBus}

	var verrs ValidationErrors
	require.ErrorAs(t, ValidateOut(out, pending), &verrs)
	assert.Contains(t, verrs, "outBusTicketImage")
	assert.Contains(t, verrs, "outBusAmount")
	assert.NotContains(t, verrs, "outVehicleMeterNumber")
}

func TestPendingSlots(t *testing.T) {
	ctx := context.Background()
	primary, backup := newMapSlots(), newMapSlots()
	slots := &PendingSlots{Primary: primary, Backup: backup}
	pending := model.PendingOut{SerialNumber: "TI-008", PersonName: "Asha", InAmount: decimal.RequireFromString("120.50"), Status: model.PendingOutStatus}

	t.Run("Round trip", func(t *testing.T) {
		require.NoError(t, slots.Save(ctx, "Asha", pending))
		got, err := slots.Load(ctx, "Asha")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "TI-008", got.SerialNumber)
		assert.True(t, pending.InAmount.Equal(got.InAmount))
	})

	t.Run("Backup restores primary", func(t *testing.T) {
		require.NoError(t, slots.Save(ctx, "Asha", pending))
		require.NoError(t, primary.Delete(ctx, PrimaryKey("Asha")))

		got, err := slots.Load(ctx, "Asha")
		require.NoError(t, err)
		require.NotNil(t, got)
		_, ok, _ := primary.Get(ctx, "pendingOut_Asha")
		assert.True(t, ok)
	})

	t.Run("Corrupt record clears both", func(t *testing.T) {
		require.NoError(t, primary.Set(ctx, PrimaryKey("Asha"), "{not json"))
		require.NoError(t, backup.Set(ctx, BackupKey("Asha"), "{}"))

		got, err := slots.Load(ctx, "Asha")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Empty(t, primary.m)
		assert.Empty(t, backup.m)
	})

	t.Run("Nothing stored", func(t *testing.T) {
		got, err := slots.Load(ctx, "Ravi")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func fmsRow(serial, name string, vehicle model.VehicleType, meter float64, closed bool) *v1.RowData {
	row := v1.FMSColumns.NewRow().
		Set(v1.Timestamp, utils.FormatDateTime(at(10, 9, 0))).
		Set(v1.SerialNumber, serial).
		Set(v1.PersonName, name).
		Set(v1.FromLocation, "Pune").
		Set(v1.ToLocation, "Mumbai").
		Set(v1.InVehicleType, string(vehicle)).
		Set(v1.InMeter, meter).
		Set(v1.TravelDate, "2024-03-10")
	if closed {
		row.Set(v1.ActualDate, "2024-03-11").
			Set(v1.ReturnDate, "2024-03-11").
			Set(v1.OutVehicleType, string(vehicle))
	}
	return row
}

type engineFixture struct {
	engine   *TravelEngine
	sheet    *fakeSheet
	primary  *mapSlots
	backup   *mapSlots
	notes    *communication.Recorder
	uploads  *fakeUploads
	now      time.Time
	employee string
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		sheet:    newFakeSheet(),
		primary:  newMapSlots(),
		backup:   newMapSlots(),
		notes:    &communication.Recorder{},
		uploads:  &fakeUploads{},
		now:      at(15, 10, 0),
		employee: "Asha",
	}
	f.engine = &TravelEngine{
		Feed:        f.sheet,
		Writer:      f.sheet,
		Attachments: f.uploads,
		Slots:       &PendingSlots{Primary: f.primary, Backup: f.backup},
		Notifier:    f.notes,
		Now:         func() time.Time { return f.now },
		Consistency: ConsistencyPolicy{Attempts: 2, Window: 5 * time.Minute},
	}
	return f
}

func carIn() InSubmission {
	return InSubmission{
		FromLocation: "Pune",
		ToLocation:   "Mumbai",
		TravelDate:   "2024-03-15",
		VehicleType:  model.VehicleCar,
		MeterNumber:  1000,
		MeterImage:   image("meter.jpg"),
	}
}

func TestSubmitInAllocatesNextSerial(t *testing.T) {
	f := newEngineFixture()
	f.sheet.add(v1.FMSColumns.Sheet,
		fmsRow("TI-003", "Ravi", model.VehicleBike, 10, true),
		fmsRow("TI-007", "Ravi", model.VehicleBike, 10, true),
	)

	res, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())

	require.NoError(t, err)
	assert.Equal(t, "TI-008", res.Pending.SerialNumber)
	assert.True(t, res.Confirmed)
	assert.NotEmpty(t, res.RequestID)

	require.Len(t, f.sheet.inserted, 1)
	row := f.sheet.inserted[0]
	assert.Equal(t, "TI-008", row.Value(v1.SerialNumber))
	assert.Equal(t, "1000", row.Value(v1.InMeter))
	assert.Equal(t, "in_vehicle_meter_Asha_2024-03-15.jpg", row.Value(v1.InImages))
	assert.Equal(t, []string{"in_vehicle_meter_Asha_2024-03-15.jpg"}, f.uploads.names)

	assert.Contains(t, f.primary.m, "pendingOut_Asha")
	assert.Contains(t, f.backup.m, "serverPending_Asha")

	sent := f.notes.Sent()
	require.NotEmpty(t, sent)
	assert.Equal(t, communication.KindSuccess, sent[0].Kind)
	assert.True(t, strings.HasPrefix(sent[0].Message, "IN travel information submitted successfully!"))
}

func TestSubmitInRejectedWhileOpen(t *testing.T) {
	f := newEngineFixture()
	_, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())
	require.NoError(t, err)

	_, err = f.engine.SubmitIn(context.Background(), f.employee, carIn())

	assert.ErrorIs(t, err, ErrPendingOut)
	assert.Len(t, f.sheet.inserted, 1)
}

func TestSubmitInOpenOnAnotherDevice(t *testing.T) {
	f := newEngineFixture()
	f.sheet.add(v1.FMSColumns.Sheet, fmsRow("TI-004", "Asha", model.VehicleCar, 500, false))

	_, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())

	assert.ErrorIs(t, err, ErrPendingOut)
	assert.Empty(t, f.sheet.inserted)
}

func TestSubmitInCoversFeedLag(t *testing.T) {
	f := newEngineFixture()
	f.sheet.lag = true
	f.sheet.add(v1.FMSColumns.Sheet, fmsRow("TI-007", "Ravi", model.VehicleBike, 10, true))

	first, err := f.engine.SubmitIn(context.Background(), "Asha", carIn())
	require.NoError(t, err)
	second, err := f.engine.SubmitIn(context.Background(), "Ravi", carIn())
	require.NoError(t, err)

	assert.Equal(t, "TI-008", first.Pending.SerialNumber)
	assert.Equal(t, "TI-009", second.Pending.SerialNumber)
	assert.False(t, first.Confirmed)
}

func TestSubmitInWriteFailureReleasesSerial(t *testing.T) {
	f := newEngineFixture()
	f.sheet.add(v1.FMSColumns.Sheet, fmsRow("TI-007", "Ravi", model.VehicleBike, 10, true))
	f.sheet.writeErr = errDown

	_, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())
	require.ErrorIs(t, err, errDown)
	assert.Empty(t, f.primary.m)

	f.sheet.writeErr = nil
	next, err := f.engine.NextSerial(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TI-008", next)
}

func TestSubmitInUnacknowledgedWrite(t *testing.T) {
	unacked := fmt.Errorf("gateway insert after 1 attempt(s): %w", v1.ErrUnacknowledged)

	t.Run("row found in log", func(t *testing.T) {
		f := newEngineFixture()
		f.sheet.add(v1.FMSColumns.Sheet, fmsRow("TI-007", "Ravi", model.VehicleBike, 10, true))
		f.sheet.ackErr = unacked

		res, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())

		require.NoError(t, err)
		assert.Equal(t, "TI-008", res.Pending.SerialNumber)
		assert.True(t, res.Confirmed)
		assert.Len(t, f.sheet.inserted, 1)
		assert.Contains(t, f.primary.m, "pendingOut_Asha")
	})

	t.Run("row not in log keeps the serial reserved", func(t *testing.T) {
		f := newEngineFixture()
		f.sheet.add(v1.FMSColumns.Sheet, fmsRow("TI-007", "Ravi", model.VehicleBike, 10, true))
		f.sheet.lag = true
		f.sheet.ackErr = unacked

		_, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())

		require.ErrorIs(t, err, v1.ErrUnacknowledged)
		assert.Empty(t, f.primary.m)
		next, err := f.engine.NextSerial(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "TI-009", next)
	})
}

func TestSubmitInFeedDown(t *testing.T) {
	f := newEngineFixture()
	f.sheet.readErr = errDown

	_, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())

	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Empty(t, f.sheet.inserted)
}

func TestSubmitOutClosesSession(t *testing.T) {
	f := newEngineFixture()
	in, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())
	require.NoError(t, err)

	res, err := f.engine.SubmitOut(context.Background(), f.employee, OutSubmission{
		ReturnDate:  "2024-03-15",
		MeterNumber: 1050,
		MeterImage:  image("out.png"),
		Remarks:     "client visit",
	})

	require.NoError(t, err)
	assert.Equal(t, in.Pending.SerialNumber, res.SerialNumber)
	assert.Equal(t, 50.0, res.TotalRunningKm)
	assert.True(t, res.Confirmed)

	row := f.sheet.updated[res.SerialNumber]
	require.NotNil(t, row)
	assert.Equal(t, 50.0, row.Value(v1.RunningKm))
	assert.Equal(t, "2024-03-15", row.Value(v1.ActualDate))
	assert.Equal(t, "Car", row.Value(v1.OutVehicleType))
	assert.Equal(t, "out_vehicle_meter_Asha_2024-03-15.png", row.Value(v1.OutImages))

	assert.Empty(t, f.primary.m)
	assert.Empty(t, f.backup.m)

	state, err := f.engine.State(context.Background(), f.employee)
	require.NoError(t, err)
	assert.Nil(t, state.Pending)
}

func TestSubmitOutRejectsBackwardMeter(t *testing.T) {
	f := newEngineFixture()
	_, err := f.engine.SubmitIn(context.Background(), f.employee, carIn())
	require.NoError(t, err)

	_, err = f.engine.SubmitOut(context.Background(), f.employee, OutSubmission{
		ReturnDate:  "2024-03-15",
		MeterNumber: 900,
		MeterImage:  image("out.jpg"),
	})

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Empty(t, f.sheet.updated)
	assert.Contains(t, f.primary.m, "pendingOut_Asha")
}

func TestSubmitOutWithoutSession(t *testing.T) {
	f := newEngineFixture()
	_, err := f.engine.SubmitOut(context.Background(), f.employee, OutSubmission{ReturnDate: "2024-03-15"})
	assert.ErrorIs(t, err, ErrNoPendingSession)
}

func TestStateReconcilesWithLog(t *testing.T) {
	ctx := context.Background()

	t.Run("Closed remotely", func(t *testing.T) {
		f := newEngineFixture()
		f.sheet.add(v1.FMSColumns.Sheet, fmsRow("TI-005", "Asha", model.VehicleCar, 500, true))
		require.NoError(t, f.engine.Slots.Save(ctx, "Asha", model.PendingOut{SerialNumber: "TI-005", CreatedAt: f.now.Add(-time.Hour)}))

		state, err := f.engine.State(ctx, "Asha")
		require.NoError(t, err)
		assert.Nil(t, state.Pending)
		assert.Equal(t, SourceNone, state.Source)
		assert.Empty(t, f.primary.m)
		assert.Empty(t, f.backup.m)
	})

	t.Run("Resumed from the log", func(t *testing.T) {
		f := newEngineFixture()
		f.sheet.add(v1.FMSColumns.Sheet,
			fmsRow("TI-002", "Asha", model.VehicleCar, 400, true),
			fmsRow("TI-004", "Asha", model.VehicleCar, 500, false),
		)

		state, err := f.engine.State(ctx, "Asha")
		require.NoError(t, err)
		require.NotNil(t, state.Pending)
		assert.Equal(t, SourceLog, state.Source)
		assert.Equal(t, "TI-004", state.Pending.SerialNumber)
		assert.Equal(t, 500.0, state.Pending.InVehicleMeterNumber)
		assert.Contains(t, f.primary.m, "pendingOut_Asha")
	})

	t.Run("Not yet visible", func(t *testing.T) {
		f := newEngineFixture()
		require.NoError(t, f.engine.Slots.Save(ctx, "Asha", model.PendingOut{SerialNumber: "TI-009", CreatedAt: f.now.Add(-time.Minute)}))

		state, err := f.engine.State(ctx, "Asha")
		require.NoError(t, err)
		require.NotNil(t, state.Pending)
		assert.Equal(t, SourceLocal, state.Source)
		assert.False(t, state.Verified)
	})

	t.Run("Missing past the window", func(t *testing.T) {
		f := newEngineFixture()
		require.NoError(t, f.engine.Slots.Save(ctx, "Asha", model.PendingOut{SerialNumber: "TI-009", CreatedAt: f.now.Add(-time.Hour)}))

		state, err := f.engine.State(ctx, "Asha")
		require.NoError(t, err)
		assert.Nil(t, state.Pending)
		assert.Empty(t, f.primary.m)
	})

	t.Run("Log unreachable", func(t *testing.T) {
		f := newEngineFixture()
		require.NoError(t, f.engine.Slots.Save(ctx, "Asha", model.PendingOut{SerialNumber: "TI-009", CreatedAt: f.now.Add(-time.Hour)}))
		f.sheet.readErr = errDown

		state, err := f.engine.State(ctx, "Asha")
		require.NoError(t, err)
		require.NotNil(t, state.Pending)
		assert.Equal(t, SourceLocal, state.Source)
		assert.False(t, state.Verified)
	})
}

func TestReportCollision(t *testing.T) {
	f := newEngineFixture()
	sessions := []model.TravelSession{
		{SerialNumber: "TI-008", PersonName: "Asha"},
		{SerialNumber: "TI-008", PersonName: "Ravi"},
	}

	f.engine.reportCollision(context.Background(), "TI-008", "Asha", sessions)

	sent := f.notes.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, communication.KindError, sent[0].Kind)
	assert.Contains(t, sent[0].Message, "Ravi")
}

func TestTravelHistory(t *testing.T) {
	f := newEngineFixture()
	f.sheet.add(v1.FMSColumns.Sheet,
		fmsRow("TI-002", "Asha", model.VehicleCar, 400, true),
		fmsRow("TI-010", "Ravi", model.VehicleBike, 10, true),
		fmsRow("TI-004", "Asha", model.VehicleCar, 500, false),
	)

	own, err := f.engine.History(context.Background(), model.Viewer{Name: "Asha"})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "TI-004", own[0].SerialNumber)

	all, err := f.engine.History(context.Background(), model.Viewer{Name: "Boss", Role: "admin"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "TI-010", all[0].SerialNumber)
}
