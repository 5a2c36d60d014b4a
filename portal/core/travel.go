package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/portal/model"
	v1 "zentrix.com/portal/sheets/v1"
	"zentrix.com/portal/utils"
)

// SessionWriter writes both phases of a trip to the FMS log
type SessionWriter interface {
	Insert(ctx context.Context, row *v1.RowData) (*v1.Receipt, error)
	UpdateOutData(ctx context.Context, serial string, row *v1.RowData) (*v1.Receipt, error)
}

// ConsistencyPolicy bounds the read-after-write polling of the log.
// Window is how long a local record may be missing from the log before
// it is considered stale.
type ConsistencyPolicy struct {
	Interval time.Duration
	Attempts int
	Window   time.Duration
}

const (
	SourceNone  = "none"
	SourceLocal = "local"
	SourceLog   = "log"
)

type SessionState struct {
	Pending  *model.PendingOut `json:"pending"`
	Source   string            `json:"source"`
	Verified bool              `json:"verified"`
}

type InResult struct {
	Pending   model.PendingOut `json:"pending"`
	RequestID string           `json:"requestId"`
	Confirmed bool             `json:"confirmed"`
}

type OutResult struct {
	SerialNumber   string  `json:"serialNumber"`
	TotalRunningKm float64 `json:"totalRunningKm"`
	OutTotalAmount string  `json:"outTotalAmount"`
	RequestID      string  `json:"requestId"`
	Confirmed      bool    `json:"confirmed"`
}

// TravelEngine runs the IN then OUT workflow. The FMS log is the
// authority on open sessions; the slots are a cache of it.
type TravelEngine struct {
	Feed        FeedReader
	Writer      SessionWriter
	Attachments AttachmentStore
	Slots       *PendingSlots
	Notifier    communication.Notifier
	Location    *time.Location
	Now         func() time.Time
	Consistency ConsistencyPolicy

	locks      keyedMutex
	serialMu   sync.Mutex
	lastSerial int
}

func (e *TravelEngine) location() *time.Location {
	if e.Location == nil {
		return utils.IndiaTZ
	}
	return e.Location
}

func (e *TravelEngine) now() time.Time {
	if e.Now != nil {
		return e.Now().In(e.location())
	}
	return time.Now().In(e.location())
}

func (e *TravelEngine) sessions(ctx context.Context) ([]model.TravelSession, error) {
	rows, err := e.Feed.Rows(ctx, v1.FMSColumns.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return ParseSessions(rows, e.location()), nil
}

func findSession(sessions []model.TravelSession, serial, employee string) *model.TravelSession {
	for i := range sessions {
		if sessions[i].SerialNumber == serial && strings.EqualFold(sessions[i].PersonName, employee) {
			return &sessions[i]
		}
	}
	return nil
}

// latestOpen is the employee's highest serial still lacking OUT data
func latestOpen(sessions []model.TravelSession, employee string) *model.TravelSession {
	var open *model.TravelSession
	best := 0
	for i := range sessions {
		s := &sessions[i]
		if !strings.EqualFold(s.PersonName, employee) || !s.IsOpen() {
			continue
		}
		if n := maxSerial([]string{s.SerialNumber}); open == nil || n > best {
			open, best = s, n
		}
	}
	return open
}

// State resolves the employee's open session against the log. When the
// log cannot be read the cached record is returned unverified.
func (e *TravelEngine) State(ctx context.Context, employee string) (*SessionState, error) {
	local, err := e.Slots.Load(ctx, employee)
	if err != nil {
		slog.WarnContext(ctx, "pending slots unavailable", "employee", employee, "error", err)
		local = nil
	}

	sessions, err := e.sessions(ctx)
	if err != nil {
		slog.WarnContext(ctx, "travel log unavailable, using cached session", "employee", employee, "error", err.Error())
		if local != nil {
			return &SessionState{Pending: local, Source: SourceLocal}, nil
		}
		return &SessionState{Source: SourceNone}, nil
	}

	return e.reconcile(ctx, employee, local, sessions), nil
}

func (e *TravelEngine) reconcile(ctx context.Context, employee string, local *model.PendingOut, sessions []model.TravelSession) *SessionState {
	if local != nil {
		remote := findSession(sessions, local.SerialNumber, employee)
		switch {
		case remote != nil && remote.IsOpen():
			return &SessionState{Pending: local, Source: SourceLocal, Verified: true}
		case remote == nil && e.now().Sub(local.CreatedAt) < e.Consistency.Window:
			// the IN row may not be visible yet
			return &SessionState{Pending: local, Source: SourceLocal}
		}

		slog.InfoContext(ctx, "clearing stale pending session", "employee", employee, "serial", local.SerialNumber)
		if err := e.Slots.Clear(ctx, employee); err != nil {
			slog.WarnContext(ctx, "clear pending slots failed", "employee", employee, "error", err)
		}
	}

	open := latestOpen(sessions, employee)
	if open == nil {
		return &SessionState{Source: SourceNone, Verified: true}
	}

	pending := model.PendingFromSession(*open)
	if err := e.Slots.Save(ctx, employee, pending); err != nil {
		slog.WarnContext(ctx, "cache pending session failed", "employee", employee, "error", err)
	}
	return &SessionState{Pending: &pending, Source: SourceLog, Verified: true}
}

func (e *TravelEngine) upload(ctx context.Context, a *Attachment, prefix, employee, date string) ([]string, error) {
	if a == nil {
		return nil, nil
	}
	name, err := e.Attachments.Upload(ctx, a.storedName(prefix, employee, date), a.MimeType, a.Data)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", prefix, err)
	}
	return []string{name}, nil
}

func (e *TravelEngine) uploadAll(ctx context.Context, phase string, vehicle model.VehicleType, meter, receipt *Attachment, employee, date string) ([]string, error) {
	var names []string
	if vehicle.UsesMeter() {
		n, err := e.upload(ctx, meter, phase+"_vehicle_meter", employee, date)
		if err != nil {
			return nil, err
		}
		names = append(names, n...)
	}
	prefix := phase + "_bill_receipt"
	if vehicle == model.VehicleBus {
		prefix = phase + "_bus_ticket"
	}
	if !vehicle.UsesMeter() {
		n, err := e.upload(ctx, receipt, prefix, employee, date)
		if err != nil {
			return nil, err
		}
		names = append(names, n...)
	}
	return names, nil
}

// awaitLog polls the log until done holds or the attempts run out
func (e *TravelEngine) awaitLog(ctx context.Context, done func([]model.TravelSession) bool) (bool, []model.TravelSession) {
	var last []model.TravelSession
	for i := 0; i < e.Consistency.Attempts; i++ {
		if i > 0 {
			if err := sleepContext(ctx, e.Consistency.Interval); err != nil {
				return false, last
			}
		}
		sessions, err := e.sessions(ctx)
		if err != nil {
			slog.WarnContext(ctx, "poll travel log failed", "attempt", i+1, "error", err.Error())
			continue
		}
		last = sessions
		if done(sessions) {
			return true, sessions
		}
	}
	return false, last
}

// allocateSerial reads the log and reserves the next serial for this
// process. Rows written by this process but not yet visible are covered
// by lastSerial.
func (e *TravelEngine) allocateSerial(ctx context.Context) (string, func(), error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return "", nil, err
	}
	serials := utils.Map(sessions, func(s model.TravelSession) string { return s.SerialNumber })

	e.serialMu.Lock()
	defer e.serialMu.Unlock()
	n := max(maxSerial(serials), e.lastSerial) + 1
	e.lastSerial = n

	release := func() {
		e.serialMu.Lock()
		if e.lastSerial == n {
			e.lastSerial = n - 1
		}
		e.serialMu.Unlock()
	}
	return formatSerial(n), release, nil
}

// NextSerial previews the serial the next IN would get
func (e *TravelEngine) NextSerial(ctx context.Context) (string, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return "", err
	}
	serials := utils.Map(sessions, func(s model.TravelSession) string { return s.SerialNumber })

	e.serialMu.Lock()
	defer e.serialMu.Unlock()
	return formatSerial(max(maxSerial(serials), e.lastSerial) + 1), nil
}

// SubmitIn opens a trip. It is refused while the employee has an open session.
func (e *TravelEngine) SubmitIn(ctx context.Context, employee string, in InSubmission) (*InResult, error) {
	if err := ValidateIn(in); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(employee)
	defer unlock()

	state, err := e.State(ctx, employee)
	if err != nil {
		return nil, err
	}
	if state.Pending != nil {
		return nil, ErrPendingOut
	}

	now := e.now()
	images, err := e.uploadAll(ctx, "in", in.VehicleType, in.MeterImage, in.Receipt, employee, in.TravelDate)
	if err != nil {
		communication.Send(ctx, e.Notifier, "Error uploading IN images", communication.KindError)
		return nil, err
	}

	serial, release, err := e.allocateSerial(ctx)
	if err != nil {
		communication.Send(ctx, e.Notifier, "Error loading travel data", communication.KindError)
		return nil, err
	}

	meter := ""
	if in.VehicleType.UsesMeter() {
		meter = utils.FormatNumber(in.MeterNumber)
	}
	row := v1.FMSColumns.NewRow().
		Set(v1.Timestamp, utils.FormatDateTime(now)).
		Set(v1.SerialNumber, serial).
		Set(v1.PersonName, employee).
		Set(v1.FromLocation, in.FromLocation).
		Set(v1.ToLocation, in.ToLocation).
		Set(v1.InVehicleType, string(in.VehicleType)).
		Set(v1.InMeter, meter).
		Set(v1.InImages, strings.Join(images, " | ")).
		Set(v1.TravelDate, in.TravelDate).
		Set(v1.Remarks, in.Remarks).
		Set(v1.InAmount, in.Amount.String())

	receipt, err := e.Writer.Insert(ctx, row)
	if errors.Is(err, v1.ErrUnacknowledged) {
		// the row may have landed; the log decides
		landed, _ := e.awaitLog(ctx, func(s []model.TravelSession) bool {
			return findSession(s, serial, employee) != nil
		})
		if landed {
			slog.WarnContext(ctx, "IN write unacknowledged but found in log", "employee", employee, "serial", serial)
			receipt, err = &v1.Receipt{}, nil
		}
	}
	if err != nil {
		if !errors.Is(err, v1.ErrUnacknowledged) {
			release()
		}
		slog.ErrorContext(ctx, "IN write failed", "employee", employee, "serial", serial, "error", err.Error())
		communication.Send(ctx, e.Notifier, "Error submitting IN travel information", communication.KindError)
		return nil, fmt.Errorf("failed to submit IN for %s: %w", serial, err)
	}

	pending := model.PendingOut{
		SerialNumber:         serial,
		PersonName:           employee,
		FromLocation:         in.FromLocation,
		ToLocation:           in.ToLocation,
		TravelDate:           in.TravelDate,
		InVehicleType:        in.VehicleType,
		InVehicleMeterNumber: in.MeterNumber,
		InAmount:             in.Amount,
		Remarks:              in.Remarks,
		CreatedAt:            now,
		Status:               model.PendingOutStatus,
	}
	if err := e.Slots.Save(ctx, employee, pending); err != nil {
		slog.WarnContext(ctx, "pending slots not written, the log will be used on resume", "employee", employee, "error", err)
	}

	slog.InfoContext(ctx, "IN submitted", "employee", employee, "serial", serial, "requestId", receipt.RequestID)
	communication.Send(ctx, e.Notifier, "IN travel information submitted successfully! Please fill the OUT form next.", communication.KindSuccess)

	confirmed, sessions := e.awaitLog(ctx, func(s []model.TravelSession) bool {
		return findSession(s, serial, employee) != nil
	})
	e.reportCollision(ctx, serial, employee, sessions)

	return &InResult{Pending: pending, RequestID: receipt.RequestID, Confirmed: confirmed}, nil
}

// reportCollision flags a serial that another employee's row also uses
func (e *TravelEngine) reportCollision(ctx context.Context, serial, employee string, sessions []model.TravelSession) {
	var others []string
	for _, s := range sessions {
		if s.SerialNumber == serial && !strings.EqualFold(s.PersonName, employee) {
			others = append(others, s.PersonName)
		}
	}
	if len(others) == 0 {
		return
	}
	slog.WarnContext(ctx, "serial collision", "serial", serial, "employee", employee, "others", others)
	communication.Send(ctx, e.Notifier,
		fmt.Sprintf("Serial %s was allocated to %s and %s", serial, employee, strings.Join(others, ", ")),
		communication.KindError)
}

// SubmitOut closes the employee's open session
func (e *TravelEngine) SubmitOut(ctx context.Context, employee string, out OutSubmission) (*OutResult, error) {
	unlock := e.locks.Lock(employee)
	defer unlock()

	state, err := e.State(ctx, employee)
	if err != nil {
		return nil, err
	}
	if state.Pending == nil {
		return nil, ErrNoPendingSession
	}
	pending := *state.Pending

	if err := ValidateOut(out, pending); err != nil {
		return nil, err
	}
	vehicle := out.VehicleType
	if vehicle == "" {
		vehicle = pending.InVehicleType
	}

	now := e.now()
	images, err := e.uploadAll(ctx, "out", vehicle, out.MeterImage, out.Receipt, employee, out.ReturnDate)
	if err != nil {
		communication.Send(ctx, e.Notifier, "Error uploading OUT images", communication.KindError)
		return nil, err
	}

	km := RunningKm(pending.InVehicleMeterNumber, out.MeterNumber)
	meter := ""
	if vehicle.UsesMeter() {
		meter = utils.FormatNumber(out.MeterNumber)
	}
	total := out.Amount.String()

	row := v1.FMSColumns.NewRow().
		Set(v1.RunningKm, km).
		Set(v1.OutAmount, total).
		Set(v1.ActualDate, utils.FormatDate(now)).
		Set(v1.ReturnDate, out.ReturnDate).
		Set(v1.OutVehicleType, string(vehicle)).
		Set(v1.OutMeter, meter).
		Set(v1.OutImages, strings.Join(images, " | ")).
		Set(v1.OutRemarks, out.Remarks).
		Set(v1.OutTotalAmount, total)

	closed := func(s []model.TravelSession) bool {
		remote := findSession(s, pending.SerialNumber, employee)
		return remote != nil && !remote.IsOpen()
	}

	receipt, err := e.Writer.UpdateOutData(ctx, pending.SerialNumber, row)
	if errors.Is(err, v1.ErrUnacknowledged) {
		if landed, _ := e.awaitLog(ctx, closed); landed {
			slog.WarnContext(ctx, "OUT write unacknowledged but found in log", "employee", employee, "serial", pending.SerialNumber)
			receipt, err = &v1.Receipt{}, nil
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "OUT write failed", "employee", employee, "serial", pending.SerialNumber, "error", err.Error())
		communication.Send(ctx, e.Notifier, "Error submitting OUT travel information", communication.KindError)
		return nil, fmt.Errorf("failed to submit OUT for %s: %w", pending.SerialNumber, err)
	}

	if err := e.Slots.Clear(ctx, employee); err != nil {
		slog.WarnContext(ctx, "clear pending slots failed", "employee", employee, "error", err)
	}

	slog.InfoContext(ctx, "OUT submitted", "employee", employee, "serial", pending.SerialNumber, "km", km)
	communication.Send(ctx, e.Notifier, "Complete travel information submitted successfully!", communication.KindSuccess)

	confirmed, _ := e.awaitLog(ctx, closed)

	return &OutResult{
		SerialNumber:   pending.SerialNumber,
		TotalRunningKm: km,
		OutTotalAmount: total,
		RequestID:      receipt.RequestID,
		Confirmed:      confirmed,
	}, nil
}

// History lists trips newest serial first. Admins see every employee.
func (e *TravelEngine) History(ctx context.Context, viewer model.Viewer) ([]model.TravelSession, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return nil, err
	}
	scope := ScopeFor(viewer)
	out := utils.Filter(sessions, func(s model.TravelSession) bool { return scope.includes(s.PersonName) })
	sort.SliceStable(out, func(i, j int) bool {
		return serialOrder(out[i].SerialNumber) > serialOrder(out[j].SerialNumber)
	})
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
