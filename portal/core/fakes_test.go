package core

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	v1 "zentrix.com/portal/sheets/v1"
)

var errDown = errors.New("connection refused")

func toRow(d *v1.RowData) v1.Row {
	cells := make([]*v1.Cell, 0, len(d.Values()))
	for _, v := range d.Values() {
		cells = append(cells, &v1.Cell{V: v})
	}
	return v1.Row{C: cells}
}

// fakeSheet is an in-memory spreadsheet. Writes become visible to reads
// unless lag is set.
type fakeSheet struct {
	mu       sync.Mutex
	rows     map[string][]v1.Row
	readErr  error
	writeErr error
	// ackErr is returned after a write has been applied
	ackErr error
	lag    bool

	inserted []*v1.RowData
	updated  map[string]*v1.RowData
	statuses   []string
	statusRows []int
	access     map[string]string
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{rows: map[string][]v1.Row{}, updated: map[string]*v1.RowData{}, access: map[string]string{}}
}

func (f *fakeSheet) add(sheet string, rows ...*v1.RowData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		f.rows[sheet] = append(f.rows[sheet], toRow(r))
	}
}

func (f *fakeSheet) Rows(_ context.Context, sheet string) ([]v1.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]v1.Row(nil), f.rows[sheet]...), nil
}

func (f *fakeSheet) receipt() *v1.Receipt {
	return &v1.Receipt{RequestID: uuid.NewString(), Acknowledged: true, Attempts: 1}
}

func (f *fakeSheet) Insert(_ context.Context, row *v1.RowData) (*v1.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.inserted = append(f.inserted, row)
	if !f.lag {
		sheet := v1.AttendanceColumns.Sheet
		if len(row.Values()) == v1.FMSColumns.Width {
			sheet = v1.FMSColumns.Sheet
		}
		f.rows[sheet] = append(f.rows[sheet], toRow(row))
	}
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return f.receipt(), nil
}

func (f *fakeSheet) UpdateOutData(_ context.Context, serial string, row *v1.RowData) (*v1.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.updated[serial] = row
	if !f.lag {
		s := v1.FMSColumns
		for _, r := range f.rows[s.Sheet] {
			if r.Get(s, v1.SerialNumber) != serial {
				continue
			}
			for i, v := range row.Values() {
				if v != "" {
					r.C[i] = &v1.Cell{V: v}
				}
			}
		}
	}
	return f.receipt(), nil
}

func (f *fakeSheet) SubmitAdvance(_ context.Context, row *v1.RowData) (*v1.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.inserted = append(f.inserted, row)
	return f.receipt(), nil
}

func (f *fakeSheet) UpdateAdvanceStatus(_ context.Context, rowNumber int, serial, status, remarks, admin string) (*v1.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.statuses = append(f.statuses, serial+":"+status)
	f.statusRows = append(f.statusRows, rowNumber)
	return f.receipt(), nil
}

func (f *fakeSheet) UpdateUserAccess(_ context.Context, username, access string) (*v1.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.access[username] = access
	return f.receipt(), nil
}

type mapSlots struct {
	mu  sync.Mutex
	m   map[string]string
	err error
}

func newMapSlots() *mapSlots {
	return &mapSlots{m: map[string]string{}}
}

func (s *mapSlots) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *mapSlots) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.m[key] = value
	return nil
}

func (s *mapSlots) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

type fakeUploads struct {
	names []string
}

func (u *fakeUploads) Upload(_ context.Context, name, _ string, _ []byte) (string, error) {
	u.names = append(u.names, name)
	return name, nil
}
