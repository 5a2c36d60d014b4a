package core

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/utils"
)

const (
	daysSheet     = "Days"
	mispunchSheet = "Mispunch"
)

var (
	dayHeaders      = []string{"Employee", "Date", "IN", "OUT", "Leave", "Status"}
	mispunchHeaders = []string{"Employee", "Date", "IN", "OUT", "Kind", "Details", "Day Complete"}
)

func dayRows(summary model.AttendanceSummary) [][]string {
	rows := make([][]string, 0, len(summary.Days))
	for _, d := range summary.Days {
		rows = append(rows, []string{
			d.Employee,
			d.Date,
			strconv.Itoa(d.InCount),
			strconv.Itoa(d.OutCount),
			utils.FormatBoolean(d.HasLeave, "Yes", "No"),
			string(d.Kind),
		})
	}
	return rows
}

func mispunchRows(summary model.AttendanceSummary) [][]string {
	rows := make([][]string, 0, len(summary.Mispunches))
	for _, m := range summary.Mispunches {
		rows = append(rows, []string{
			m.Employee,
			m.Date,
			strconv.Itoa(m.InCount),
			strconv.Itoa(m.OutCount),
			string(m.Kind),
			m.Details,
			utils.FormatBoolean(m.DayComplete, "Yes", "No"),
		})
	}
	return rows
}

// ExportAttendance lays the summary out as a workbook with a Days sheet
// and a Mispunch sheet
func ExportAttendance(summary model.AttendanceSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", daysSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(mispunchSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	if err := writeSheet(f, daysSheet, dayHeaders, dayRows(summary)); err != nil {
		return nil, err
	}
	if err := writeSheet(f, mispunchSheet, mispunchHeaders, mispunchRows(summary)); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	for i, record := range append([][]string{headers}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := utils.Map(record, func(s string) any { return s })
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// WriteAttendanceCSV writes the day grid as CSV
func WriteAttendanceCSV(w io.Writer, summary model.AttendanceSummary) error {
	return utils.WriteCSV(w, append([][]string{dayHeaders}, dayRows(summary)...))
}
