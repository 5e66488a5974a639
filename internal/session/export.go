package session

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// CSVHeader is the first row of every session export.
var CSVHeader = []string{"timestamp", "scenario", "label", "field", "value"}

// SheetName is the worksheet that holds the XLSX export.
const SheetName = "session"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// #region rows
// Rows flattens the log into export rows (without the header): one row per
// metric, then one per parameter, for each entry in order. An entry with
// neither produces a single "notes" row carrying its annotation.
func (l *Log) Rows() [][]string {
	var rows [][]string
	for _, e := range l.Entries() {
		ts := e.Timestamp.UTC().Format(TimestampLayout)
		prefix := []string{ts, e.ScenarioID, e.Label}
		n := 0
		for _, m := range e.Result.Metrics {
			rows = append(rows, row(prefix, m.Name, metricText(m.Value, m.Text)))
			n++
		}
		for _, id := range e.Parameters.IDs() {
			v, _ := e.Parameters.Get(id)
			rows = append(rows, row(prefix, id, paramText(v)))
			n++
		}
		if n == 0 {
			rows = append(rows, row(prefix, "notes", e.Annotation))
		}
	}
	return rows
}

func row(prefix []string, field, value string) []string {
	out := make([]string, 0, len(prefix)+2)
	out = append(out, prefix...)
	return append(out, field, value)
}

// FormatNumber renders a value with three decimals.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func metricText(v float64, text string) string {
	if text != "" {
		return text
	}
	return FormatNumber(v)
}

func paramText(v param.Value) string {
	if v.Kind == param.Continuous {
		return FormatNumber(v.Number)
	}
	return v.String()
}

// #endregion rows

// #region csv
// ExportCSV writes the session as CSV. An empty log writes nothing and returns ErrNoData.
func (l *Log) ExportCSV(w io.Writer) error {
	if l.Len() == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(l.Rows()); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// #endregion csv

// #region xlsx
// ExportXLSX writes the same rows as ExportCSV into a single-sheet workbook.
func (l *Log) ExportXLSX(w io.Writer) error {
	if l.Len() == 0 {
		return ErrNoData
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	// Header row
	for i, h := range CSVHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header cell %s: %w", cell, err)
		}
	}

	// Data rows
	for r, values := range l.Rows() {
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// #endregion xlsx

// #region filename
// FileName returns the download name for an export taken at t.
func FileName(ext string, t time.Time) string {
	return fmt.Sprintf("concept-playground-session-%s.%s", t.UTC().Format("20060102-150405"), ext)
}

// #endregion filename
