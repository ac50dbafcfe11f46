package batch

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

// Compile-time interface check.
var _ port.ApplicantWorkbook = (*ExcelWorkbook)(nil)

const reportSheet = "Decisions"

// ErrEmptyWorkbook is returned when the applicant sheet has no header row.
var ErrEmptyWorkbook = errors.New("workbook has no header row")

type reportColumn struct {
	Header string
	Width  float64
	Value  func(port.ReportRow) any
}

var reportColumns = []reportColumn{
	{"Row", 6, func(r port.ReportRow) any { return r.Row }},
	{"Applicant Reference", 22, func(r port.ReportRow) any { return r.ApplicantReference }},
	{"Evaluation ID", 38, func(r port.ReportRow) any { return r.EvaluationID }},
	{"Credit Score", 12, func(r port.ReportRow) any { return blankIfFailed(r, r.CreditScore) }},
	{"Credit Rating", 14, func(r port.ReportRow) any { return r.CreditRating }},
	{"DTI", 10, func(r port.ReportRow) any { return r.DTI }},
	{"Eligibility Score", 16, func(r port.ReportRow) any { return blankIfFailed(r, r.EligibilityScore) }},
	{"Decision", 18, func(r port.ReportRow) any { return r.Decision }},
	{"Approved Amount", 16, func(r port.ReportRow) any { return r.ApprovedAmount }},
	{"Interest Rate", 12, func(r port.ReportRow) any { return r.InterestRate }},
	{"EMI", 12, func(r port.ReportRow) any { return r.EMI }},
	{"Fallback", 10, func(r port.ReportRow) any { return blankIfFailed(r, r.Fallback) }},
	{"Error", 48, func(r port.ReportRow) any { return r.Error }},
}

func blankIfFailed(r port.ReportRow, v any) any {
	if r.Error != "" {
		return ""
	}
	return v
}

// ExcelWorkbook reads applicant rows from and writes decision reports to
// .xlsx files.
type ExcelWorkbook struct {
	now func() time.Time
}

func NewExcelWorkbook() *ExcelWorkbook {
	return &ExcelWorkbook{now: time.Now}
}

// ReadApplicants returns one field map per non-blank data row of sheet (the
// first sheet when empty). The header row supplies the keys; cells are
// returned as raw strings and blank cells are omitted.
func (w *ExcelWorkbook) ReadApplicants(data []byte, sheet string) ([]map[string]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	applicants := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make(map[string]any, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				fields[header[i]] = v
			}
		}
		if len(fields) == 0 {
			continue
		}
		applicants = append(applicants, fields)
	}
	return applicants, nil
}

// WriteReport renders rows into a single-sheet workbook.
func (w *ExcelWorkbook) WriteReport(rows []port.ReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return nil, fmt.Errorf("name report sheet: %w", err)
	}
	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: "credwise",
		Title:   "Credit decisions",
		Created: w.now().UTC().Format(time.RFC3339),
	})

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, col := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reportSheet, cell, col.Header)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(reportSheet, name, name, col.Width)
	}
	last, _ := excelize.CoordinatesToCellName(len(reportColumns), 1)
	_ = f.SetCellStyle(reportSheet, "A1", last, bold)

	for rowIdx, r := range rows {
		values := make([]any, len(reportColumns))
		for i, col := range reportColumns {
			values[i] = col.Value(r)
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write report row %d: %w", r.Row, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), nil
}
