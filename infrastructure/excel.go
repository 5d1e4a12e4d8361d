package infrastructure

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"resume-screener/domain"
)

const (
	scansSheet   = "Scans"
	summarySheet = "Summary"
)

var scanHeaders = []string{"Candidate", "Job", "Score", "Status", "Summary", "File", "Scanned At"}

// ExcelExporter writes scans as an .xlsx workbook.
type ExcelExporter struct{}

func (ExcelExporter) Export(w io.Writer, scans []domain.Scan) error {
	return WriteScansWorkbook(w, scans)
}

// WriteScansWorkbook renders one row per scan, coloured by outcome, plus a
// status summary sheet.
func WriteScansWorkbook(w io.Writer, scans []domain.Scan) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scansSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	if err := writeScanRows(f, scans); err != nil {
		return fmt.Errorf("failed to create scans sheet: %w", err)
	}
	if err := writeStatusSummary(f, scans); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	_, err := f.WriteTo(w)
	return err
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeScanRows(f *excelize.File, scans []domain.Scan) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	shortlisted, err := fillStyle(f, "C6EFCE")
	if err != nil {
		return err
	}
	pending, err := fillStyle(f, "FFEB9C")
	if err != nil {
		return err
	}
	rejected, err := fillStyle(f, "FFC7CE")
	if err != nil {
		return err
	}

	widths := map[string]float64{"A": 25, "B": 25, "C": 8, "D": 12, "E": 60, "F": 40, "G": 20}
	for col, width := range widths {
		if err := f.SetColWidth(scansSheet, col, col, width); err != nil {
			return err
		}
	}

	for i, title := range scanHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(scansSheet, cell, title); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(scansSheet, "A1", "G1", header); err != nil {
		return err
	}

	for i, scan := range scans {
		row := i + 2
		values := []any{
			scan.CandidateName,
			scan.Category,
			scan.Score,
			string(scan.Status),
			scan.Summary,
			scan.FileURL,
			scan.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(scansSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}

		style := pending
		switch {
		case scan.Status.IsShortlisted():
			style = shortlisted
		case scan.Status.IsRejected():
			style = rejected
		}
		if err := f.SetCellStyle(scansSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), style); err != nil {
			return err
		}
	}
	return nil
}

func writeStatusSummary(f *excelize.File, scans []domain.Scan) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	counts := make(map[domain.ScanStatus]int, len(domain.ScanStatuses))
	for _, scan := range scans {
		counts[scan.Status]++
	}

	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Status", "Scans"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", header); err != nil {
		return err
	}
	for i, status := range domain.ScanStatuses {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &[]any{string(status), counts[status]}); err != nil {
			return err
		}
	}
	total := len(domain.ScanStatuses) + 2
	return f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", total), &[]any{"Total", len(scans)})
}
