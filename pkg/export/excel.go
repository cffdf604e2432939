// Package export renders a schedule grid as a spreadsheet.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dodouchiha/turni/pkg/core/schedule"
)

// Fixed leading columns, before one column per doctor.
var headerColumns = []string{"Data", "Giorno", "Festivo", "Festività", "Ambulatorio"}

// SheetName returns the tab name used for a month's export.
func SheetName(year int, month time.Month) string {
	return fmt.Sprintf("Turni_%04d_%02d", year, int(month))
}

// FileName returns the download file name used for a month's export.
func FileName(year int, month time.Month) string {
	return fmt.Sprintf("turni_%04d_%02d.xlsx", year, int(month))
}

// Excel renders the grid into an xlsx workbook with one sheet. Holiday rows
// are highlighted.
func Excel(grid *schedule.Grid) ([]byte, error) {
	if grid == nil {
		return nil, fmt.Errorf("no grid to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(grid.Year, grid.Month)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	holidayStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FCE4EC"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create holiday style: %w", err)
	}

	columns := append(append([]string(nil), headerColumns...), grid.Doctors...)
	for i, title := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for rowIdx, row := range grid.Rows {
		values := make([]interface{}, 0, len(columns))
		values = append(values,
			row.Date.Format("02/01/2006"),
			row.Weekday,
			row.Holiday,
			row.HolidayName,
			row.Clinic,
		)
		for _, doctor := range grid.Doctors {
			values = append(values, row.Statuses[doctor])
		}

		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}

		if row.Holiday {
			first, err := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			last, err := excelize.CoordinatesToCellName(len(columns), rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheet, first, last, holidayStyle); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "E", 14); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the grid and writes the workbook to path.
func WriteFile(grid *schedule.Grid, path string) error {
	data, err := Excel(grid)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
