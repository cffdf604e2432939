package sheetsclient

import (
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/dodouchiha/turni/pkg/core/schedule"
)

// Fixed leading columns of the published tab, mirroring the xlsx export.
var publishColumns = []string{"Data", "Giorno", "Festivo", "Festività", "Ambulatorio"}

// PublishGrid replaces the contents of one tab with the grid's rows. The
// tab must already exist in the spreadsheet.
func (c *Client) PublishGrid(spreadsheetID, tab string, grid *schedule.Grid) error {
	if grid == nil {
		return fmt.Errorf("no grid to publish")
	}

	writeRange := fmt.Sprintf("%s!A1", tab)

	_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, tab, &sheets.ClearValuesRequest{}).Do()
	if err != nil {
		return fmt.Errorf("failed to clear tab %s: %w", tab, err)
	}

	values := gridValues(grid)
	_, err = c.service.Spreadsheets.Values.
		Update(spreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to write grid: %w", err)
	}

	return nil
}

// gridValues flattens the grid into the row-major value matrix the Sheets
// API expects, header row first.
func gridValues(grid *schedule.Grid) [][]interface{} {
	header := make([]interface{}, 0, len(publishColumns)+len(grid.Doctors))
	for _, title := range publishColumns {
		header = append(header, title)
	}
	for _, doctor := range grid.Doctors {
		header = append(header, doctor)
	}

	values := [][]interface{}{header}
	for _, row := range grid.Rows {
		line := make([]interface{}, 0, len(header))
		line = append(line,
			row.Date.Format("02/01/2006"),
			row.Weekday,
			row.Holiday,
			row.HolidayName,
			row.Clinic,
		)
		for _, doctor := range grid.Doctors {
			line = append(line, row.Statuses[doctor])
		}
		values = append(values, line)
	}
	return values
}
