package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dodouchiha/turni/pkg/core/holiday"
	"github.com/dodouchiha/turni/pkg/core/model"
	"github.com/dodouchiha/turni/pkg/core/schedule"
)

func testGrid(t *testing.T) *schedule.Grid {
	statuses, err := model.NewStatusSet(model.DefaultStatusLabels)
	require.NoError(t, err)

	grid := schedule.Generate(2025, time.March, []string{"Bianchi Luca", "Rossi Mario"},
		statuses, holiday.ForCountry, "IT", schedule.DefaultClinicRule())
	require.NoError(t, grid.SetStatus(5, "Rossi Mario", "Ferie"))
	return grid
}

func TestExcel_Layout(t *testing.T) {
	data, err := Excel(testGrid(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := SheetName(2025, time.March)
	require.Contains(t, f.GetSheetList(), sheet)

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 32, "header plus one row per day")

	assert.Equal(t, []string{"Data", "Giorno", "Festivo", "Festività", "Ambulatorio", "Bianchi Luca", "Rossi Mario"}, rows[0])

	// Row for March 5th carries the edited status.
	assert.Equal(t, "05/03/2025", rows[5][0])
	assert.Equal(t, "Ferie", rows[5][6])
	assert.Equal(t, "Presente", rows[5][5])
}

func TestExcel_NilGrid(t *testing.T) {
	_, err := Excel(nil)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(2025, time.March))
	require.NoError(t, WriteFile(testGrid(t), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Turni_2025_03")
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Turni_2025_03", SheetName(2025, time.March))
	assert.Equal(t, "turni_2025_03.xlsx", FileName(2025, time.March))
}
