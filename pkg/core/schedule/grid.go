// Package schedule derives the per-month planning grid from the current
// doctor selection and merges user edits back into it.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/dodouchiha/turni/pkg/core/holiday"
	"github.com/dodouchiha/turni/pkg/core/model"
)

// Row is one calendar day of the grid: date metadata plus the status of
// every active doctor on that day.
type Row struct {
	Date        time.Time
	Weekday     string
	Holiday     bool
	HolidayName string
	Clinic      string // clinic label, or "" when the clinic is closed
	Statuses    map[string]string
}

// Grid is the month plan for one (year, month, doctor set) triple. That
// triple is the grid's staleness tag: whenever the current selection stops
// matching it, the grid must be regenerated, which resets all statuses to
// the default. Edits are deliberately not carried across a regeneration.
type Grid struct {
	Year    int
	Month   time.Month
	Doctors []string // sorted; part of the staleness tag
	Rows    []Row

	statuses *model.StatusSet
}

// Generate builds a fresh grid for the month. One row per calendar day,
// every doctor initialized to the default status. The holiday lookup is
// optional; a nil lookup or a country/year it has no data for simply
// produces a grid without holidays. Clinic rules label matching
// non-holiday days.
func Generate(year int, month time.Month, doctors []string, statuses *model.StatusSet, lookup holiday.Lookup, country string, clinicRules ...*ClinicRule) *Grid {
	sorted := append([]string(nil), doctors...)
	sort.Strings(sorted)

	var holidays holiday.Map
	if lookup != nil {
		holidays = lookup(country, year)
	}
	if holidays == nil {
		holidays = holiday.Map{}
	}

	clinicDays := make(map[string]string)
	for _, rule := range clinicRules {
		if rule == nil {
			continue
		}
		for day := range rule.DaysIn(year, month) {
			clinicDays[day] = rule.Label()
		}
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	rows := make([]Row, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		key := date.Format(holiday.DateFormat)

		name := holidays[key]
		clinic := ""
		if name == "" {
			clinic = clinicDays[key]
		}

		cells := make(map[string]string, len(sorted))
		for _, doctor := range sorted {
			cells[doctor] = statuses.Default()
		}

		rows = append(rows, Row{
			Date:        date,
			Weekday:     date.Weekday().String(),
			Holiday:     name != "",
			HolidayName: name,
			Clinic:      clinic,
			Statuses:    cells,
		})
	}

	return &Grid{
		Year:     year,
		Month:    month,
		Doctors:  sorted,
		Rows:     rows,
		statuses: statuses,
	}
}

// Matches reports whether the grid is still valid for the given generating
// parameters. A false result marks the grid stale.
func (g *Grid) Matches(year int, month time.Month, doctors []string) bool {
	if g.Year != year || g.Month != month || len(g.Doctors) != len(doctors) {
		return false
	}

	sorted := append([]string(nil), doctors...)
	sort.Strings(sorted)
	for i, doctor := range sorted {
		if g.Doctors[i] != doctor {
			return false
		}
	}
	return true
}

// StatusSet returns the label set the grid validates against.
func (g *Grid) StatusSet() *model.StatusSet {
	return g.statuses
}

// SetStatus records a status for one doctor on one day (1-based).
func (g *Grid) SetStatus(day int, doctor, status string) error {
	if day < 1 || day > len(g.Rows) {
		return fmt.Errorf("day %d out of range 1-%d", day, len(g.Rows))
	}

	cells := g.Rows[day-1].Statuses
	if _, ok := cells[doctor]; !ok {
		return fmt.Errorf("doctor %q is not in the grid", doctor)
	}
	if !g.statuses.Valid(status) {
		return fmt.Errorf("unknown status %q (valid: %v)", status, g.statuses.Labels())
	}

	cells[doctor] = status
	return nil
}

// Status returns the status of one doctor on one day (1-based).
func (g *Grid) Status(day int, doctor string) (string, error) {
	if day < 1 || day > len(g.Rows) {
		return "", fmt.Errorf("day %d out of range 1-%d", day, len(g.Rows))
	}
	status, ok := g.Rows[day-1].Statuses[doctor]
	if !ok {
		return "", fmt.Errorf("doctor %q is not in the grid", doctor)
	}
	return status, nil
}

// Column returns one doctor's statuses in row order.
func (g *Grid) Column(doctor string) ([]string, error) {
	if len(g.Rows) == 0 {
		return nil, fmt.Errorf("grid has no rows")
	}
	if _, ok := g.Rows[0].Statuses[doctor]; !ok {
		return nil, fmt.Errorf("doctor %q is not in the grid", doctor)
	}

	column := make([]string, len(g.Rows))
	for i, row := range g.Rows {
		column[i] = row.Statuses[doctor]
	}
	return column, nil
}

// Clone returns a deep copy sharing no mutable state, used to hand an
// editable copy to a front end.
func (g *Grid) Clone() *Grid {
	rows := make([]Row, len(g.Rows))
	for i, row := range g.Rows {
		cells := make(map[string]string, len(row.Statuses))
		for doctor, status := range row.Statuses {
			cells[doctor] = status
		}
		row.Statuses = cells
		rows[i] = row
	}

	return &Grid{
		Year:     g.Year,
		Month:    g.Month,
		Doctors:  append([]string(nil), g.Doctors...),
		Rows:     rows,
		statuses: g.statuses,
	}
}

// Merge folds an edited copy back into the grid: for each doctor column
// whose values differ row-wise, the stored column is overwritten in place.
// Rows are matched positionally, which is safe because dates are immutable
// within a generation. Merging an unchanged copy is a no-op, and merging
// the same edits twice equals merging them once.
func (g *Grid) Merge(edited *Grid) error {
	if edited == nil {
		return fmt.Errorf("nothing to merge")
	}
	if !g.Matches(edited.Year, edited.Month, edited.Doctors) {
		return fmt.Errorf("edited grid was generated for %d-%02d %v, this grid is %d-%02d %v",
			edited.Year, edited.Month, edited.Doctors, g.Year, g.Month, g.Doctors)
	}
	if len(edited.Rows) != len(g.Rows) {
		return fmt.Errorf("edited grid has %d rows, expected %d", len(edited.Rows), len(g.Rows))
	}

	for i := range g.Rows {
		if !g.Rows[i].Date.Equal(edited.Rows[i].Date) {
			return fmt.Errorf("row %d date mismatch", i)
		}
	}

	for _, doctor := range g.Doctors {
		for i := range g.Rows {
			status := edited.Rows[i].Statuses[doctor]
			if status == g.Rows[i].Statuses[doctor] {
				continue
			}
			if !g.statuses.Valid(status) {
				return fmt.Errorf("unknown status %q for %s on row %d", status, doctor, i)
			}
			g.Rows[i].Statuses[doctor] = status
		}
	}
	return nil
}
