package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dodouchiha/turni/pkg/core/roster"
	"github.com/dodouchiha/turni/pkg/core/schedule"
)

// OnAddDoctor validates and persists a new doctor, selects them and
// regenerates the grid. Nothing changes when the remote write fails.
func (s *Session) OnAddDoctor(ctx context.Context, raw string) (Redraw, error) {
	name, err := s.roster.Add(ctx, raw)
	if err != nil {
		return RedrawNone, err
	}

	s.active = append(s.active, name)
	s.sortActive()
	s.regenerate()
	return RedrawRoster | RedrawGrid, nil
}

// OnRemoveDoctor persists the roster without the doctor and drops them from
// the active selection, regenerating the grid if they were part of it.
func (s *Session) OnRemoveDoctor(ctx context.Context, name string) (Redraw, error) {
	if err := s.roster.Remove(ctx, name); err != nil {
		return RedrawNone, err
	}

	redraw := RedrawRoster
	key := roster.FoldKey(name)
	kept := s.active[:0]
	removed := false
	for _, n := range s.active {
		if roster.FoldKey(n) == key {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	s.active = kept

	if removed {
		s.regenerate()
		redraw |= RedrawGrid
	}
	return redraw, nil
}

// OnSelectDoctors replaces the active selection. Every name must be a
// roster member. A selection change invalidates the grid.
func (s *Session) OnSelectDoctors(names []string) (Redraw, error) {
	selected := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !s.roster.Contains(name) {
			return RedrawNone, &roster.ValidationError{Name: name, Reason: "not in the roster"}
		}
		key := roster.FoldKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, name)
	}

	s.active = selected
	s.sortActive()
	if s.ensureGrid() {
		return RedrawGrid, nil
	}
	return RedrawNone, nil
}

// OnMonthChange switches the session to another month. A changed period
// invalidates the grid and discards unsaved edits.
func (s *Session) OnMonthChange(year, month int) (Redraw, error) {
	if month < 1 || month > 12 {
		return RedrawNone, fmt.Errorf("month must be 1-12, got %d", month)
	}
	if year < 1 {
		return RedrawNone, fmt.Errorf("year must be positive, got %d", year)
	}

	s.year = year
	s.month = time.Month(month)
	if s.ensureGrid() {
		return RedrawGrid, nil
	}
	return RedrawNone, nil
}

// OnCellEdit sets one doctor's status on one day of the current grid.
func (s *Session) OnCellEdit(day int, doctor, status string) (Redraw, error) {
	if s.grid == nil {
		return RedrawNone, fmt.Errorf("no grid: select at least one doctor first")
	}
	if err := s.grid.SetStatus(day, doctor, status); err != nil {
		return RedrawNone, err
	}
	return RedrawGrid, nil
}

// OnGridEdit merges an externally edited copy of the grid back into the
// session's grid.
func (s *Session) OnGridEdit(edited *schedule.Grid) (Redraw, error) {
	if s.grid == nil {
		return RedrawNone, fmt.Errorf("no grid: select at least one doctor first")
	}
	if err := s.grid.Merge(edited); err != nil {
		return RedrawNone, err
	}
	return RedrawGrid, nil
}

func (s *Session) sortActive() {
	sort.Strings(s.active)
}
