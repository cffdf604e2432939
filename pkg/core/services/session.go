// Package services wires the roster, grid and stores together behind
// explicit command handlers operating on a session state object.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dodouchiha/turni/pkg/core/holiday"
	"github.com/dodouchiha/turni/pkg/core/model"
	"github.com/dodouchiha/turni/pkg/core/roster"
	"github.com/dodouchiha/turni/pkg/core/schedule"
	"github.com/dodouchiha/turni/pkg/store"
)

// DefaultMonthPathFormat is the remote path of per-month documents,
// parameterized by year and month.
const DefaultMonthPathFormat = "turni/%04d-%02d.json"

// Redraw tells a front end what changed after a handler ran.
type Redraw int

const (
	RedrawNone   Redraw = 0
	RedrawRoster Redraw = 1 << 0
	RedrawGrid   Redraw = 1 << 1
)

// Has reports whether the mask includes the given part.
func (r Redraw) Has(part Redraw) bool {
	return r&part != 0
}

// Options configures a session.
type Options struct {
	RosterPath      string
	MonthPathFormat string
	Country         string
	Statuses        *model.StatusSet
	Lookup          holiday.Lookup
	ClinicRules     []*schedule.ClinicRule
}

// Session holds all per-session state: the roster, the current month
// selection, the active doctor subset and the derived grid, plus the
// version tokens of any month documents it has touched. One session serves
// one user; all operations run to completion on the caller's goroutine.
type Session struct {
	ID string

	docs   store.DocumentStore
	retry  *store.RetryPolicy
	backup *store.BackupCache
	logger *zap.Logger
	opts   Options

	roster      *roster.Roster
	active      []string
	year        int
	month       time.Month
	grid        *schedule.Grid
	monthTokens map[string]string
}

// NewSession loads the roster and builds the initial grid for the current
// month with every doctor selected, matching a fresh page load.
func NewSession(ctx context.Context, docs store.DocumentStore, retry *store.RetryPolicy, backup *store.BackupCache, logger *zap.Logger, opts Options) (*Session, error) {
	if opts.RosterPath == "" {
		return nil, fmt.Errorf("roster path is required")
	}
	if opts.Statuses == nil {
		return nil, fmt.Errorf("status set is required")
	}
	if opts.MonthPathFormat == "" {
		opts.MonthPathFormat = DefaultMonthPathFormat
	}

	s := &Session{
		ID:          uuid.New().String(),
		docs:        docs,
		retry:       retry,
		backup:      backup,
		logger:      logger,
		opts:        opts,
		monthTokens: make(map[string]string),
	}

	r, err := roster.Load(ctx, docs, retry, backup, logger, opts.RosterPath)
	if err != nil {
		return nil, err
	}
	s.roster = r
	s.active = r.Names()

	now := time.Now()
	s.year = now.Year()
	s.month = now.Month()
	s.regenerate()

	logger.Info("Session started",
		zap.String("session_id", s.ID),
		zap.Int("doctors", len(s.active)),
		zap.Int("year", s.year),
		zap.Int("month", int(s.month)),
		zap.Bool("degraded", r.Degraded()))

	return s, nil
}

// Close tears the session down. Grid edits that were not saved explicitly
// are discarded here, by design.
func (s *Session) Close() {
	s.logger.Info("Session ended", zap.String("session_id", s.ID))
	s.grid = nil
	s.monthTokens = nil
}

// Roster returns the underlying roster.
func (s *Session) Roster() *roster.Roster {
	return s.roster
}

// Active returns the currently selected doctors.
func (s *Session) Active() []string {
	return append([]string(nil), s.active...)
}

// Year returns the selected year.
func (s *Session) Year() int {
	return s.year
}

// Month returns the selected month.
func (s *Session) Month() time.Month {
	return s.month
}

// Grid returns the current grid, or nil when no doctor is selected.
func (s *Session) Grid() *schedule.Grid {
	return s.grid
}

// Degraded reports whether the session is running from backup data.
func (s *Session) Degraded() bool {
	return s.roster.Degraded()
}

// regenerate rebuilds the grid for the current selection, discarding any
// in-progress edits. An empty selection yields no grid.
func (s *Session) regenerate() {
	if len(s.active) == 0 {
		s.grid = nil
		return
	}
	s.grid = schedule.Generate(s.year, s.month, s.active, s.opts.Statuses, s.opts.Lookup, s.opts.Country, s.opts.ClinicRules...)
	s.logger.Debug("Grid regenerated",
		zap.String("session_id", s.ID),
		zap.Int("year", s.year),
		zap.Int("month", int(s.month)),
		zap.Strings("doctors", s.active))
}

// ensureGrid regenerates the grid only when it is stale for the current
// selection.
func (s *Session) ensureGrid() bool {
	if s.grid != nil && s.grid.Matches(s.year, s.month, s.active) {
		return false
	}
	if s.grid == nil && len(s.active) == 0 {
		return false
	}
	s.regenerate()
	return true
}

// monthPath returns the remote path of the current month's document.
func (s *Session) monthPath() string {
	return fmt.Sprintf(s.opts.MonthPathFormat, s.year, int(s.month))
}
