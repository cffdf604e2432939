package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dodouchiha/turni/pkg/core/holiday"
	"github.com/dodouchiha/turni/pkg/core/model"
	"github.com/dodouchiha/turni/pkg/store"
)

// SaveMonth persists the current grid's non-default statuses as the month
// document for the selected period. Saving is the only way grid edits
// survive the session. When the session has not touched this month's
// document yet, its current version token is fetched first so the write
// still goes through compare-and-swap.
func (s *Session) SaveMonth(ctx context.Context) error {
	if s.grid == nil {
		return fmt.Errorf("no grid: select at least one doctor first")
	}

	doc := s.buildMonthDocument()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode month document: %w", err)
	}

	path := s.monthPath()
	token, known := s.monthTokens[path]
	if !known {
		token, err = s.fetchMonthToken(ctx, path)
		if err != nil {
			return err
		}
	}

	var newToken string
	err = s.retry.Do(ctx, s.logger, "save month", func(ctx context.Context) error {
		var err error
		newToken, err = s.docs.Put(ctx, path, data, token)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save month document: %w", err)
	}

	s.monthTokens[path] = newToken
	s.backup.Save(path, data)
	s.logger.Info("Month document saved",
		zap.String("session_id", s.ID),
		zap.String("path", path),
		zap.Int("doctors", len(doc.Doctors)))
	return nil
}

// LoadMonth regenerates the grid for the current selection and applies the
// saved month document on top of it. Falls back to the local backup when
// the remote is unreachable.
func (s *Session) LoadMonth(ctx context.Context) error {
	if len(s.active) == 0 {
		return fmt.Errorf("no doctors selected")
	}

	path := s.monthPath()

	var (
		data  []byte
		token string
	)
	err := s.retry.Do(ctx, s.logger, "load month", func(ctx context.Context) error {
		var err error
		data, token, err = s.docs.Get(ctx, path)
		return err
	})

	switch {
	case err == nil:
		s.monthTokens[path] = token
		s.backup.Save(path, data)

	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("no saved document for %04d-%02d: %w", s.year, int(s.month), err)

	case store.IsTransient(err) || errors.Is(err, store.ErrCorrupt):
		data = s.backup.Load(path)
		if data == nil {
			return fmt.Errorf("failed to load month document: %w", err)
		}
		s.logger.Warn("Loaded month document from local backup",
			zap.String("path", path),
			zap.Error(err))

	default:
		return fmt.Errorf("failed to load month document: %w", err)
	}

	var doc model.MonthDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	if doc.Year != s.year || doc.Month != int(s.month) {
		return fmt.Errorf("document at %s is for %04d-%02d, session is on %04d-%02d",
			path, doc.Year, doc.Month, s.year, int(s.month))
	}

	s.regenerate()
	s.applyMonthDocument(&doc)
	return nil
}

// buildMonthDocument collects every non-default status of the current grid.
func (s *Session) buildMonthDocument() *model.MonthDocument {
	doc := &model.MonthDocument{
		Year:    s.year,
		Month:   int(s.month),
		Doctors: make(map[string][]model.AbsenceEntry),
	}

	defaultStatus := s.opts.Statuses.Default()
	for _, doctor := range s.grid.Doctors {
		var entries []model.AbsenceEntry
		for _, row := range s.grid.Rows {
			status := row.Statuses[doctor]
			if status == defaultStatus {
				continue
			}
			entries = append(entries, model.AbsenceEntry{
				Date:   row.Date.Format(holiday.DateFormat),
				Status: status,
			})
		}
		if entries != nil {
			doc.Doctors[doctor] = entries
		}
	}
	return doc
}

// applyMonthDocument writes saved statuses onto the freshly generated grid.
// Entries for doctors outside the current selection, unknown statuses and
// out-of-month dates are skipped with a warning rather than failing the
// whole load.
func (s *Session) applyMonthDocument(doc *model.MonthDocument) {
	applied, skipped := 0, 0
	for doctor, entries := range doc.Doctors {
		for _, entry := range entries {
			date, err := time.Parse(holiday.DateFormat, entry.Date)
			if err != nil || date.Year() != s.year || date.Month() != s.month {
				skipped++
				continue
			}
			if err := s.grid.SetStatus(date.Day(), doctor, entry.Status); err != nil {
				skipped++
				continue
			}
			applied++
		}
	}

	if skipped > 0 {
		s.logger.Warn("Some saved statuses could not be applied",
			zap.String("session_id", s.ID),
			zap.Int("applied", applied),
			zap.Int("skipped", skipped))
	} else {
		s.logger.Debug("Month document applied",
			zap.String("session_id", s.ID),
			zap.Int("applied", applied))
	}
}

// fetchMonthToken resolves the current version token of a month document
// the session has not written before. Absence means the save will create
// the document.
func (s *Session) fetchMonthToken(ctx context.Context, path string) (string, error) {
	var token string
	err := s.retry.Do(ctx, s.logger, "probe month token", func(ctx context.Context) error {
		var err error
		_, token, err = s.docs.Get(ctx, path)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check month document: %w", err)
	}
	return token, nil
}
