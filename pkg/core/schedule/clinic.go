package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/dodouchiha/turni/pkg/core/holiday"
)

// DefaultClinicRRule marks the historical clinic days: Monday, Wednesday
// and Friday.
const DefaultClinicRRule = "FREQ=WEEKLY;BYDAY=MO,WE,FR"

// DefaultClinicLabel is the label written into matching rows.
const DefaultClinicLabel = "Ambulatorio"

// ClinicRule labels the days on which the clinic is open, described by an
// RFC 5545 recurrence rule. Holidays always win over a matching rule.
type ClinicRule struct {
	rule  *rrule.RRule
	label string
}

// NewClinicRule parses an rrule string into a clinic rule. An empty label
// falls back to DefaultClinicLabel.
func NewClinicRule(rruleStr, label string) (*ClinicRule, error) {
	r, err := rrule.StrToRRule(rruleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic rrule %q: %w", rruleStr, err)
	}
	if label == "" {
		label = DefaultClinicLabel
	}
	return &ClinicRule{rule: r, label: label}, nil
}

// DefaultClinicRule returns the Monday/Wednesday/Friday rule.
func DefaultClinicRule() *ClinicRule {
	rule, err := NewClinicRule(DefaultClinicRRule, DefaultClinicLabel)
	if err != nil {
		// The constant is known-valid.
		panic(err)
	}
	return rule
}

// Label returns the label applied to matching days.
func (c *ClinicRule) Label() string {
	return c.label
}

// DaysIn expands the rule over one month and returns the matching days
// keyed by holiday.DateFormat.
func (c *ClinicRule) DaysIn(year int, month time.Month) map[string]bool {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	c.rule.DTStart(start)

	days := make(map[string]bool)
	for _, occurrence := range c.rule.Between(start, end, true) {
		days[occurrence.Format(holiday.DateFormat)] = true
	}
	return days
}
