package model

import "fmt"

// DefaultStatusLabels is the original label set used when the config does
// not override absenceTypes. The first label is the default status.
var DefaultStatusLabels = []string{
	"Presente",
	"Ferie",
	"Malattia",
	"Congresso",
	"Lezione",
	"Altro",
}

// StatusSet is the closed set of absence status labels for a deployment.
// Labels come from configuration; the first label is the default applied to
// every freshly generated grid cell.
type StatusSet struct {
	labels []string
	index  map[string]int
}

// NewStatusSet builds a status set from an ordered list of labels.
// Labels must be non-empty and unique.
func NewStatusSet(labels []string) (*StatusSet, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("status set requires at least one label")
	}

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("status label %d is empty", i)
		}
		if _, dup := index[label]; dup {
			return nil, fmt.Errorf("duplicate status label %q", label)
		}
		index[label] = i
	}

	return &StatusSet{labels: append([]string(nil), labels...), index: index}, nil
}

// Default returns the default status label.
func (s *StatusSet) Default() string {
	return s.labels[0]
}

// Valid reports whether label is a member of the set.
func (s *StatusSet) Valid(label string) bool {
	_, ok := s.index[label]
	return ok
}

// Labels returns the labels in configured order.
func (s *StatusSet) Labels() []string {
	return append([]string(nil), s.labels...)
}

// AbsenceEntry records a single non-default status for one doctor on one day.
// Field names follow the wire format of the month document.
type AbsenceEntry struct {
	Date   string `json:"date"`
	Status string `json:"tipo_assenza"`
}

// MonthDocument is the persisted per-month record of non-default statuses,
// keyed by doctor display name.
type MonthDocument struct {
	Year    int                       `json:"year"`
	Month   int                       `json:"month"`
	Doctors map[string][]AbsenceEntry `json:"medici"`
}
