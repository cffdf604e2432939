// Package holiday resolves public holidays for a country and year.
package holiday

import (
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/us"
)

// DateFormat keys holiday maps by calendar day, avoiding time.Time equality
// pitfalls across locations.
const DateFormat = "2006-01-02"

// Map holds the holidays of one year keyed by DateFormat date.
type Map map[string]string

// Lookup resolves the holidays for a country and year. Implementations must
// degrade to an empty map instead of failing.
type Lookup func(countryCode string, year int) Map

// countries maps ISO 3166-1 alpha-2 codes to their national holiday
// definitions.
var countries = map[string][]*cal.Holiday{
	"IT": it.Holidays,
	"US": us.Holidays,
	"GB": gb.Holidays,
	"DE": de.Holidays,
	"FR": fr.Holidays,
}

// ForCountry returns the holidays of the given country in the given year.
// Unknown country codes and years with no definitions yield an empty map.
func ForCountry(countryCode string, year int) Map {
	defs, ok := countries[strings.ToUpper(countryCode)]
	if !ok {
		return Map{}
	}

	result := make(Map, len(defs))
	for _, h := range defs {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		result[actual.Format(DateFormat)] = h.Name
	}
	return result
}

// Contains reports whether date falls on a holiday.
func (m Map) Contains(date time.Time) bool {
	_, ok := m[date.Format(DateFormat)]
	return ok
}

// Name returns the holiday name for date, or "" when date is not a holiday.
func (m Map) Name(date time.Time) string {
	return m[date.Format(DateFormat)]
}
