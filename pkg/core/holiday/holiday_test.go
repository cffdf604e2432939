package holiday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForCountry_Italy(t *testing.T) {
	holidays := ForCountry("IT", 2025)
	require.NotEmpty(t, holidays)

	// Fixed-date nationals that exist every year.
	assert.Contains(t, holidays, "2025-01-01") // Capodanno
	assert.Contains(t, holidays, "2025-08-15") // Ferragosto
	assert.Contains(t, holidays, "2025-12-25") // Natale

	name := holidays["2025-12-25"]
	assert.NotEmpty(t, name)
}

func TestForCountry_CaseInsensitiveCode(t *testing.T) {
	upper := ForCountry("IT", 2025)
	lower := ForCountry("it", 2025)
	assert.Equal(t, upper, lower)
}

func TestForCountry_UnknownCountryDegrades(t *testing.T) {
	holidays := ForCountry("ZZ", 2025)
	assert.NotNil(t, holidays)
	assert.Empty(t, holidays)
}

func TestMap_ContainsAndName(t *testing.T) {
	holidays := ForCountry("IT", 2025)

	christmas := time.Date(2025, 12, 25, 10, 30, 0, 0, time.UTC)
	assert.True(t, holidays.Contains(christmas), "time of day must not matter")
	assert.NotEmpty(t, holidays.Name(christmas))

	ordinary := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.False(t, holidays.Contains(ordinary))
	assert.Empty(t, holidays.Name(ordinary))
}

func TestForCountry_FlagAndNameConsistent(t *testing.T) {
	holidays := ForCountry("IT", 2025)
	for date, name := range holidays {
		assert.NotEmpty(t, name, "holiday on %s has no name", date)
	}
}
