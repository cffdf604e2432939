package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "turni_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromPath_MinimalWithDefaults(t *testing.T) {
	path := writeConfig(t, `
githubOwner: dodouchiha
githubRepo: turni_3
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "dodouchiha", cfg.GitHubOwner)
	assert.Equal(t, "turni_3", cfg.GitHubRepo)
	assert.Equal(t, DefaultBranch, cfg.GitHubBranch)
	assert.Equal(t, DefaultRosterPath, cfg.RosterPath)
	assert.Equal(t, DefaultMonthPathFormat, cfg.MonthPathFormat)
	assert.Equal(t, DefaultHolidayCountry, cfg.HolidayCountry)
	assert.Equal(t, DefaultBackupDir, cfg.BackupDir)
}

func TestLoadFromPath_FullConfig(t *testing.T) {
	path := writeConfig(t, `
githubOwner: dodouchiha
githubRepo: turni_3
githubBranch: develop
rosterPath: data/medici.json
holidayCountry: FR
absenceTypes: [Presente, Ferie, Permesso]
clinicRules:
  - rrule: FREQ=WEEKLY;BYDAY=MO,WE,FR
  - rrule: FREQ=WEEKLY;BYDAY=TU
    label: Ambulatorio pomeridiano
backupDir: /tmp/turni-backup
retry:
  maxAttempts: 5
  baseDelay: 250ms
  maxDelay: 10s
  timeout: 30s
spreadsheetID: abc123
spreadsheetTab: Turni
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "develop", cfg.GitHubBranch)
	assert.Equal(t, "FR", cfg.HolidayCountry)
	assert.Equal(t, []string{"Presente", "Ferie", "Permesso"}, cfg.StatusLabels())
	require.Len(t, cfg.ClinicRules, 2)
	assert.Equal(t, "Ambulatorio pomeridiano", cfg.ClinicRules[1].Label)

	policy := cfg.Retry.Policy()
	assert.Equal(t, 5, policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.BaseDelay)
	assert.Equal(t, 10*time.Second, policy.MaxDelay)
	assert.Equal(t, 30*time.Second, policy.Timeout)
}

func TestLoadFromPath_MissingRequiredFields(t *testing.T) {
	path := writeConfig(t, `
githubOwner: dodouchiha
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidRRuleRejected(t *testing.T) {
	path := writeConfig(t, `
githubOwner: dodouchiha
githubRepo: turni_3
clinicRules:
  - rrule: FREQ=SOMETIMES
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_InvalidCountryRejected(t *testing.T) {
	path := writeConfig(t, `
githubOwner: dodouchiha
githubRepo: turni_3
holidayCountry: ITALY
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoadFromPath_InvalidDurationRejected(t *testing.T) {
	path := writeConfig(t, `
githubOwner: dodouchiha
githubRepo: turni_3
retry:
  baseDelay: soon
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestRetryPolicy_DefaultsWhenUnset(t *testing.T) {
	policy := Retry{}.Policy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.NotZero(t, policy.BaseDelay)
	assert.NotZero(t, policy.Timeout)
}

func TestGitHubToken(t *testing.T) {
	t.Setenv(GitHubTokenEnv, "")
	_, err := GitHubToken()
	require.Error(t, err)

	t.Setenv(GitHubTokenEnv, "ghp_test")
	token, err := GitHubToken()
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", token)
}
