package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/dodouchiha/turni/pkg/core/model"
	"github.com/dodouchiha/turni/pkg/store"
)

// GitHubTokenEnv is the environment variable carrying the personal access
// token. Configuration files never hold the credential.
const GitHubTokenEnv = "GITHUB_TOKEN"

// Defaults applied by Load when the file omits the corresponding keys.
const (
	DefaultBranch          = "main"
	DefaultRosterPath      = "medici.json"
	DefaultMonthPathFormat = "turni/%04d-%02d.json"
	DefaultHolidayCountry  = "IT"
	DefaultBackupDir       = ".turni_backup"
)

// Duration wraps time.Duration with YAML string parsing ("500ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// ClinicRule configures one clinic-day recurrence.
type ClinicRule struct {
	RRule string `yaml:"rrule" validate:"required"`
	Label string `yaml:"label,omitempty"`
}

// Retry tunes the remote retry policy.
type Retry struct {
	MaxAttempts int      `yaml:"maxAttempts,omitempty" validate:"omitempty,min=1,max=10"`
	BaseDelay   Duration `yaml:"baseDelay,omitempty"`
	MaxDelay    Duration `yaml:"maxDelay,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
}

// Policy converts the retry section into a store.RetryPolicy, falling back
// to the store defaults for zero values.
func (r Retry) Policy() *store.RetryPolicy {
	policy := store.NewRetryPolicy()
	if r.MaxAttempts > 0 {
		policy.MaxAttempts = r.MaxAttempts
	}
	if r.BaseDelay > 0 {
		policy.BaseDelay = time.Duration(r.BaseDelay)
	}
	if r.MaxDelay > 0 {
		policy.MaxDelay = time.Duration(r.MaxDelay)
	}
	if r.Timeout > 0 {
		policy.Timeout = time.Duration(r.Timeout)
	}
	return policy
}

// Config represents the application configuration.
type Config struct {
	GitHubOwner     string       `yaml:"githubOwner" validate:"required"`
	GitHubRepo      string       `yaml:"githubRepo" validate:"required"`
	GitHubBranch    string       `yaml:"githubBranch,omitempty"`
	RosterPath      string       `yaml:"rosterPath,omitempty"`
	MonthPathFormat string       `yaml:"monthPathFormat,omitempty"`
	HolidayCountry  string       `yaml:"holidayCountry,omitempty" validate:"omitempty,iso3166_1_alpha2"`
	AbsenceTypes    []string     `yaml:"absenceTypes,omitempty" validate:"omitempty,min=1,unique,dive,required"`
	ClinicRules     []ClinicRule `yaml:"clinicRules,omitempty" validate:"dive"`
	BackupDir       string       `yaml:"backupDir,omitempty"`
	Retry           Retry        `yaml:"retry,omitempty"`

	// Optional Google Sheets publish target; publishing is disabled when
	// SpreadsheetID is empty.
	SpreadsheetID  string `yaml:"spreadsheetID,omitempty"`
	SpreadsheetTab string `yaml:"spreadsheetTab,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from turni_config.yaml,
// looked up in the current directory first, then in the user's home
// directory.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, rule := range cfg.ClinicRules {
		if _, err := rrule.StrToRRule(rule.RRule); err != nil {
			return fmt.Errorf("invalid rrule in clinicRules[%d]: %w", i, err)
		}
	}

	return nil
}

// GitHubToken reads the access token from the environment. A missing token
// is a fatal startup condition: the application cannot save anything
// without it.
func GitHubToken() (string, error) {
	token := os.Getenv(GitHubTokenEnv)
	if token == "" {
		return "", fmt.Errorf("%s is not set: the application cannot access the remote store", GitHubTokenEnv)
	}
	return token, nil
}

// StatusLabels returns the configured absence labels, or the historical
// default set.
func (c *Config) StatusLabels() []string {
	if len(c.AbsenceTypes) > 0 {
		return c.AbsenceTypes
	}
	return model.DefaultStatusLabels
}

func applyDefaults(cfg *Config) {
	if cfg.GitHubBranch == "" {
		cfg.GitHubBranch = DefaultBranch
	}
	if cfg.RosterPath == "" {
		cfg.RosterPath = DefaultRosterPath
	}
	if cfg.MonthPathFormat == "" {
		cfg.MonthPathFormat = DefaultMonthPathFormat
	}
	if cfg.HolidayCountry == "" {
		cfg.HolidayCountry = DefaultHolidayCountry
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = DefaultBackupDir
	}
}

// findConfigFile searches for turni_config.yaml in current directory and
// home directory.
func findConfigFile() (string, error) {
	configFileName := "turni_config.yaml"

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
