// Package config loads the global gcompute settings from flags, environment
// variables and an optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/internal/names"
)

// EnvPrefix is the prefix of the inspected environment variables.
const EnvPrefix = "GCOMPUTE"

// DefaultConfigFile is the configuration file read from the home directory
// when --config is not given.
const DefaultConfigFile = ".gcompute.yaml"

// Output formats.
const (
	FormatTable  = format.FormatTable
	FormatSparse = format.FormatSparse
	FormatJSON   = format.FormatJSON
	FormatCSV    = format.FormatCSV
	FormatNames  = format.FormatNames
	FormatYAML   = format.FormatYAML
)

// Long value display formats.
const (
	DisplayElided = format.DisplayElided
	DisplayFull   = format.DisplayFull
)

// Formats lists the valid --format values.
var Formats = []string{FormatTable, FormatSparse, FormatJSON, FormatCSV, FormatNames, FormatYAML}

// Global holds the resolved global settings of one invocation.
type Global struct {
	ServiceVersion          string
	APIHost                 string
	Project                 string
	ProjectID               string
	Format                  string
	LongValuesDisplayFormat string
	SynchronousMode         bool
	SleepBetweenPolls       int
	MaxWaitTime             int
	TraceToken              string
	ConcurrentOperations    int
	AccessToken             string
	CredentialsFile         string
	ConfigFile              string
	CacheFlagValues         bool
	LogLevel                string
	LogFormat               string
	MetricsFile             string
	RequestsPerSecond       float64
}

// InitViper sets up env var handling for a viper.
func InitViper(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.SetTypeByDefaultValue(true)
	v.AutomaticEnv()
}

// Load binds every flag of fs into a new viper and reads the configuration
// file. An explicit --config file must exist; the default file is optional.
func Load(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	InitViper(v)

	var bindErr error
	fs.VisitAll(func(flag *pflag.Flag) {
		if err := v.BindPFlag(flag.Name, flag); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	configPath := v.GetString(FlagConfig)
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath()
	}
	if configPath == "" {
		return v, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		if explicit {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return v, nil
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return v, nil
}

// ApplyToFlags copies values found in the environment or configuration file
// into flags the user did not set on the command line, so that command
// specific flags such as --zone pick them up as well.
func ApplyToFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var applyErr error
	fs.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || applyErr != nil {
			return
		}
		if strings.Contains(flag.Value.Type(), "Slice") || strings.Contains(flag.Value.Type(), "Array") {
			return
		}
		if !v.IsSet(flag.Name) {
			return
		}
		value := v.GetString(flag.Name)
		if value == flag.DefValue {
			return
		}
		if err := fs.Set(flag.Name, value); err != nil {
			applyErr = fmt.Errorf("invalid value %q for %s: %w", value, flag.Name, err)
		}
	})
	return applyErr
}

// FromViper resolves the global settings.
func FromViper(v *viper.Viper) *Global {
	g := &Global{
		ServiceVersion:          v.GetString(FlagServiceVersion),
		APIHost:                 v.GetString(FlagAPIHost),
		Project:                 v.GetString(FlagProject),
		ProjectID:               v.GetString(FlagProjectID),
		Format:                  v.GetString(FlagFormat),
		LongValuesDisplayFormat: v.GetString(FlagLongValuesDisplayFormat),
		SynchronousMode:         v.GetBool(FlagSynchronousMode),
		SleepBetweenPolls:       v.GetInt(FlagSleepBetweenPolls),
		MaxWaitTime:             v.GetInt(FlagMaxWaitTime),
		TraceToken:              v.GetString(FlagTraceToken),
		ConcurrentOperations:    v.GetInt(FlagConcurrentOperations),
		AccessToken:             v.GetString(FlagAccessToken),
		CredentialsFile:         v.GetString(FlagCredentialsFile),
		ConfigFile:              v.ConfigFileUsed(),
		CacheFlagValues:         v.GetBool(FlagCacheFlagValues),
		LogLevel:                v.GetString(FlagLogLevel),
		LogFormat:               v.GetString(FlagLogFormat),
		MetricsFile:             v.GetString(FlagMetricsFile),
		RequestsPerSecond:       v.GetFloat64(FlagRequestsPerSecond),
	}
	if v.GetBool(FlagPrintJSON) {
		g.Format = FormatJSON
	}
	if g.ConfigFile == "" {
		g.ConfigFile = v.GetString(FlagConfig)
	}
	if g.APIHost != "" && !strings.HasSuffix(g.APIHost, "/") {
		g.APIHost += "/"
	}
	return g
}

// Validate checks enumerations and numeric ranges.
func (g *Global) Validate() error {
	if !contains(names.SupportedVersions, g.ServiceVersion) {
		return fmt.Errorf("%s must be one of: %s", FlagServiceVersion, strings.Join(names.SupportedVersions, ", "))
	}
	if !strings.HasPrefix(g.APIHost, "http://") && !strings.HasPrefix(g.APIHost, "https://") {
		return fmt.Errorf("%s must start with http:// or https://", FlagAPIHost)
	}
	if !contains(Formats, g.Format) {
		return fmt.Errorf("%s must be one of: %s", FlagFormat, strings.Join(Formats, ", "))
	}
	if g.LongValuesDisplayFormat != DisplayElided && g.LongValuesDisplayFormat != DisplayFull {
		return fmt.Errorf("%s must be one of: %s, %s", FlagLongValuesDisplayFormat, DisplayElided, DisplayFull)
	}
	if err := checkRange(FlagSleepBetweenPolls, g.SleepBetweenPolls, 1, 600); err != nil {
		return err
	}
	if err := checkRange(FlagMaxWaitTime, g.MaxWaitTime, 30, 1200); err != nil {
		return err
	}
	if err := checkRange(FlagConcurrentOperations, g.ConcurrentOperations, 1, 20); err != nil {
		return err
	}
	if g.RequestsPerSecond < 0 {
		return errors.New(FlagRequestsPerSecond + " cannot be negative")
	}
	return nil
}

// SleepInterval returns --sleep_between_polls as a duration.
func (g *Global) SleepInterval() time.Duration {
	return time.Duration(g.SleepBetweenPolls) * time.Second
}

// MaxWait returns --max_wait_time as a duration.
func (g *Global) MaxWait() time.Duration {
	return time.Duration(g.MaxWaitTime) * time.Second
}

// DefaultConfigPath returns ~/.gcompute.yaml, or "" if the home directory
// cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultConfigFile)
}

func checkRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
