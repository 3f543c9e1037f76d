package config

import (
	"github.com/spf13/pflag"

	"github.com/yaroslav/gcompute/internal/names"
)

// Global flag names. Viper keys, config file keys and environment variables
// (GCOMPUTE_<NAME>) use the same names.
const (
	FlagServiceVersion          = "service_version"
	FlagAPIHost                 = "api_host"
	FlagProject                 = "project"
	FlagProjectID               = "project_id"
	FlagFormat                  = "format"
	FlagPrintJSON               = "print_json"
	FlagLongValuesDisplayFormat = "long_values_display_format"
	FlagSynchronousMode         = "synchronous_mode"
	FlagSleepBetweenPolls       = "sleep_between_polls"
	FlagMaxWaitTime             = "max_wait_time"
	FlagTraceToken              = "trace_token"
	FlagConcurrentOperations    = "concurrent_operations"
	FlagAccessToken             = "access_token"
	FlagCredentialsFile         = "credentials_file"
	FlagConfig                  = "config"
	FlagCacheFlagValues         = "cache_flag_values"
	FlagLogLevel                = "log_level"
	FlagLogFormat               = "log_format"
	FlagMetricsFile             = "metrics_file"
	FlagRequestsPerSecond       = "requests_per_second"
)

// Defaults for the global flags.
const (
	DefaultSleepBetweenPolls    = 3
	DefaultMaxWaitTime          = 240
	DefaultConcurrentOperations = 10
	DefaultRequestsPerSecond    = 20.0
)

// AddFlags defines the global flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(FlagServiceVersion, names.DefaultServiceVersion, "API version to use (v1beta13 or v1beta14)")
	fs.String(FlagAPIHost, names.DefaultAPIHost, "API host to connect to")
	fs.String(FlagProject, "", "Name of the project to operate on")
	fs.String(FlagProjectID, "", "Deprecated, use --project")
	fs.String(FlagFormat, FormatTable, "Output format: table, sparse, json, csv, names or yaml")
	fs.Bool(FlagPrintJSON, false, "Deprecated, use --format=json")
	fs.String(FlagLongValuesDisplayFormat, DisplayElided, "How long values are shown in tables: elided or full")
	fs.Bool(FlagSynchronousMode, true, "Wait for operations to complete before returning")
	fs.Int(FlagSleepBetweenPolls, DefaultSleepBetweenPolls, "Seconds to sleep between operation polls (1-600)")
	fs.Int(FlagMaxWaitTime, DefaultMaxWaitTime, "Maximum seconds to wait for an operation to complete (30-1200)")
	fs.String(FlagTraceToken, "", "Trace token attached to every API request")
	fs.Int(FlagConcurrentOperations, DefaultConcurrentOperations, "Maximum number of concurrent API requests (1-20)")
	fs.String(FlagAccessToken, "", "OAuth2 access token for the API")
	fs.String(FlagCredentialsFile, "", "File holding the OAuth2 access token (default ~/.gcompute/credentials)")
	fs.String(FlagConfig, "", "Path to a YAML configuration file (default ~/.gcompute.yaml)")
	fs.Bool(FlagCacheFlagValues, false, "Save --project and --zone to the configuration file")
	fs.String(FlagLogLevel, "info", "Log level: debug, info, warn or error")
	fs.String(FlagLogFormat, "console", "Log format: console or json")
	fs.String(FlagMetricsFile, "", "Write Prometheus metrics to this file on exit")
	fs.Float64(FlagRequestsPerSecond, DefaultRequestsPerSecond, "Maximum API requests per second (0 disables limiting)")

	_ = fs.MarkDeprecated(FlagProjectID, "use --project instead")
	_ = fs.MarkDeprecated(FlagPrintJSON, "use --format=json instead")
}
