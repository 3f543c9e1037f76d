// Package main runs the in-memory fake compute API for local development.
//
// Point gcompute at it with --api_host=http://localhost:8080/ and the
// --access_token given here:
//
//	fakecompute -listen :8080 -project my-project -token dev
//	gcompute --api_host=http://localhost:8080/ --project=my-project --access_token=dev listzones
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/internal/auth"
	"github.com/yaroslav/gcompute/internal/fakecompute"
	"github.com/yaroslav/gcompute/internal/logging"
)

// Config holds server configuration from flags and environment variables.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// Project is the project created at startup.
	Project string

	// AccessToken is the bearer token clients must send. Empty disables auth.
	AccessToken string

	// GenerateToken makes up a random AccessToken when none is given.
	GenerateToken bool

	// OperationPolls is the number of polls before an operation is DONE.
	OperationPolls int

	// SnapshotPolls is the number of snapshot lists before a snapshot is READY.
	SnapshotPolls int

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string

	// LogFormat is the log format (json, console).
	LogFormat string
}

// parseFlags parses command-line flags and environment variables.
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ListenAddr, "listen", getEnv("FAKECOMPUTE_LISTEN_ADDR", ":8080"),
		"Address to listen on")
	flag.StringVar(&config.Project, "project", getEnv("FAKECOMPUTE_PROJECT", "my-project"),
		"Project to create at startup")
	flag.StringVar(&config.AccessToken, "token", getEnv("FAKECOMPUTE_ACCESS_TOKEN", ""),
		"Bearer token clients must present (empty disables authentication)")
	flag.BoolVar(&config.GenerateToken, "generate-token", false,
		"Generate a random token when -token is empty")
	flag.IntVar(&config.OperationPolls, "operation-polls", getEnvInt("FAKECOMPUTE_OPERATION_POLLS", 1),
		"Number of polls before an operation is DONE")
	flag.IntVar(&config.SnapshotPolls, "snapshot-polls", getEnvInt("FAKECOMPUTE_SNAPSHOT_POLLS", 1),
		"Number of snapshot lists before a new snapshot is READY")
	flag.StringVar(&config.LogLevel, "log-level", getEnv("FAKECOMPUTE_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	flag.StringVar(&config.LogFormat, "log-format", getEnv("FAKECOMPUTE_LOG_FORMAT", "console"),
		"Log format (json, console)")

	flag.Parse()

	return config
}

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

// validateConfig validates the server configuration.
func validateConfig(config *Config) error {
	if config.Project == "" {
		return fmt.Errorf("project is required (set FAKECOMPUTE_PROJECT or use -project flag)")
	}
	if config.OperationPolls < 0 || config.SnapshotPolls < 0 {
		return fmt.Errorf("poll counts cannot be negative")
	}
	return nil
}

func main() {
	config := parseFlags()

	if err := validateConfig(config); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	format, err := logging.ParseFormat(config.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.MustNewLogger(logging.Config{Level: config.LogLevel, Format: format}, os.Stderr)
	defer logger.Sync()

	if config.AccessToken == "" && config.GenerateToken {
		token, err := auth.Generate()
		if err != nil {
			logger.Fatal("failed to generate access token", zap.Error(err))
		}
		config.AccessToken = token
		fmt.Printf("Access token: %s\n", token)
	}

	gin.SetMode(gin.ReleaseMode)

	srv := fakecompute.New(fakecompute.Config{
		Logger:         logger,
		AccessToken:    config.AccessToken,
		OperationPolls: config.OperationPolls,
		SnapshotPolls:  config.SnapshotPolls,
	})
	srv.SeedDefaults(config.Project)

	logger.Info("starting fakecompute",
		zap.String("listen_addr", config.ListenAddr),
		zap.String("project", config.Project),
		zap.Bool("auth", config.AccessToken != ""),
	)

	if err := http.ListenAndServe(config.ListenAddr, srv.Handler()); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
