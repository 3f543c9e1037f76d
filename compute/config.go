package compute

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/internal/names"
)

// ClientConfig contains the configuration for creating a new compute client.
type ClientConfig struct {
	// APIHost is the API host (e.g., "https://www.googleapis.com/").
	APIHost string

	// ServiceVersion is the API version (e.g., "v1beta14").
	ServiceVersion string

	// Project is the denormalized name of the project to operate on.
	Project string

	// AccessToken is the OAuth2 bearer token sent with every request.
	AccessToken string

	// TraceToken is attached to every request as trace=token:<TraceToken>.
	// Optional.
	TraceToken string

	// UserAgent is sent with every request.
	// Default: "gcompute"
	UserAgent string

	// HTTPClient is the HTTP client to use for requests.
	// Optional: if nil, a default client with reasonable timeouts will be created.
	HTTPClient *http.Client

	// RetryAttempts is the number of times to retry failed requests.
	// Default: 3
	RetryAttempts int

	// RetryWaitMin is the initial wait time between retries.
	// Default: 500 milliseconds
	RetryWaitMin time.Duration

	// RetryWaitMax is the maximum wait time between retries.
	// Default: 10 seconds
	RetryWaitMax time.Duration

	// Timeout is the HTTP request timeout.
	// Default: 60 seconds
	Timeout time.Duration

	// RequestsPerSecond limits the request rate. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the number of requests allowed to exceed the rate at once.
	// Default: 10
	Burst int

	// Logger receives debug entries for every request.
	// Optional: defaults to a no-op logger.
	Logger *zap.Logger
}

// Validate checks if the client configuration is valid and sets defaults.
func (c *ClientConfig) Validate() error {
	c.APIHost = strings.TrimSpace(c.APIHost)
	if c.APIHost == "" {
		return fmt.Errorf("%w: api host is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.APIHost, "http://") && !strings.HasPrefix(c.APIHost, "https://") {
		return fmt.Errorf("%w: api host must start with http:// or https://", ErrInvalidConfig)
	}
	if !strings.HasSuffix(c.APIHost, "/") {
		c.APIHost += "/"
	}

	known := false
	for _, v := range names.SupportedVersions {
		if v == c.ServiceVersion {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown service version %q", ErrInvalidConfig, c.ServiceVersion)
	}

	if strings.TrimSpace(c.Project) == "" {
		return fmt.Errorf("%w: project is required", ErrInvalidConfig)
	}

	if c.UserAgent == "" {
		c.UserAgent = "gcompute"
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = 500 * time.Millisecond
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = 10 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Burst == 0 {
		c.Burst = 10
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout: c.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return nil
}
