// Package compute is a typed client for the compute REST API.
package compute

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to one project of the compute API.
type Client struct {
	// Namer builds resource paths for the configured host, version and project.
	Namer *names.Namer

	// Project is the project the client operates on.
	Project string

	// AccessToken is the OAuth2 bearer token.
	AccessToken string

	// TraceToken is attached to every request when set.
	TraceToken string

	// UserAgent is sent with every request.
	UserAgent string

	// HTTPClient is the HTTP client used for requests.
	HTTPClient *http.Client

	// RetryAttempts is the number of times to retry failed requests.
	RetryAttempts int

	// RetryWaitMin is the initial wait time between retries.
	RetryWaitMin time.Duration

	// RetryWaitMax is the maximum wait time between retries.
	RetryWaitMax time.Duration

	limiter *rate.Limiter
	logger  *zap.Logger
}

// ListOptions are the query parameters of a list call.
type ListOptions struct {
	// MaxResults limits the number of items. Zero means no limit.
	MaxResults int

	// Filter is a filter expression such as "name eq my-.*".
	Filter string

	// PageToken selects the page to fetch.
	PageToken string
}

// NewClient creates a new compute client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		Namer:         names.NewNamer(config.APIHost, config.ServiceVersion, config.Project),
		Project:       config.Project,
		AccessToken:   config.AccessToken,
		TraceToken:    config.TraceToken,
		UserAgent:     config.UserAgent,
		HTTPClient:    config.HTTPClient,
		RetryAttempts: config.RetryAttempts,
		RetryWaitMin:  config.RetryWaitMin,
		RetryWaitMax:  config.RetryWaitMax,
		logger:        config.Logger,
	}
	if config.RequestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	}

	return client, nil
}

// resolveURL turns a relative REST path into a full URL. Absolute URLs,
// such as selfLinks and normalized resource names, are used as they are.
func (c *Client) resolveURL(path string, query url.Values) string {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.Namer.BaseURL() + "/" + strings.TrimPrefix(path, "/")
	}

	if c.TraceToken != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("trace", "token:"+c.TraceToken)
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

// doJSONRequest performs a request and decodes the JSON response.
// A response without a body yields a nil resource.
func (c *Client) doJSONRequest(ctx context.Context, method, path string, query url.Values, reqBody interface{}) (models.Resource, error) {
	var body []byte
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = data
	}

	resp, err := c.doRequestWithRetry(ctx, method, c.resolveURL(path, query), body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseErrorResponse(resp)
	}

	return c.parseJSONResponse(resp)
}

// parseJSONResponse decodes a response body into a resource.
func (c *Client) parseJSONResponse(resp *http.Response) (models.Resource, error) {
	defer drainAndCloseBody(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var result models.Resource
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return result, nil
}

// parseErrorResponse builds an HTTPError from a non-2xx response.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	defer drainAndCloseBody(resp)

	data, _ := io.ReadAll(resp.Body)
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Body:       data,
	}

	var apiErr models.ErrorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil {
		seen := make(map[string]bool)
		add := func(msg string) {
			if msg != "" && !seen[msg] {
				seen[msg] = true
				httpErr.Messages = append(httpErr.Messages, msg)
			}
		}
		add(apiErr.Error.Message)
		for _, item := range apiErr.Error.Errors {
			add(item.Message)
		}
	}

	return httpErr
}

func reasonPhrase(resp *http.Response) string {
	status := resp.Status
	if prefix := strconv.Itoa(resp.StatusCode) + " "; strings.HasPrefix(status, prefix) {
		return strings.TrimPrefix(status, prefix)
	}
	return http.StatusText(resp.StatusCode)
}

// Get fetches a single resource by relative path or absolute URL.
func (c *Client) Get(ctx context.Context, path string) (models.Resource, error) {
	return c.doJSONRequest(ctx, http.MethodGet, path, nil, nil)
}

// Insert creates a resource in the collection at path and returns the
// resulting operation.
func (c *Client) Insert(ctx context.Context, path string, body interface{}) (models.Resource, error) {
	return c.doJSONRequest(ctx, http.MethodPost, path, nil, body)
}

// Delete removes the resource at path and returns the resulting operation.
// Deleting an operation returns no body.
func (c *Client) Delete(ctx context.Context, path string) (models.Resource, error) {
	return c.doJSONRequest(ctx, http.MethodDelete, path, nil, nil)
}

// ListPage fetches a single page of the collection at path.
func (c *Client) ListPage(ctx context.Context, path string, opts ListOptions) (models.Resource, error) {
	query := url.Values{}
	if opts.MaxResults > 0 {
		query.Set("maxResults", strconv.Itoa(opts.MaxResults))
	}
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}
	if opts.PageToken != "" {
		query.Set("pageToken", opts.PageToken)
	}
	return c.doJSONRequest(ctx, http.MethodGet, path, query, nil)
}

// All lists every page of the collection at path.
//
// Parameters:
//   - ctx: Request context for cancellation and timeouts
//   - path: Relative REST path of the collection
//   - opts: MaxResults truncates the combined result; Filter is passed through
//
// Returns:
//   - models.Resource: {kind, items} with the items of every page
//   - error: The first request error
func (c *Client) All(ctx context.Context, path string, opts ListOptions) (models.Resource, error) {
	var (
		kind  string
		items []models.Resource
	)

	opts.PageToken = ""
	for {
		page, err := c.ListPage(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		kind = page.Kind()
		items = append(items, page.Items()...)

		next := page.String("nextPageToken")
		if next == "" {
			break
		}
		opts.PageToken = next
	}

	if opts.MaxResults > 0 && len(items) > opts.MaxResults {
		items = items[:opts.MaxResults]
	}
	if items == nil {
		items = []models.Resource{}
	}
	return models.NewList(kind, items), nil
}

// AllNames is like All but returns only the resource names.
func (c *Client) AllNames(ctx context.Context, path string, opts ListOptions) ([]string, error) {
	list, err := c.All(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	items := list.Items()
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.Name())
	}
	return result, nil
}
