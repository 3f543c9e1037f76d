package helpers

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaroslav/gcompute/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIClient sends raw HTTP requests to a fake compute API.
type APIClient struct {
	BaseURL string
	Token   string
	t       *testing.T
}

// NewAPIClient creates a client for the API rooted at baseURL. Requests
// carry token as a bearer token unless it is empty.
func NewAPIClient(t *testing.T, baseURL, token string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		t:       t,
	}
}

// Request represents an HTTP request configuration.
type Request struct {
	Method  string
	Path    string
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response with helpers.
type Response struct {
	*http.Response
	Body []byte
	t    *testing.T
}

// Do executes an HTTP request and returns a response.
func (c *APIClient) Do(req Request) *Response {
	c.t.Helper()

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		require.NoError(c.t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(req.Method, c.BaseURL+req.Path, bodyReader)
	require.NoError(c.t, err, "failed to create request")

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	httpResp, err := http.DefaultClient.Do(httpReq)
	require.NoError(c.t, err, "request failed")

	bodyBytes, err := io.ReadAll(httpResp.Body)
	require.NoError(c.t, err, "failed to read response body")
	httpResp.Body.Close()

	return &Response{
		Response: httpResp,
		Body:     bodyBytes,
		t:        c.t,
	}
}

// GET executes a GET request.
func (c *APIClient) GET(path string, headers ...map[string]string) *Response {
	req := Request{Method: http.MethodGet, Path: path}
	if len(headers) > 0 {
		req.Headers = headers[0]
	}
	return c.Do(req)
}

// POST executes a POST request.
func (c *APIClient) POST(path string, body interface{}, headers ...map[string]string) *Response {
	req := Request{Method: http.MethodPost, Path: path, Body: body}
	if len(headers) > 0 {
		req.Headers = headers[0]
	}
	return c.Do(req)
}

// DELETE executes a DELETE request.
func (c *APIClient) DELETE(path string, headers ...map[string]string) *Response {
	req := Request{Method: http.MethodDelete, Path: path}
	if len(headers) > 0 {
		req.Headers = headers[0]
	}
	return c.Do(req)
}

// AssertStatus asserts the response status code.
func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()
	assert.Equal(r.t, expected, r.StatusCode,
		"unexpected status code\nBody: %s", string(r.Body))
	return r
}

// RequireStatus requires the response status code.
func (r *Response) RequireStatus(expected int) *Response {
	r.t.Helper()
	require.Equal(r.t, expected, r.StatusCode,
		"unexpected status code\nBody: %s", string(r.Body))
	return r
}

// RequireJSON unmarshals JSON and requires no error.
func (r *Response) RequireJSON(v interface{}) *Response {
	r.t.Helper()
	err := json.Unmarshal(r.Body, v)
	require.NoError(r.t, err, "failed to unmarshal JSON: %s", string(r.Body))
	return r
}

// Resource decodes the body as a single resource.
func (r *Response) Resource() models.Resource {
	r.t.Helper()
	var res models.Resource
	r.RequireJSON(&res)
	return res
}

// AssertError asserts the response is an API error envelope whose first
// error has the given reason.
func (r *Response) AssertError(reason string) *Response {
	r.t.Helper()

	var errResp models.ErrorResponse
	err := json.Unmarshal(r.Body, &errResp)
	require.NoError(r.t, err, "failed to unmarshal error response")

	assert.Equal(r.t, r.StatusCode, errResp.Error.Code, "error code should match the status")
	if assert.NotEmpty(r.t, errResp.Error.Errors, "error envelope has no errors") {
		assert.Equal(r.t, reason, errResp.Error.Errors[0].Reason,
			"unexpected error reason\nMessage: %s", errResp.Error.Message)
	}
	return r
}

// AssertContains asserts the body contains a substring.
func (r *Response) AssertContains(substr string) *Response {
	r.t.Helper()
	assert.Contains(r.t, string(r.Body), substr, "response body should contain substring")
	return r
}
