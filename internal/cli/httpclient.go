package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"
)

// HTTPError is an error response from the server.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// HTTPClient makes requests to the inventory server.
type HTTPClient struct {
	config     *Config
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

func NewHTTPClient(config *Config) *HTTPClient {
	timeout := 30 * time.Second
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   3,
		delay:      200 * time.Millisecond,
	}
}

type RequestOptions struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Headers     map[string]string
	Body        []byte
}

// DoRequest sends the request and returns the response body and Location
// header. GET requests are retried when the server cannot be reached.
func (c *HTTPClient) DoRequest(opts RequestOptions) ([]byte, string, error) {
	u, err := url.Parse(c.config.GetServerURL())
	if err != nil {
		return nil, "", fmt.Errorf("invalid server URL: %v", err)
	}
	u.Path = path.Join(u.Path, opts.Path)
	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	attempts := uint(1)
	if opts.Method == http.MethodGet {
		attempts = c.attempts
	}

	var (
		body     []byte
		location string
	)
	err = retry.Do(
		func() error {
			var err error
			body, location, err = c.do(opts, u.String())
			return err
		},
		retry.Attempts(attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var httpErr *HTTPError
			return !errors.As(err, &httpErr)
		}),
	)
	return body, location, err
}

func (c *HTTPClient) do(opts RequestOptions, target string) ([]byte, string, error) {
	req, err := http.NewRequest(opts.Method, target, bytes.NewReader(opts.Body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %v", err)
	}
	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = string(body)
		}
		return nil, "", &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	return body, resp.Header.Get("Location"), nil
}

// Request is implemented by the request bodies of pkg/api.
type Request interface {
	RequestMethod() (string, string)
}

// Send marshals req and sends it to the path it names.
func (c *HTTPClient) Send(req Request) ([]byte, string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request: %v", err)
	}
	method, p := req.RequestMethod()
	if method == http.MethodGet {
		data = nil
	}
	return c.DoRequest(RequestOptions{Method: method, Path: p, Body: data})
}

func (c *HTTPClient) Get(p string) ([]byte, error) {
	body, _, err := c.DoRequest(RequestOptions{Method: http.MethodGet, Path: p})
	return body, err
}
