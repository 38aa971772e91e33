package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yndnr/govmesh-go/internal/infra/buildinfo"
)

// Header names sent to the server.
const (
	headerPrincipal = "X-Principal"
	headerAdminKey  = "X-Admin-Key"
)

// Options configures an HTTPClient.
type Options struct {
	Principal string
	AdminKey  string
	CAFile    string
	Timeout   time.Duration
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	principal string
	adminKey  string
	userAgent string
}

// NewHTTPClient creates a client for server, which may omit the scheme.
func NewHTTPClient(server string, opts Options) (*HTTPClient, error) {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
		}
		hc.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		}
	}

	return &HTTPClient{
		baseURL:   baseURL,
		client:    hc,
		principal: opts.Principal,
		adminKey:  opts.AdminKey,
		userAgent: buildinfo.UserAgent("govmesh-cli"),
	}, nil
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Principal returns the identity sent as X-Principal.
func (c *HTTPClient) Principal() string {
	return c.principal
}

// Get performs a GET request and decodes the envelope data into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *HTTPClient) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Do sends one request. out may be nil when the caller ignores the data.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return env.err(resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}

// Download streams a raw response body into w and returns the byte count.
// Error responses still arrive as envelopes.
func (c *HTTPClient) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return 0, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return 0, env.err(resp.StatusCode)
	}
	return io.Copy(w, resp.Body)
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.principal != "" {
		req.Header.Set(headerPrincipal, c.principal)
	}
	// The admin key only travels to admin routes.
	if c.adminKey != "" && strings.HasPrefix(path, "/admin/") {
		req.Header.Set(headerAdminKey, c.adminKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   any             `json:"details"`
}

func (e *envelope) err(status int) *APIError {
	return &APIError{
		Status:    status,
		Code:      e.Code,
		Message:   e.Message,
		RequestID: e.RequestID,
		Details:   e.Details,
	}
}

// APIError is a server error response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Details   any
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Details != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Details)
	}
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}
