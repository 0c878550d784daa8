package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sdprompt/core"
)

// ConnectivityResult represents the result of a connectivity check.
type ConnectivityResult struct {
	Reachable  bool
	StatusCode int
	Message    string
	Latency    time.Duration
	Error      error
}

// ConnectivityChecker verifies that an image API endpoint answers at all.
// Any HTTP response, including 401 and 404, counts as reachable: credentials
// are the engine's concern.
type ConnectivityChecker struct {
	timeout              time.Duration
	allowSelfSignedCerts bool
}

// NewConnectivityChecker creates a checker with a 10 second timeout.
func NewConnectivityChecker() *ConnectivityChecker {
	return &ConnectivityChecker{timeout: 10 * time.Second}
}

// WithTimeout sets the timeout for connectivity checks.
func (c *ConnectivityChecker) WithTimeout(timeout time.Duration) *ConnectivityChecker {
	c.timeout = timeout
	return c
}

// WithAllowSelfSignedCerts configures whether to allow self-signed certificates.
func (c *ConnectivityChecker) WithAllowSelfSignedCerts(allow bool) *ConnectivityChecker {
	c.allowSelfSignedCerts = allow
	return c
}

// CheckEndpoint sends a HEAD request to endpoint and reports whether a
// server answered.
func (c *ConnectivityChecker) CheckEndpoint(ctx context.Context, endpoint string) ConnectivityResult {
	if err := ValidateEndpointURL(endpoint); err != nil {
		return ConnectivityResult{
			Message: "Invalid URL format",
			Error:   core.ErrInvalidEndpoint(endpoint, err.Error()),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return ConnectivityResult{
			Message: "Failed to create request",
			Error:   core.ErrEndpointUnreachable(endpoint, err.Error()),
		}
	}

	client := core.GetHTTPClient(&core.Config{AllowSelfSignedCerts: c.allowSelfSignedCerts}, c.timeout)

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ConnectivityResult{
				Message: "Connection timed out",
				Latency: latency,
				Error:   core.ErrEndpointUnreachable(endpoint, fmt.Sprintf("connection timed out after %v", c.timeout)),
			}
		}
		return ConnectivityResult{
			Message: "Connection failed",
			Latency: latency,
			Error:   core.ErrEndpointUnreachable(endpoint, err.Error()),
		}
	}
	defer resp.Body.Close()

	return ConnectivityResult{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Server reachable (status: %d)", resp.StatusCode),
		Latency:    latency,
	}
}
