package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/solshield/shieldcore/log"
)

const (
	// HealthEndpoint is the relayer liveness endpoint.
	HealthEndpoint = "/health"
	// RelayTransferEndpoint receives shielded transfers.
	RelayTransferEndpoint = "/relay/transfer"

	maxResponseSize = 1 << 20
)

// healthResponse is the body of a relayer health answer. Missing fields
// keep their defaults.
type healthResponse struct {
	SuccessRate *float64 `json:"successRate"`
	Balance     float64  `json:"balance"`
}

// client talks to a single relayer.
type client struct {
	c    *http.Client
	host *url.URL
}

func newClient(c *http.Client, host string) (*client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid relayer url %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid relayer url %q: unsupported scheme", host)
	}
	return &client{c: c, host: u}, nil
}

// request performs a single JSON request and returns the body and status.
// Retries are handled by the network, across relayers.
func (c *client) request(ctx context.Context, method string, jsonBody any, urlPath string) ([]byte, int, error) {
	var body io.Reader
	if jsonBody != nil {
		data, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		body = bytes.NewReader(data)
	}
	u := *c.host
	u.Path = path.Join(u.Path, urlPath)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	log.Debugw("relayer request", "method", method, "url", u.String())

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

func statusSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// health queries the health endpoint.
func (c *client) health(ctx context.Context) (*healthResponse, error) {
	data, status, err := c.request(ctx, http.MethodGet, nil, HealthEndpoint)
	if err != nil {
		return nil, err
	}
	if !statusSuccess(status) {
		return nil, fmt.Errorf("health check returned http status %d", status)
	}
	hr := &healthResponse{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, hr); err != nil {
			return nil, fmt.Errorf("invalid health response: %w", err)
		}
	}
	return hr, nil
}

// relay posts a transfer. Any answer that is not a successful relay is an
// error.
func (c *client) relay(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	data, status, err := c.request(ctx, http.MethodPost, req, RelayTransferEndpoint)
	if err != nil {
		return nil, err
	}
	resp := &TransferResponse{}
	if err := json.Unmarshal(data, resp); err != nil {
		if !statusSuccess(status) {
			return nil, fmt.Errorf("relay returned http status %d", status)
		}
		return nil, fmt.Errorf("invalid relay response: %w", err)
	}
	if !statusSuccess(status) || !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "relay rejected"
		}
		return nil, fmt.Errorf("%s (http status %d)", msg, status)
	}
	return resp, nil
}
