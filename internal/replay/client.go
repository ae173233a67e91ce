package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hospital-iot-backend/internal/logs"
)

// Response is the check-in endpoint's reply.
type Response struct {
	Success       bool   `json:"success"`
	Device        string `json:"device"`
	LocalTime     string `json:"local_time"`
	TicketCreated string `json:"ticket_created,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Client posts events to a check-in endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for endpoint. An empty proxy means a direct
// connection; an invalid one is logged and ignored.
func NewClient(endpoint string, timeout time.Duration, proxy string) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			logs.Logger.Warnf("invalid proxy URL %q: %v, replay will not use a proxy", proxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Send posts a single event. A non-200 reply is returned as an error
// carrying the server's message.
func (c *Client) Send(ctx context.Context, ev Event) (*Response, error) {
	jsonBody, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &out, fmt.Errorf("received status code %d: %s", resp.StatusCode, out.Error)
	}
	return &out, nil
}
