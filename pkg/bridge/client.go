// Package bridge is a client for the third-party cross-chain bridge REST API:
// transfer creation, fee quotes, and status polling until a terminal state.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultPollInterval is the delay between status polls.
	DefaultPollInterval = 10 * time.Second
	// DefaultMaxWait bounds a WaitForCompletion call to 30 minutes.
	DefaultMaxWait = 30 * time.Minute
)

// ErrBridgeTimeout is returned when a transfer does not reach a terminal
// state within the wait ceiling.
var ErrBridgeTimeout = errors.New("bridge transaction timeout")

// Client is a bridge partner HTTP client.
type Client struct {
	baseURL    string
	partner    string
	httpClient *http.Client

	pollInterval time.Duration
	maxWait      time.Duration
}

// NewClient creates a bridge client. The partner tag is attached to every
// transfer created through it.
func NewClient(baseURL, partner string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		partner: partner,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pollInterval: DefaultPollInterval,
		maxWait:      DefaultMaxWait,
	}
}

// SetPolling overrides the status polling interval and wait ceiling.
func (c *Client) SetPolling(interval, maxWait time.Duration) {
	if interval > 0 {
		c.pollInterval = interval
	}
	if maxWait > 0 {
		c.maxWait = maxWait
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("bridge error %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}

// CreateTx asks the partner to prepare a cross-chain transfer. The returned
// payload contains the source-chain transaction the user must sign.
func (c *Client) CreateTx(ctx context.Context, params TxParams) (*CreateTxResult, error) {
	if params.Partner == "" {
		params.Partner = c.partner
	}

	data, err := c.doRequest(ctx, "POST", "/createTx", params)
	if err != nil {
		return nil, err
	}

	var resp createTxResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal createTx response: %w", err)
	}
	if !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("createTx failed: %s", resp.Error)
		}
		return nil, fmt.Errorf("createTx failed")
	}

	return &resp.Data, nil
}

// Quote fetches the fee breakdown for a prospective transfer.
func (c *Client) Quote(ctx context.Context, params TxParams) (*FeeAndQuota, error) {
	if params.Partner == "" {
		params.Partner = c.partner
	}

	data, err := c.doRequest(ctx, "POST", "/quote", params)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal quote response: %w", err)
	}
	if !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("quote failed: %s", resp.Error)
		}
		return nil, fmt.Errorf("quote failed")
	}

	return &resp.Data, nil
}

// GetStatus fetches the current state of a transfer.
func (c *Client) GetStatus(ctx context.Context, txHash string) (*Status, error) {
	data, err := c.doRequest(ctx, "GET", "/status/"+txHash, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}

	return &status, nil
}

// WaitForCompletion polls the transfer status until it reaches a terminal
// state, the wait ceiling passes, or ctx is cancelled. onProgress, when
// non-nil, observes every poll result including the terminal one.
func (c *Client) WaitForCompletion(ctx context.Context, txHash string, onProgress func(*Status)) (*Status, error) {
	deadline := time.Now().Add(c.maxWait)

	for {
		status, err := c.GetStatus(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if onProgress != nil {
			onProgress(status)
		}
		if status.Terminal() {
			return status, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrBridgeTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// MirrorStatus maps a partner status string onto the mirror's bridge states:
// pending, confirmed, completed, failed.
func MirrorStatus(partnerStatus string) string {
	switch partnerStatus {
	case StatusProcessing:
		return "confirmed"
	case StatusSuccess:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}
