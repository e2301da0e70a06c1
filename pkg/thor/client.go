// Package thor is a minimal client for the VeChain Thor node REST API:
// transaction receipts, account state, read-only clause simulation, and
// submission of wallet-signed transactions with receipt polling.
package thor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// DefaultPollInterval is the delay between receipt polls.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxAttempts bounds receipt polling to roughly one minute.
	DefaultMaxAttempts = 30
)

// Client is a Thor node HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client

	pollInterval time.Duration
	maxAttempts  int
}

// NewClient creates a Thor client for the given node URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
	}
}

// SetReceiptPolling overrides the receipt polling interval and attempt ceiling.
func (c *Client) SetReceiptPolling(interval time.Duration, maxAttempts int) {
	if interval > 0 {
		c.pollInterval = interval
	}
	if maxAttempts > 0 {
		c.maxAttempts = maxAttempts
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
		return nil, fmt.Errorf("thor error %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}

// GetReceipt fetches the receipt for a transaction. A nil receipt with nil
// error means the transaction is not yet included in a block.
func (c *Client) GetReceipt(ctx context.Context, txID string) (*Receipt, error) {
	data, err := c.doRequest(ctx, "GET", "/transactions/"+txID+"/receipt", nil)
	if err != nil {
		return nil, err
	}

	// Thor answers a pending transaction with a literal null body.
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}

	return &receipt, nil
}

// GetAccount returns the balance state of an address.
func (c *Client) GetAccount(ctx context.Context, address string) (*Account, error) {
	data, err := c.doRequest(ctx, "GET", "/accounts/"+address, nil)
	if err != nil {
		return nil, err
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}

	return &acct, nil
}

// Call simulates a single read-only clause and returns the raw return data.
func (c *Client) Call(ctx context.Context, clause Clause) ([]byte, error) {
	data, err := c.doRequest(ctx, "POST", "/accounts/*", callRequest{Clauses: []Clause{clause}})
	if err != nil {
		return nil, err
	}

	var results []callResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("unmarshal call result: %w", err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("expected 1 call result, got %d", len(results))
	}

	res := results[0]
	if res.Reverted {
		if res.VMError != "" {
			return nil, fmt.Errorf("call reverted: %s", res.VMError)
		}
		return nil, fmt.Errorf("call reverted")
	}

	out, err := hexutil.Decode(res.Data)
	if err != nil {
		return nil, fmt.Errorf("decode call data: %w", err)
	}
	return out, nil
}

// WaitForReceipt polls for a transaction receipt at a fixed interval until it
// appears, the attempt ceiling is reached, or ctx is cancelled.
func (c *Client) WaitForReceipt(ctx context.Context, txID string) (*Receipt, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		receipt, err := c.GetReceipt(ctx, txID)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		if attempt == c.maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrReceiptTimeout, c.maxAttempts)
}
