// Package purge calls the downstream system that irreversibly removes an
// account's data. The webhook contract is idempotent: purging an account
// that is already gone must succeed, so retries across sweep rounds are
// safe.
package purge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// maxErrorBody caps how much of an error response is echoed into the
// returned error.
const maxErrorBody = 512

// Client posts purge commands to the configured webhook endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewClient creates a purge webhook client. Per-call deadlines come from
// the caller's context, so the underlying http.Client carries no timeout
// of its own.
func NewClient(endpoint, token string) *Client {
	return &Client{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		token:      token,
	}
}

type purgeRequest struct {
	TenantID  string `json:"tenant_id"`
	AccountID string `json:"account_id"`
}

// Purge asks the downstream system to remove all data for the account.
// Any 2xx response counts as success; everything else is an error and
// the sweep retries on a later round.
func (c *Client) Purge(ctx context.Context, tenantID, accountID uuid.UUID) error {
	body, err := json.Marshal(purgeRequest{
		TenantID:  tenantID.String(),
		AccountID: accountID.String(),
	})
	if err != nil {
		return fmt.Errorf("purge.Client.Purge: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("purge.Client.Purge: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("purge.Client.Purge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("purge.Client.Purge: endpoint returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
