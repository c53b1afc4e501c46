package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"repolens/internal/util"
)

const errBodyMaxBytes = 512

// Caller issues a single tool call against the upstream protocol service.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (Envelope, error)
}

// Client calls a GitHub MCP gateway over HTTP.
type Client struct {
	endpoint string
	token    string
	timeout  time.Duration
	client   *retryablehttp.Client
}

// NewClient constructs a gateway client. retryMax bounds transport-level
// retries; timeout bounds each call end to end.
func NewClient(endpoint, token string, timeout time.Duration, retryMax int) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = nil
	// Surface the final response after retries so callers see status and body.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{endpoint: endpoint, token: token, timeout: timeout, client: client}
}

type callRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallTool posts {name, arguments} to the gateway and decodes the envelope.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (Envelope, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(callRequest{Name: name, Arguments: args})
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal tool call %q: %w", name, err)
	}

	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Envelope{}, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if c.token != "" {
		request.Header.Set("X-GitHub-Token", c.token)
	}

	resp, err := c.client.Do(request)
	if err != nil {
		return Envelope{}, fmt.Errorf("tool call %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Envelope{}, fmt.Errorf("tool call %q failed: status %d: %s", name, resp.StatusCode, util.Snippet(util.RedactSecrets(string(b)), errBodyMaxBytes))
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("decode tool call %q response: %w", name, err)
	}
	return env, nil
}
