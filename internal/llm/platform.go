package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"repolens/internal/util"
)

const errBodyMaxBytes = 512

// ErrMissingCredentials is returned before any network call when the client
// id or secret is absent.
var ErrMissingCredentials = errors.New("missing platform credentials: client id and secret are required")

// PlatformOptions configures a PlatformClient.
type PlatformOptions struct {
	AuthURL      string
	ServiceURL   string
	ClientID     string
	ClientSecret string
	Scope        string
	Model        string
	Timeout      time.Duration
	RetryMax     int
}

// PlatformClient talks to the AI platform: an OAuth2 client-credentials token
// endpoint plus a completion endpoint. It owns the cached bearer token.
type PlatformClient struct {
	opts   PlatformOptions
	client *retryablehttp.Client
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewPlatformClient constructs the client. The token cache starts empty and
// is filled lazily on the first Generate call.
func NewPlatformClient(opts PlatformOptions) *PlatformClient {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.Logger = nil
	// Surface the final response after retries so callers see status and body.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &PlatformClient{opts: opts, client: client, now: time.Now}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// accessToken returns the cached token or performs a client-credentials
// exchange. The mutex is held across the exchange so concurrent callers
// share a single in-flight refresh and receive the same token.
func (c *PlatformClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	if c.opts.ClientID == "" || c.opts.ClientSecret == "" {
		return "", ErrMissingCredentials
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	if c.opts.Scope != "" {
		form.Set("scope", c.opts.Scope)
	}

	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.opts.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")
	request.SetBasicAuth(c.opts.ClientID, c.opts.ClientSecret)

	resp, err := c.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token exchange failed: status %d: %s", resp.StatusCode, util.Snippet(util.RedactSecrets(string(b)), errBodyMaxBytes))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("token exchange returned an empty access token")
	}

	c.token = token.AccessToken
	c.expiresAt = c.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.token, nil
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionParameters struct {
	Messages []completionMessage `json:"messages"`
}

type completionItem struct {
	TargetModel string               `json:"targetModel"`
	Parameters  completionParameters `json:"parameters"`
}

type completionRequest struct {
	Requests []completionItem `json:"requests"`
}

// Generate issues one completion request with a two-message conversation.
func (c *PlatformClient) Generate(ctx context.Context, systemPrompt, userQuery string) (Completion, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return Completion{}, err
	}

	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt()
	}

	body := completionRequest{Requests: []completionItem{{
		TargetModel: c.opts.Model,
		Parameters: completionParameters{Messages: []completionMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userQuery},
		}},
	}}}

	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal completion request: %w", err)
	}

	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.opts.ServiceURL, payload)
	if err != nil {
		return Completion{}, err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(request)
	if err != nil {
		return Completion{}, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Completion{}, fmt.Errorf("analysis request failed: status %d: %s", resp.StatusCode, util.Snippet(util.RedactSecrets(string(b)), errBodyMaxBytes))
	}

	var completion Completion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return Completion{}, fmt.Errorf("decode analysis response: %w", err)
	}
	return completion, nil
}
