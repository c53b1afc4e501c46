package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTokenServer(t *testing.T, exchanges *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600})
	}))
}

func newServiceServer(t *testing.T, capture *completionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if capture != nil {
			_ = json.NewDecoder(r.Body).Decode(capture)
		}
		_ = json.NewEncoder(w).Encode(Completion{
			Content:      "analysis text",
			ModelID:      "CLAUDE_SONET_3_7_v1",
			PromptTokens: 120,
			OutputTokens: 80,
			TotalTokens:  200,
		})
	}))
}

func newTestClient(authURL, serviceURL string) *PlatformClient {
	return NewPlatformClient(PlatformOptions{
		AuthURL:      authURL,
		ServiceURL:   serviceURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scope:        "data:read data:write",
		Model:        "CLAUDE_SONET_3_7_v1",
		Timeout:      5 * time.Second,
	})
}

func TestMissingCredentialsFailFast(t *testing.T) {
	var exchanges atomic.Int64
	auth := newTokenServer(t, &exchanges)
	defer auth.Close()

	client := NewPlatformClient(PlatformOptions{AuthURL: auth.URL, ServiceURL: auth.URL, Model: "m"})
	_, err := client.Generate(context.Background(), "", "query")
	if err != ErrMissingCredentials {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if exchanges.Load() != 0 {
		t.Fatalf("expected no network call, got %d exchanges", exchanges.Load())
	}
}

func TestTokenCacheReuse(t *testing.T) {
	var exchanges atomic.Int64
	auth := newTokenServer(t, &exchanges)
	defer auth.Close()
	service := newServiceServer(t, nil)
	defer service.Close()

	client := newTestClient(auth.URL, service.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.Generate(context.Background(), "sys", "query"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := exchanges.Load(); got != 1 {
		t.Fatalf("expected exactly one token exchange, got %d", got)
	}
}

func TestTokenRefreshAfterExpiry(t *testing.T) {
	var exchanges atomic.Int64
	auth := newTokenServer(t, &exchanges)
	defer auth.Close()
	service := newServiceServer(t, nil)
	defer service.Close()

	client := newTestClient(auth.URL, service.URL)
	now := time.Now()
	client.now = func() time.Time { return now }

	if _, err := client.Generate(context.Background(), "sys", "query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := client.Generate(context.Background(), "sys", "query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := exchanges.Load(); got != 2 {
		t.Fatalf("expected refresh after expiry, got %d exchanges", got)
	}
}

func TestConcurrentRefreshSingleFlight(t *testing.T) {
	var exchanges atomic.Int64
	auth := newTokenServer(t, &exchanges)
	defer auth.Close()
	service := newServiceServer(t, nil)
	defer service.Close()

	client := newTestClient(auth.URL, service.URL)

	const n = 16
	var wg sync.WaitGroup
	tokens := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := client.accessToken(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	if got := exchanges.Load(); got != 1 {
		t.Fatalf("expected a single in-flight exchange, got %d", got)
	}
	for _, token := range tokens {
		if token != "tok-1" {
			t.Fatalf("expected all callers to share the token, got %q", token)
		}
	}
}

func TestAuthFailureNotCached(t *testing.T) {
	var exchanges atomic.Int64
	fail := true
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		if fail {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("invalid client"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-2", "expires_in": 3600})
	}))
	defer auth.Close()
	service := newServiceServer(t, nil)
	defer service.Close()

	client := newTestClient(auth.URL, service.URL)
	_, err := client.Generate(context.Background(), "sys", "query")
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "invalid client") {
		t.Fatalf("expected auth failure with status and body, got %v", err)
	}

	fail = false
	if _, err := client.Generate(context.Background(), "sys", "query"); err != nil {
		t.Fatalf("expected retry after auth failure to succeed, got %v", err)
	}
	if got := exchanges.Load(); got != 2 {
		t.Fatalf("expected a fresh exchange after failure, got %d", got)
	}
}

func TestGenerateRequestShape(t *testing.T) {
	var exchanges atomic.Int64
	auth := newTokenServer(t, &exchanges)
	defer auth.Close()
	var capture completionRequest
	service := newServiceServer(t, &capture)
	defer service.Close()

	client := newTestClient(auth.URL, service.URL)
	completion, err := client.Generate(context.Background(), "system prompt here", "analyze this repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(capture.Requests) != 1 {
		t.Fatalf("expected exactly one embedded request, got %d", len(capture.Requests))
	}
	req := capture.Requests[0]
	if req.TargetModel != "CLAUDE_SONET_3_7_v1" {
		t.Fatalf("expected fixed target model, got %q", req.TargetModel)
	}
	messages := req.Parameters.Messages
	if len(messages) != 2 || messages[0].Role != "system" || messages[1].Role != "user" {
		t.Fatalf("expected system+user conversation, got %v", messages)
	}
	if messages[1].Content != "analyze this repo" {
		t.Fatalf("expected user query forwarded, got %q", messages[1].Content)
	}
	if completion.Content != "analysis text" || completion.TotalTokens != 200 {
		t.Fatalf("unexpected completion: %+v", completion)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	var exchanges atomic.Int64
	auth := newTokenServer(t, &exchanges)
	defer auth.Close()
	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("model overloaded"))
	}))
	defer service.Close()

	client := newTestClient(auth.URL, service.URL)
	_, err := client.Generate(context.Background(), "sys", "query")
	if err == nil || !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected upstream error with diagnostics, got %v", err)
	}
}

func TestUpstreamErrorBodyRedacted(t *testing.T) {
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_client","client_secret":"super-secret-value"}`))
	}))
	defer auth.Close()
	service := newServiceServer(t, nil)
	defer service.Close()

	client := newTestClient(auth.URL, service.URL)
	_, err := client.Generate(context.Background(), "sys", "query")
	if err == nil {
		t.Fatalf("expected token exchange failure")
	}
	if strings.Contains(err.Error(), "super-secret-value") {
		t.Fatalf("credential leaked into error text: %v", err)
	}
	if !strings.Contains(err.Error(), "[REDACTED]") {
		t.Fatalf("expected redaction marker in error text, got %v", err)
	}
}

func TestAnalyzeRepositoryEmbedsContext(t *testing.T) {
	mock := NewMockClient()
	repoData := map[string]any{"recentCommits": []any{map[string]any{"sha": "abc"}}}

	if _, err := AnalyzeRepository(context.Background(), mock, repoData, "evaluate security"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("expected one generate call, got %d", len(mock.Calls))
	}
	call := mock.Calls[0]
	if !strings.Contains(call.SystemPrompt, `"sha": "abc"`) {
		t.Fatalf("expected repository context embedded in system prompt")
	}
	if call.UserQuery != "evaluate security" {
		t.Fatalf("expected query passed through, got %q", call.UserQuery)
	}
}
