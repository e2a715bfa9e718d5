package pluggy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"extrato/internal/cache"
	"extrato/internal/core"
	applog "extrato/internal/log"
)

const (
	DefaultBaseURL = "https://api.pluggy.ai"

	apiKeyHeader   = "X-API-KEY"
	apiKeyCacheKey = "api_key"
	// API keys are valid for two hours; renew a little earlier.
	apiKeyTTL = 110 * time.Minute
	// Error bodies are truncated before they end up in error messages.
	maxErrorBody = 512
)

// ClientConfig configures the HTTP adapter.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	// AccountsTTL caches account lists per item; zero disables the cache.
	AccountsTTL time.Duration
	HTTPClient  *http.Client
}

// Client talks to the Pluggy REST API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	apiKeys      *cache.LRUCache[string]
	auth         singleflight.Group
	accounts     *cache.LRUCache[[]core.Account]
}

var _ Service = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("missing pluggy client credentials")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = newHTTPClient(timeout)
	}

	c := &Client{
		baseURL:      base,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		apiKeys:      cache.NewLRUCache[string](1, apiKeyTTL),
	}
	if cfg.AccountsTTL > 0 {
		c.accounts = cache.NewLRUCache[[]core.Account](256, cfg.AccountsTTL)
	}
	return c, nil
}

// newHTTPClient returns a pooled client; one load fans out to many accounts
// of the same host.
func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Caches exposes the client's caches for periodic cleanup.
func (c *Client) Caches() []cache.Cleaner {
	out := []cache.Cleaner{c.apiKeys}
	if c.accounts != nil {
		out = append(out, c.accounts)
	}
	return out
}

// FetchAccounts lists the accounts of one item.
func (c *Client) FetchAccounts(ctx context.Context, itemID string) (AccountPage, error) {
	if c.accounts != nil {
		if accounts, ok := c.accounts.Get(itemID); ok {
			return AccountPage{Total: len(accounts), TotalPages: 1, Page: 1, Results: accounts}, nil
		}
	}

	q := url.Values{}
	q.Set("itemId", itemID)

	var page AccountPage
	if err := c.get(ctx, "fetch accounts", "/accounts", q, &page); err != nil {
		return AccountPage{}, err
	}
	for i := range page.Results {
		if page.Results[i].ItemID == "" {
			page.Results[i].ItemID = itemID
		}
	}

	if c.accounts != nil {
		c.accounts.Set(itemID, page.Results)
	}
	return page, nil
}

// FetchTransactions returns one page of an account's transactions in [From, To].
func (c *Client) FetchTransactions(ctx context.Context, accountID string, tq TransactionQuery) (TransactionPage, error) {
	q := url.Values{}
	q.Set("accountId", accountID)
	pageSize := tq.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if tq.From != "" {
		q.Set("from", tq.From)
	}
	if tq.To != "" {
		q.Set("to", tq.To)
	}

	var page TransactionPage
	if err := c.get(ctx, "fetch transactions", "/transactions", q, &page); err != nil {
		return TransactionPage{}, err
	}
	for i := range page.Results {
		if page.Results[i].AccountID == "" {
			page.Results[i].AccountID = accountID
		}
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	key, err := c.apiKey(ctx)
	if err != nil {
		return err
	}

	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	applog.ForComponent(applog.ComponentPluggy).DebugContext(ctx, "Pluggy request completed",
		applog.FieldOperation, op,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// The key was revoked or expired early; the next load authenticates again.
		c.apiKeys.Delete(apiKeyCacheKey)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Op: op, Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type authRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type authResponse struct {
	APIKey string `json:"apiKey"`
}

// apiKey returns the cached key or authenticates. Concurrent callers on a
// cold cache share one /auth request.
func (c *Client) apiKey(ctx context.Context) (string, error) {
	if key, ok := c.apiKeys.Get(apiKeyCacheKey); ok {
		return key, nil
	}

	// The shared request must not die with the first caller's context.
	authCtx := context.WithoutCancel(ctx)
	ch := c.auth.DoChan(apiKeyCacheKey, func() (any, error) {
		if key, ok := c.apiKeys.Get(apiKeyCacheKey); ok {
			return key, nil
		}
		return c.authenticate(authCtx)
	})

	select {
	case <-ctx.Done():
		return "", &FetchError{Op: "authenticate", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(authRequest{ClientID: c.clientID, ClientSecret: c.clientSecret})
	if err != nil {
		return "", &FetchError{Op: "authenticate", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth", bytes.NewReader(body))
	if err != nil {
		return "", &FetchError{Op: "authenticate", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{Op: "authenticate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Op: "authenticate", Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", &FetchError{Op: "authenticate", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if ar.APIKey == "" {
		return "", &FetchError{Op: "authenticate", Status: resp.StatusCode, Err: errors.New("empty api key")}
	}

	c.apiKeys.Set(apiKeyCacheKey, ar.APIKey)
	applog.ForComponent(applog.ComponentPluggy).InfoContext(ctx, "Authenticated with Pluggy API")
	return ar.APIKey, nil
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
