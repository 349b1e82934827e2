package partners

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tirehub/punchout-backend/pkg/config"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

// Partner is a single trading-partner record from the partner directory API.
type Partner struct {
	Domain                        string `json:"domain"`
	Identity                      string `json:"identity"`
	SharedSecret                  string `json:"sharedSecret"`
	CorpAddressID                 string `json:"corpAddressId"`
	DealerPrefix                  string `json:"dealerPrefix"`
	TrimLeadingZeroFromDealerCode bool   `json:"trimLeadingZeroFromDealerCode"`
	PunchoutRedirectURL           string `json:"punchoutRedirectUrl"`
}

// Client fetches trading partners from the partner directory API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a partner directory client from config.
func NewClient(cfg config.PartnersConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner directory base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// List returns every configured punchout partner.
func (c *Client) List(ctx context.Context) ([]Partner, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "partner directory client not configured")
	}

	url := fmt.Sprintf("%s/api/punchout/partners", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build partner list request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute partner list request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "partner list request failed")
	}

	var apiResp struct {
		Results []Partner `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode partner list response")
	}

	return apiResp.Results, nil
}
