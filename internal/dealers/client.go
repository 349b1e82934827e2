package dealers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tirehub/punchout-backend/pkg/config"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

// ShipToLocation is the ship-to endpoint attached to a dealer record.
type ShipToLocation struct {
	LocationID   string `json:"locationId"`
	LocationName string `json:"locationName"`
}

// Dealer is a single record from the dealer lookup API.
type Dealer struct {
	DealerCode     string         `json:"dealerCode"`
	ShipToLocation ShipToLocation `json:"shipToLocation"`
}

// Client looks up dealers and their ship-to locations.
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

// NewClient builds a dealer lookup client from config.
func NewClient(cfg config.DealersConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer lookup base URL is required")
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

// Lookup returns the dealers matching a dealer code.
func (c *Client) Lookup(ctx context.Context, dealerCode string) ([]Dealer, error) {
	return c.query(ctx, "api/dealers/lookup", dealerCode)
}

// LookupCommon returns the common dealer locations registered under a
// corporate dealer code.
func (c *Client) LookupCommon(ctx context.Context, dealerCode string) ([]Dealer, error) {
	return c.query(ctx, "api/dealers/common", dealerCode)
}

func (c *Client) query(ctx context.Context, path, dealerCode string) ([]Dealer, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dealer lookup client not configured")
	}
	trimmed := strings.TrimSpace(dealerCode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer code is required")
	}

	endpoint := fmt.Sprintf("%s/%s?dealerCode=%s", c.baseURL, path, url.QueryEscape(trimmed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build dealer lookup request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute dealer lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "dealer lookup request failed")
	}

	var apiResp struct {
		Results []Dealer `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode dealer lookup response")
	}

	return apiResp.Results, nil
}
