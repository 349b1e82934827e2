package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tirehub/punchout-backend/pkg/config"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

// Location is one stocking location returned by the inventory API,
// ordered by fulfillment preference.
type Location struct {
	SKU               string          `json:"itemId"`
	LocationID        string          `json:"locationId"`
	LocationType      string          `json:"locationType"`
	QuantityAvailable int             `json:"quantityAvailable"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	Description       string          `json:"description"`
}

// LookupParams describe an availability query for one SKU.
type LookupParams struct {
	SKU                  string
	QuantityNeeded       int
	SearchQuantityNeeded int
}

// Client queries per-location tire availability.
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

// NewClient builds an inventory lookup client from config.
func NewClient(cfg config.InventoryConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory base URL is required")
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

// Lookup returns stocking locations for a SKU in fulfillment order.
func (c *Client) Lookup(ctx context.Context, params LookupParams) ([]Location, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory client not configured")
	}
	sku := strings.TrimSpace(params.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}

	quantityNeeded := params.QuantityNeeded
	if quantityNeeded <= 0 {
		quantityNeeded = 1
	}
	searchQuantity := params.SearchQuantityNeeded
	if searchQuantity <= 0 {
		searchQuantity = quantityNeeded
	}

	query := url.Values{}
	query.Set("itemId", sku)
	query.Set("quantityNeeded", strconv.Itoa(quantityNeeded))
	query.Set("searchQuantityNeeded", strconv.Itoa(searchQuantity))

	endpoint := fmt.Sprintf("%s/api/inventory/lookup?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build inventory lookup request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute inventory lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "inventory lookup request failed")
	}

	var apiResp struct {
		Results []Location `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode inventory lookup response")
	}

	return apiResp.Results, nil
}
