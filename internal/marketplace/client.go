// Package marketplace calls the product-search backend and renders
// verified product data as hidden model context. Search failures
// degrade to empty results on the chat path so the assistant keeps
// answering from the model alone.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/shopassist/internal/config"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/logfields"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
	"git.home.luguber.info/inful/shopassist/internal/retry"
)

// Header names for per-request credential pass-through.
const (
	HeaderAccessKey  = "x-amazon-access-key"
	HeaderSecretKey  = "x-amazon-secret-key"
	HeaderPartnerTag = "x-amazon-partner-tag"
)

// Product is one search result item.
type Product struct {
	ASIN     string   `json:"asin"`
	Title    string   `json:"title"`
	Brand    string   `json:"brand,omitempty"`
	URL      string   `json:"url"`
	Image    string   `json:"image,omitempty"`
	Price    string   `json:"price"`
	Features []string `json:"features"`
	IsPrime  bool     `json:"isPrime"`
}

// Credentials override the configured API keys for one request.
type Credentials struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string
}

// FromHeader extracts pass-through credentials from request headers.
func FromHeader(h http.Header) Credentials {
	return Credentials{
		AccessKey:  h.Get(HeaderAccessKey),
		SecretKey:  h.Get(HeaderSecretKey),
		PartnerTag: h.Get(HeaderPartnerTag),
	}
}

// Client queries the search backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	maxItems   int
	policy     retry.Policy
	rec        metrics.Recorder
	logger     *slog.Logger
}

// New builds a search client from configuration.
func New(cfg config.MarketplaceConfig, rec metrics.Recorder, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		creds: Credentials{
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			PartnerTag: cfg.PartnerTag,
		},
		maxItems: cfg.MaxItems,
		policy:   retry.DefaultPolicy(),
		rec:      rec,
		logger:   logger,
	}
}

type searchRequest struct {
	Keyword string `json:"keyword"`
}

type searchResponse struct {
	Products []Product `json:"products"`
	Error    string    `json:"error,omitempty"`
}

// Search queries the backend for products matching the keyword.
// Request credentials take precedence over configured ones.
func (c *Client) Search(ctx context.Context, keyword string, creds Credentials) ([]Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, derrors.MissingKeyword()
	}

	start := time.Now()
	var products []Product
	// Throttled and unavailable responses are transient; auth failures
	// are not.
	err := retry.Do(ctx, c.policy, derrors.IsRetryable, func() error {
		var innerErr error
		products, innerErr = c.search(ctx, keyword, creds)
		return innerErr
	})
	if c.rec != nil {
		c.rec.ObserveSearchDuration(time.Since(start), err == nil)
		c.rec.IncSearchResult(err == nil)
	}
	return products, err
}

// SearchGraceful is the chat-path variant: any failure is logged and
// reported as no results.
func (c *Client) SearchGraceful(ctx context.Context, keyword string) []Product {
	products, err := c.Search(ctx, keyword, Credentials{})
	if err != nil {
		c.logger.WarnContext(ctx, "product search unavailable, continuing without context",
			logfields.Keyword(keyword), logfields.Error(err))
		return nil
	}
	return products
}

func (c *Client) search(ctx context.Context, keyword string, creds Credentials) ([]Product, error) {
	body, err := json.Marshal(searchRequest{Keyword: keyword})
	if err != nil {
		return nil, derrors.MarketplaceUnavailable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search", bytes.NewReader(body))
	if err != nil {
		return nil, derrors.MarketplaceUnavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyCredentials(req, creds)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, derrors.MarketplaceUnavailable(err)
	}
	defer resp.Body.Close()

	var decoded searchResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
		return nil, statusError(resp.StatusCode, decoded.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, derrors.MarketplaceUnavailable(err)
	}

	products := decoded.Products
	if c.maxItems > 0 && len(products) > c.maxItems {
		products = products[:c.maxItems]
	}
	return products, nil
}

func (c *Client) applyCredentials(req *http.Request, creds Credentials) {
	merged := c.creds
	if creds.AccessKey != "" {
		merged.AccessKey = creds.AccessKey
	}
	if creds.SecretKey != "" {
		merged.SecretKey = creds.SecretKey
	}
	if creds.PartnerTag != "" {
		merged.PartnerTag = creds.PartnerTag
	}
	if merged.AccessKey != "" {
		req.Header.Set(HeaderAccessKey, merged.AccessKey)
	}
	if merged.SecretKey != "" {
		req.Header.Set(HeaderSecretKey, merged.SecretKey)
	}
	if merged.PartnerTag != "" {
		req.Header.Set(HeaderPartnerTag, merged.PartnerTag)
	}
}

func statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	err := fmt.Errorf("search backend returned %d: %s", status, message)
	switch status {
	case http.StatusForbidden:
		return derrors.MarketplaceAuthError(err)
	case http.StatusTooManyRequests:
		return derrors.MarketplaceThrottled(err)
	default:
		return derrors.MarketplaceUnavailable(err)
	}
}

const healthTimeout = 2 * time.Second

// Healthy reports whether the search backend answers its health route.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
