// Package fundamentals is the boundary to the external fundamentals
// provider (the market-data backend). It fetches per-company financial
// statement line items, sector-peer multiples, and quotes, and
// normalizes them into the canonical bundle the valuation engine
// consumes. The engine itself never fetches data.
package fundamentals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vietquant/vietval/internal/infra"
	"github.com/vietquant/vietval/pkg/models"
)

// ErrDataUnavailable marks an upstream fetch failure. Callers surface it
// as a distinct "data unavailable" condition; the valuation engine is
// never invoked without a complete bundle.
var ErrDataUnavailable = errors.New("fundamentals data unavailable")

// Provider supplies the inputs for one valuation request.
type Provider interface {
	// GetFundamentals returns the normalized fundamentals bundle for a
	// symbol, including the pre-aggregated sector median multiples.
	GetFundamentals(ctx context.Context, symbol string) (*models.FundamentalsBundle, error)

	// GetPeers returns the sector-peer detail list. Display only — the
	// engine consumes the medians from the bundle, never this list.
	GetPeers(ctx context.Context, symbol string) ([]models.PeerComparable, error)

	// GetQuote returns the current normalized market quote.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

const (
	defaultTimeout  = 30 * time.Second
	defaultCacheTTL = 5 * time.Minute
	defaultRate     = 5 // requests per second
)

// Client is the HTTP implementation of Provider.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *infra.Cache
	limiter *infra.RateLimiter
	mapper  *Mapper
	log     *logrus.Entry
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
	RatePerSec int

	// Fallback multiples used when the provider has no sector medians.
	FallbackPE float64
	FallbackPB float64
}

// NewClient creates a provider client for the given backend base URL.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = defaultRate
	}
	return &Client{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
		cache:   infra.NewCache(opts.CacheTTL),
		limiter: infra.NewRateLimiter(opts.RatePerSec, time.Second),
		mapper:  NewMapper(opts.FallbackPE, opts.FallbackPB),
		log:     logrus.WithField("component", "fundamentals"),
	}
}

// envelope is the provider's standard JSON wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// getJSON performs a rate-limited GET and decodes the envelope payload.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrDataUnavailable, path, resp.StatusCode, body)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrDataUnavailable, path, err)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", ErrDataUnavailable, env.Error)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: payload %s: %v", ErrDataUnavailable, path, err)
	}
	return nil
}

// GetFundamentals fetches financials, comparables, and the price board
// concurrently and maps them into one canonical bundle. Results are
// cached per symbol.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.FundamentalsBundle, error) {
	cacheKey := "fundamentals:" + symbol
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(*models.FundamentalsBundle), nil
	}

	var (
		financials  map[string]any
		comparables comparablesPayload
		quoteRaw    map[string]any
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, "/stocks/"+symbol+"/financials", &financials)
	})
	g.Go(func() error {
		return c.getJSON(gctx, "/stocks/"+symbol+"/comparables", &comparables)
	})
	g.Go(func() error {
		// A missing price board is non-fatal: valuation can still run
		// with a price override or without upside.
		if err := c.getJSON(gctx, "/stocks/"+symbol+"/price-board", &quoteRaw); err != nil {
			c.log.WithField("symbol", symbol).WithError(err).Warn("price board unavailable")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle := c.mapper.MapBundle(symbol, financials, &comparables, quoteRaw)
	c.cache.Set(cacheKey, bundle)

	c.log.WithFields(logrus.Fields{
		"symbol":   symbol,
		"industry": bundle.Industry,
		"is_bank":  bundle.IsBank,
	}).Debug("fundamentals bundle built")
	return bundle, nil
}

// GetPeers fetches the sector-peer detail list for display and export.
func (c *Client) GetPeers(ctx context.Context, symbol string) ([]models.PeerComparable, error) {
	cacheKey := "peers:" + symbol
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.([]models.PeerComparable), nil
	}

	var payload comparablesPayload
	if err := c.getJSON(ctx, "/stocks/"+symbol+"/comparables", &payload); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, payload.Peers)
	return payload.Peers, nil
}

// GetQuote fetches and normalizes the current market quote.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, "/stocks/"+symbol+"/price-board", &raw); err != nil {
		return nil, err
	}
	return c.mapper.MapQuote(symbol, raw), nil
}

// Invalidate drops a symbol's cached fundamentals and peers so the next
// request re-fetches them.
func (c *Client) Invalidate(symbol string) {
	c.cache.Invalidate("fundamentals:" + symbol)
	c.cache.Invalidate("peers:" + symbol)
}

// comparablesPayload is the provider's comparables response: medians
// pre-aggregated upstream plus the peer detail list.
type comparablesPayload struct {
	Industry string                  `json:"industry"`
	MedianPE float64                 `json:"median_pe"`
	MedianPB float64                 `json:"median_pb"`
	Peers    []models.PeerComparable `json:"peers"`
}
