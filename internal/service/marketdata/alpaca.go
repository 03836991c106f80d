package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/internal/service/cache"
	"github.com/JackFeatherston/Osprey/pkg/http"
	"github.com/JackFeatherston/Osprey/pkg/util"
)

const (
	defaultBaseURL  = "https://data.alpaca.markets"
	defaultFeed     = "iex"
	defaultPageSize = 1000
	barCacheTTL     = 60 * time.Second
)

// Client fetches historical bars from the Alpaca market data REST API.
// Responses are cached briefly so repeated evaluations inside one poll
// cycle hit the provider once per symbol.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	feed      string
	http      *http.Client
	bars      *cache.TTLCache
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the data API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithFeed selects the data feed (iex or sip).
func WithFeed(feed string) Option {
	return func(c *Client) { c.feed = feed }
}

// WithHTTPClient injects a preconfigured HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds an Alpaca market data client. Credentials are required.
func New(apiKey, apiSecret string, opts ...Option) (drepo.MarketData, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("%w: alpaca api key and secret are required", models.ErrConfiguration)
	}
	c := &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   defaultBaseURL,
		feed:      defaultFeed,
		bars:      cache.NewTTLCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.NewClient(http.WithTimeout(15 * time.Second))
	}
	return c, nil
}

type alpacaBar struct {
	T time.Time `json:"t"`
	O float64   `json:"o"`
	H float64   `json:"h"`
	L float64   `json:"l"`
	C float64   `json:"c"`
	V int64     `json:"v"`
}

type barsResponse struct {
	Bars          []alpacaBar `json:"bars"`
	Symbol        string      `json:"symbol"`
	NextPageToken *string     `json:"next_page_token"`
}

// GetBars returns bars for the symbol in [start, end], oldest first. The
// provider paginates; all pages are drained before returning.
func (c *Client) GetBars(ctx context.Context, symbol string, tf drepo.Timeframe, start, end time.Time) ([]models.Bar, error) {
	// Align to bar boundaries so back-to-back evaluations inside one
	// poll cycle share a cache entry.
	start, end = util.AlignFromTo(start, end, string(tf))
	key := fmt.Sprintf("%s:%s:%d:%d", symbol, tf, start.Unix(), end.Unix())
	if v, ok := c.bars.Get(key); ok {
		if cached, ok := v.([]models.Bar); ok {
			return cached, nil
		}
	}

	var out []models.Bar
	pageToken := ""
	for {
		params := map[string][]string{
			"timeframe": {string(tf)},
			"start":     {start.UTC().Format(time.RFC3339)},
			"end":       {end.UTC().Format(time.RFC3339)},
			"limit":     {fmt.Sprintf("%d", defaultPageSize)},
			"feed":      {c.feed},
			"adjustment": {
				"raw",
			},
		}
		if pageToken != "" {
			params["page_token"] = []string{pageToken}
		}

		var resp barsResponse
		err := c.http.SendAndParse(ctx, &http.RequestOptions{
			Method:      http.MethodGet,
			URL:         fmt.Sprintf("%s/v2/stocks/%s/bars", c.baseURL, symbol),
			QueryParams: params,
			Headers:     c.authHeaders(),
		}, &resp)
		if err != nil {
			return nil, models.CollaboratorError("alpaca market data", err)
		}

		for _, b := range resp.Bars {
			out = append(out, models.Bar{
				Symbol:    symbol,
				Timestamp: b.T,
				Open:      b.O,
				High:      b.H,
				Low:       b.L,
				Close:     b.C,
				Volume:    b.V,
			})
		}

		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			break
		}
		pageToken = *resp.NextPageToken
	}

	c.bars.Set(key, out, barCacheTTL)
	return out, nil
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{
		"APCA-API-KEY-ID":     c.apiKey,
		"APCA-API-SECRET-KEY": c.apiSecret,
	}
}
