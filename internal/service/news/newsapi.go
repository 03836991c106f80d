package news

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	pcache "github.com/JackFeatherston/Osprey/pkg/cache"
	"github.com/JackFeatherston/Osprey/pkg/http"
)

const (
	defaultBaseURL  = "https://newsapi.org/v2"
	defaultCacheTTL = 30 * time.Minute
	lookbackDays    = 7
)

// companyNames maps tickers to search queries that pull fewer false
// positives than the bare symbol. Unknown symbols fall back to the
// ticker itself.
var companyNames = map[string]string{
	"AAPL":  "Apple",
	"MSFT":  "Microsoft",
	"GOOGL": "Google",
	"GOOG":  "Google",
	"AMZN":  "Amazon",
	"TSLA":  "Tesla",
	"META":  "Meta Platforms",
	"NVDA":  "Nvidia",
	"AMD":   "AMD",
	"NFLX":  "Netflix",
	"JPM":   "JPMorgan",
	"V":     "Visa",
	"DIS":   "Disney",
	"INTC":  "Intel",
	"BA":    "Boeing",
}

// Client fetches headlines from the NewsAPI "everything" endpoint. A
// shared rate limiter keeps the free-tier quota intact and results are
// cached so the daily bias refresh and ad-hoc API calls reuse fetches.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	cache    pcache.Service
	cacheTTL time.Duration
	limiter  *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCache attaches a response cache.
func WithCache(svc pcache.Service, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = svc
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithRateLimit caps outgoing requests per second with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithHTTPClient injects a preconfigured HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a NewsAPI provider. The API key is required.
func New(apiKey string, opts ...Option) (drepo.NewsProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: newsapi key is required", models.ErrConfiguration)
	}
	c := &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		cacheTTL: defaultCacheTTL,
		limiter:  rate.NewLimiter(rate.Limit(1), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.NewClient(http.WithTimeout(10 * time.Second))
	}
	return c, nil
}

type apiArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type everythingResponse struct {
	Status   string       `json:"status"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Articles []apiArticle `json:"articles"`
}

// GetArticles returns up to maxCount recent articles for the symbol,
// newest first.
func (c *Client) GetArticles(ctx context.Context, symbol string, maxCount int) ([]models.NewsArticle, error) {
	if maxCount <= 0 {
		maxCount = 5
	}

	cacheKey := pcache.GenerateKeyWithParams("news", symbol, maxCount)
	if c.cache != nil {
		var cached []models.NewsArticle
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.CollaboratorError("newsapi", err)
	}

	query := companyNames[symbol]
	if query == "" {
		query = symbol
	}
	from := time.Now().AddDate(0, 0, -lookbackDays).UTC().Format("2006-01-02")

	var resp everythingResponse
	err := c.http.SendAndParse(ctx, &http.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/everything",
		QueryParams: map[string][]string{
			"q":        {query},
			"from":     {from},
			"language": {"en"},
			"sortBy":   {"publishedAt"},
			"pageSize": {fmt.Sprintf("%d", maxCount)},
		},
		Headers: map[string]string{"X-Api-Key": c.apiKey},
	}, &resp)
	if err != nil {
		return nil, models.CollaboratorError("newsapi", err)
	}
	if resp.Status != "ok" {
		return nil, models.CollaboratorError("newsapi",
			fmt.Errorf("status %q: %s (%s)", resp.Status, resp.Message, resp.Code))
	}

	articles := make([]models.NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" {
			continue
		}
		articles = append(articles, models.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      a.Source.Name,
		})
		if len(articles) == maxCount {
			break
		}
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, articles, c.cacheTTL)
	}
	return articles, nil
}
