package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	"github.com/JackFeatherston/Osprey/internal/domain/repository"
	domsvc "github.com/JackFeatherston/Osprey/internal/domain/service"
	"github.com/JackFeatherston/Osprey/pkg/logger"
)

// BiasCacheConfig tunes the refresh behaviour.
type BiasCacheConfig struct {
	RefreshInterval time.Duration // staleness bound, default 24h
	MaxArticles     int           // articles fetched per symbol, default 5
	BiasThreshold   float64       // classification bound, default 0.1
}

// DefaultBiasCacheConfig returns the daily-cadence defaults.
func DefaultBiasCacheConfig() BiasCacheConfig {
	return BiasCacheConfig{
		RefreshInterval: 24 * time.Hour,
		MaxArticles:     5,
		BiasThreshold:   0.1,
	}
}

// BiasCache holds one directional bias per symbol, refreshed on a slow
// cadence. Reads happen on every poll cycle; writes only inside Refresh.
// Refresh publishes whole entries atomically, so readers never observe a
// partially updated symbol.
type BiasCache struct {
	cfg     BiasCacheConfig
	news    repository.NewsProvider
	scorer  domsvc.SentimentScorer
	metrics repository.Metrics
	log     *logger.Logger

	mu          sync.RWMutex
	entries     map[string]models.BiasEntry
	lastRefresh time.Time
}

// NewBiasCache builds an empty (cold) cache.
func NewBiasCache(cfg BiasCacheConfig, news repository.NewsProvider, scorer domsvc.SentimentScorer, metrics repository.Metrics, log *logger.Logger) *BiasCache {
	def := DefaultBiasCacheConfig()
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = def.RefreshInterval
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = def.MaxArticles
	}
	if cfg.BiasThreshold <= 0 {
		cfg.BiasThreshold = def.BiasThreshold
	}
	return &BiasCache{
		cfg:     cfg,
		news:    news,
		scorer:  scorer,
		metrics: metrics,
		log:     log,
		entries: make(map[string]models.BiasEntry),
	}
}

// Get returns the cached state for a symbol. An Unknown state means no
// verdict exists (cold cache or a failed refresh for this symbol).
func (c *BiasCache) Get(symbol string) models.BiasState {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()
	if !ok {
		return models.UnknownBias()
	}
	return models.KnownBias(e)
}

// Entries returns a copy of every cached verdict.
func (c *BiasCache) Entries() []models.BiasEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.BiasEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// IsStale reports whether the cache is due for a refresh at `now`.
func (c *BiasCache) IsStale(now time.Time) bool {
	c.mu.RLock()
	last := c.lastRefresh
	c.mu.RUnlock()
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= c.cfg.RefreshInterval
}

// Refresh recomputes the bias for every symbol. A failure fetching or
// scoring one symbol skips that symbol and continues with the rest of
// the batch; an error is returned only when not a single symbol could
// be refreshed.
func (c *BiasCache) Refresh(ctx context.Context, symbols []string) error {
	now := time.Now()

	if !c.scorer.Enabled() {
		// Sentiment disabled: every symbol gets an explicit NEUTRAL
		// verdict so downstream logic needs no special-casing.
		next := make(map[string]models.BiasEntry, len(symbols))
		for _, s := range symbols {
			next[s] = models.BiasEntry{Symbol: s, Bias: models.BiasNeutral, ComputedAt: now}
		}
		c.publish(next, now)
		c.log.Info("bias refresh skipped, sentiment disabled", logger.Int("symbols", len(symbols)))
		return nil
	}

	next := make(map[string]models.BiasEntry, len(symbols))
	var lastErr error
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entry, err := c.refreshSymbol(ctx, symbol, now)
		if err != nil {
			lastErr = err
			c.metrics.RecordError("bias_refresh")
			c.log.Warn("bias refresh failed for symbol",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		next[symbol] = entry
		c.metrics.RecordBiasScore(symbol, entry.Score)
	}

	if len(symbols) > 0 && len(next) == 0 {
		return fmt.Errorf("bias refresh: all %d symbols failed: %w", len(symbols), lastErr)
	}

	c.publish(next, now)
	c.log.Info("bias cache refreshed",
		logger.Int("symbols", len(symbols)), logger.Int("entries", len(next)))
	return nil
}

func (c *BiasCache) refreshSymbol(ctx context.Context, symbol string, now time.Time) (models.BiasEntry, error) {
	articles, err := c.news.GetArticles(ctx, symbol, c.cfg.MaxArticles)
	if err != nil {
		return models.BiasEntry{}, models.CollaboratorError("news", err)
	}
	if len(articles) == 0 {
		return models.BiasEntry{Symbol: symbol, Bias: models.BiasNeutral, ComputedAt: now}, nil
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Title + ". " + a.Description
	}
	results, err := c.scorer.Score(ctx, texts)
	if err != nil {
		return models.BiasEntry{}, models.CollaboratorError("sentiment", err)
	}

	score := weightedSentiment(results)
	return models.BiasEntry{
		Symbol:       symbol,
		Bias:         models.ClassifyBias(score, c.cfg.BiasThreshold),
		Score:        score,
		ArticleCount: len(results),
		ComputedAt:   now,
	}, nil
}

// weightedSentiment averages normalized scores weighted by confidence,
// with a mild recency boost for articles earlier in the list (newest
// first).
func weightedSentiment(results []models.SentimentResult) float64 {
	if len(results) == 0 {
		return 0
	}
	n := float64(len(results))
	var weightedSum, totalWeight float64
	for i, r := range results {
		recency := 1.0 + 0.1*(n-float64(i))/n
		w := r.Confidence * recency
		weightedSum += r.NormalizedScore * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// publish merges the refreshed batch into a copy of the current map and
// swaps the copy in, so a concurrent reader sees either the previous
// state or the merged one, never a mix. Symbols outside the batch keep
// their cached entries.
func (c *BiasCache) publish(next map[string]models.BiasEntry, at time.Time) {
	c.mu.Lock()
	merged := make(map[string]models.BiasEntry, len(c.entries)+len(next))
	for s, e := range c.entries {
		merged[s] = e
	}
	for s, e := range next {
		merged[s] = e
	}
	c.entries = merged
	c.lastRefresh = at
	c.mu.Unlock()
}
