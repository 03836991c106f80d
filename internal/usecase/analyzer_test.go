package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/internal/engine"
)

func risingBars(symbol string, n int) []models.Bar {
	bars := make([]models.Bar, n)
	start := time.Now().Add(-time.Duration(n) * 15 * time.Minute)
	price := 100.0
	for i := range bars {
		price *= 1.005
		bars[i] = models.Bar{
			Symbol:    symbol,
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    100,
		}
	}
	return bars
}

func newAnalyzer(t *testing.T, market drepo.MarketData, bias *engine.BiasCache, archive drepo.SignalArchive) *Analyzer {
	t.Helper()
	return NewAnalyzer(market, bias,
		engine.NewAlignment(engine.DefaultAlignmentConfig()),
		engine.DefaultWindows(), 1.5, drepo.DefaultTimeframe(),
		archive, nopMetrics{}, testLogger(t))
}

func refreshedBias(t *testing.T, score float64, symbols ...string) *engine.BiasCache {
	t.Helper()
	cache := engine.NewBiasCache(engine.DefaultBiasCacheConfig(),
		&fakeNews{articles: []models.NewsArticle{{Title: "headline", Description: "body"}}},
		&fixedScorer{score: score}, nopMetrics{}, testLogger(t))
	cache.Refresh(context.Background(), symbols)
	return cache
}

func coldBias(t *testing.T) *engine.BiasCache {
	t.Helper()
	return engine.NewBiasCache(engine.DefaultBiasCacheConfig(),
		&fakeNews{}, &fixedScorer{}, nopMetrics{}, testLogger(t))
}

func TestEvaluateSymbolAlignedSignal(t *testing.T) {
	market := &fakeMarket{bars: map[string][]models.Bar{"AAPL": risingBars("AAPL", 40)}}
	archive := &recordingArchive{}
	a := newAnalyzer(t, market, refreshedBias(t, 0.6, "AAPL"), archive)

	sig, err := a.EvaluateSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Fatal("rising market with bullish bias should signal")
	}
	if sig.Action != models.ActionBuy {
		t.Fatalf("expected BUY, got %s", sig.Action)
	}
	if sig.Price != market.bars["AAPL"][39].Close {
		t.Fatalf("signal price should be the last close, got %v", sig.Price)
	}
	if archive.records != 1 || archive.signals != 1 {
		t.Fatalf("evaluation should be archived: records=%d signals=%d", archive.records, archive.signals)
	}
}

func TestEvaluateSymbolAtShiftsBarWindow(t *testing.T) {
	market := &fakeMarket{bars: map[string][]models.Bar{"AAPL": risingBars("AAPL", 40)}}
	a := newAnalyzer(t, market, refreshedBias(t, 0.6, "AAPL"), &recordingArchive{})

	past := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	if _, err := a.EvaluateSymbolAt(context.Background(), "AAPL", past); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !market.lastEnd.Equal(past) {
		t.Fatalf("bar window should end at the requested instant, got %v", market.lastEnd)
	}
}

func TestEvaluateSymbolBearishBiasBlocksBuy(t *testing.T) {
	market := &fakeMarket{bars: map[string][]models.Bar{"AAPL": risingBars("AAPL", 40)}}
	archive := &recordingArchive{}
	a := newAnalyzer(t, market, refreshedBias(t, -0.6, "AAPL"), archive)

	sig, err := a.EvaluateSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Fatalf("bearish bias against rising technicals must not signal, got %+v", sig)
	}
	if archive.records != 1 || archive.signals != 0 {
		t.Fatalf("no-signal evaluations are archived too: records=%d signals=%d", archive.records, archive.signals)
	}
}

func TestEvaluateSymbolInsufficientBars(t *testing.T) {
	market := &fakeMarket{bars: map[string][]models.Bar{"THIN": risingBars("THIN", 10)}}
	a := newAnalyzer(t, market, coldBias(t), &recordingArchive{})

	_, err := a.EvaluateSymbol(context.Background(), "THIN")
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluateSymbolMarketDataError(t *testing.T) {
	market := &fakeMarket{err: errors.New("provider down")}
	a := newAnalyzer(t, market, coldBias(t), &recordingArchive{})

	_, err := a.EvaluateSymbol(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected error when market data fails")
	}
}

func TestEvaluateAllIsolatesFailures(t *testing.T) {
	market := &fakeMarket{bars: map[string][]models.Bar{
		"GOOD": risingBars("GOOD", 40),
		"THIN": risingBars("THIN", 3),
	}}
	archive := &recordingArchive{}
	a := newAnalyzer(t, market, refreshedBias(t, 0.6, "GOOD", "THIN"), archive)

	signals := a.EvaluateAll(context.Background(), []string{"THIN", "GOOD"})
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	if signals[0].Symbol != "GOOD" {
		t.Fatalf("expected GOOD to signal, got %s", signals[0].Symbol)
	}
}
