package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
)

func knownBias(b models.Bias, score float64, articles int) models.BiasState {
	return models.KnownBias(models.BiasEntry{
		Symbol:       "TEST",
		Bias:         b,
		Score:        score,
		ArticleCount: articles,
		ComputedAt:   time.Now(),
	})
}

func TestTechnicalScoreComposite(t *testing.T) {
	snap := models.TechnicalSnapshot{
		ShortTermChange:  0.03,
		MediumTermChange: 0.05,
		PriceVsSMA:       0.01,
	}
	want := 0.03*0.4 + 0.05*0.3 + 0.01*0.2
	if got := TechnicalScore(snap); math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTechnicalScoreVolumeSpikeFollowsSign(t *testing.T) {
	up := models.TechnicalSnapshot{ShortTermChange: 0.05, VolumeSpike: true}
	down := models.TechnicalSnapshot{ShortTermChange: -0.05, VolumeSpike: true}

	if got := TechnicalScore(up); math.Abs(got-(0.05*0.4+0.1)) > 1e-12 {
		t.Fatalf("positive spike adjustment wrong: %v", got)
	}
	if got := TechnicalScore(down); math.Abs(got-(-0.05*0.4-0.1)) > 1e-12 {
		t.Fatalf("negative spike adjustment wrong: %v", got)
	}
}

func TestTechnicalScoreClamped(t *testing.T) {
	huge := models.TechnicalSnapshot{
		ShortTermChange:  10,
		MediumTermChange: 10,
		PriceVsSMA:       10,
		VolumeSpike:      true,
	}
	if got := TechnicalScore(huge); got != 1.0 {
		t.Fatalf("expected clamp to +1.0, got %v", got)
	}
	huge.ShortTermChange, huge.MediumTermChange, huge.PriceVsSMA = -10, -10, -10
	if got := TechnicalScore(huge); got != -1.0 {
		t.Fatalf("expected clamp to -1.0, got %v", got)
	}
}

func TestEvaluateBullishAlignedEmitsBuy(t *testing.T) {
	a := NewAlignment(DefaultAlignmentConfig())
	snap := models.TechnicalSnapshot{
		ShortTermChange:  0.03,
		MediumTermChange: 0.05,
		PriceVsSMA:       0.01,
		VolumeRatio:      2.0,
		VolumeSpike:      true,
	}
	sig := a.Evaluate("AAPL", 150.25, snap, knownBias(models.BiasBullish, 0.45, 5))
	if sig == nil {
		t.Fatal("expected a BUY signal")
	}
	if sig.Action != models.ActionBuy {
		t.Fatalf("expected BUY, got %s", sig.Action)
	}
	if sig.Symbol != "AAPL" || sig.Price != 150.25 {
		t.Fatalf("signal identity wrong: %+v", sig)
	}
	if sig.SentimentBias != models.BiasBullish || sig.SentimentScore != 0.45 {
		t.Fatalf("sentiment fields wrong: %+v", sig)
	}
	if !strings.Contains(sig.Reason, "moderate BULLISH") {
		t.Fatalf("reason should name moderate bullish bias: %q", sig.Reason)
	}
	if !strings.Contains(sig.Reason, "volume spike 2.0x") {
		t.Fatalf("reason should mention the volume spike: %q", sig.Reason)
	}
}

func TestEvaluateBullishBiasNeverSells(t *testing.T) {
	a := NewAlignment(DefaultAlignmentConfig())
	snap := models.TechnicalSnapshot{
		ShortTermChange:  -0.05,
		MediumTermChange: -0.08,
		PriceVsSMA:       -0.03,
	}
	if sig := a.Evaluate("AAPL", 140, snap, knownBias(models.BiasBullish, 0.3, 4)); sig != nil {
		t.Fatalf("bullish bias with falling technicals must not signal, got %+v", sig)
	}
}

func TestEvaluateBearishAlignedEmitsSell(t *testing.T) {
	a := NewAlignment(DefaultAlignmentConfig())
	snap := models.TechnicalSnapshot{
		ShortTermChange:  -0.04,
		MediumTermChange: -0.06,
		PriceVsSMA:       -0.02,
	}
	sig := a.Evaluate("TSLA", 210.5, snap, knownBias(models.BiasBearish, -0.6, 5))
	if sig == nil {
		t.Fatal("expected a SELL signal")
	}
	if sig.Action != models.ActionSell {
		t.Fatalf("expected SELL, got %s", sig.Action)
	}
	if !strings.Contains(sig.Reason, "strong BEARISH") {
		t.Fatalf("reason should name strong bearish bias: %q", sig.Reason)
	}
}

func TestEvaluateBearishBiasNeverBuys(t *testing.T) {
	a := NewAlignment(DefaultAlignmentConfig())
	snap := models.TechnicalSnapshot{
		ShortTermChange:  0.05,
		MediumTermChange: 0.07,
		PriceVsSMA:       0.02,
	}
	if sig := a.Evaluate("TSLA", 220, snap, knownBias(models.BiasBearish, -0.4, 3)); sig != nil {
		t.Fatalf("bearish bias with rising technicals must not signal, got %+v", sig)
	}
}

func TestEvaluateNeutralBiasNeverSignals(t *testing.T) {
	a := NewAlignment(DefaultAlignmentConfig())
	strong := models.TechnicalSnapshot{
		ShortTermChange:  0.10,
		MediumTermChange: 0.12,
		PriceVsSMA:       0.05,
		VolumeSpike:      true,
		VolumeRatio:      3.0,
	}
	if sig := a.Evaluate("MSFT", 400, strong, knownBias(models.BiasNeutral, 0.02, 5)); sig != nil {
		t.Fatalf("NEUTRAL bias must suppress signals regardless of technicals, got %+v", sig)
	}
}

func TestEvaluateUnknownBiasTechnicalOnly(t *testing.T) {
	a := NewAlignment(DefaultAlignmentConfig())

	// Composite 0.02 clears the 0.015 technical-only threshold.
	snap := models.TechnicalSnapshot{ShortTermChange: 0.05}
	sig := a.Evaluate("NVDA", 800, snap, models.UnknownBias())
	if sig == nil {
		t.Fatal("expected a technical-only BUY")
	}
	if sig.Action != models.ActionBuy {
		t.Fatalf("expected BUY, got %s", sig.Action)
	}
	if !strings.Contains(sig.Reason, "technical-only") {
		t.Fatalf("reason should mark technical-only mode: %q", sig.Reason)
	}

	// Composite 0.012 clears the aligned threshold but not the
	// technical-only one: no signal without a bias.
	weak := models.TechnicalSnapshot{ShortTermChange: 0.03}
	if got := TechnicalScore(weak); math.Abs(got-0.012) > 1e-12 {
		t.Fatalf("fixture drifted, composite is %v", got)
	}
	if sig := a.Evaluate("NVDA", 800, weak, models.UnknownBias()); sig != nil {
		t.Fatalf("score below technical-only threshold must not signal, got %+v", sig)
	}
	// The same score with a bullish bias does signal.
	if sig := a.Evaluate("NVDA", 800, weak, knownBias(models.BiasBullish, 0.3, 2)); sig == nil {
		t.Fatal("aligned threshold should admit the weaker score")
	}
}

func TestEvaluateThresholdIsExclusive(t *testing.T) {
	a := NewAlignment(AlignmentConfig{AlignedThreshold: 0.25, TechnicalThreshold: 0.3})

	// 0.625 * 0.4 lands exactly on 0.25 in float64, right at the
	// threshold: the comparison is strict, so no signal.
	atBoundary := models.TechnicalSnapshot{ShortTermChange: 0.625}
	if got := TechnicalScore(atBoundary); got != 0.25 {
		t.Fatalf("fixture drifted, composite is %v", got)
	}
	if sig := a.Evaluate("AMD", 100, atBoundary, knownBias(models.BiasBullish, 0.2, 3)); sig != nil {
		t.Fatalf("score equal to the threshold must not signal, got %+v", sig)
	}
}

func TestBuildReasonStrengthBands(t *testing.T) {
	a := NewAlignment(DefaultAlignmentConfig())
	snap := models.TechnicalSnapshot{ShortTermChange: 0.05}

	cases := []struct {
		score float64
		want  string
	}{
		{0.1, "weak"},
		{0.35, "moderate"},
		{0.8, "strong"},
	}
	for _, tc := range cases {
		sig := a.Evaluate("X", 10, snap, knownBias(models.BiasBullish, tc.score, 5))
		if sig == nil {
			t.Fatalf("score %v: expected a signal", tc.score)
		}
		if !strings.Contains(sig.Reason, tc.want+" BULLISH") {
			t.Fatalf("score %v: expected %q strength in %q", tc.score, tc.want, sig.Reason)
		}
	}
}
