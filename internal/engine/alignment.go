package engine

import (
	"fmt"
	"math"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
)

// AlignmentConfig carries the decision thresholds. The technical-only
// threshold is deliberately wider than the aligned one to compensate
// for the missing sentiment confirmation; the two constants stay
// separate pending calibration.
type AlignmentConfig struct {
	AlignedThreshold   float64 // composite score bound when a bias is known
	TechnicalThreshold float64 // bound for the cold-cache fallback
}

// DefaultAlignmentConfig returns the stock thresholds.
func DefaultAlignmentConfig() AlignmentConfig {
	return AlignmentConfig{
		AlignedThreshold:   0.01,
		TechnicalThreshold: 0.015,
	}
}

// Alignment combines the cached sentiment bias with a composite
// technical score and emits a trade signal only when both agree in
// direction. Pure and synchronous.
type Alignment struct {
	cfg AlignmentConfig
}

// NewAlignment builds the engine, falling back to defaults for
// non-positive thresholds.
func NewAlignment(cfg AlignmentConfig) *Alignment {
	def := DefaultAlignmentConfig()
	if cfg.AlignedThreshold <= 0 {
		cfg.AlignedThreshold = def.AlignedThreshold
	}
	if cfg.TechnicalThreshold <= 0 {
		cfg.TechnicalThreshold = def.TechnicalThreshold
	}
	return &Alignment{cfg: cfg}
}

// TechnicalScore folds the snapshot into a single composite in [-1, +1]:
// 0.4·short + 0.3·medium + 0.2·price-vs-SMA, plus ±0.1 when a volume
// spike confirms the running direction.
func TechnicalScore(snap models.TechnicalSnapshot) float64 {
	score := snap.ShortTermChange*0.4 + snap.MediumTermChange*0.3 + snap.PriceVsSMA*0.2
	if snap.VolumeSpike {
		if score > 0 {
			score += 0.1
		} else {
			score -= 0.1
		}
	}
	return math.Max(-1.0, math.Min(1.0, score))
}

// Evaluate applies the alignment rule and returns a signal, or nil when
// no trade is warranted.
//
// With a known non-NEUTRAL bias the technical score must agree in sign
// and clear the aligned threshold. A known NEUTRAL bias always yields no
// signal. With no cached bias the engine falls back to technical-only
// thresholds.
func (a *Alignment) Evaluate(symbol string, price float64, snap models.TechnicalSnapshot, bias models.BiasState) *models.Signal {
	score := TechnicalScore(snap)

	var action models.TradeAction
	var sentimentScore float64
	sentimentBias := models.BiasNeutral

	if bias.Known {
		sentimentScore = bias.Entry.Score
		sentimentBias = bias.Entry.Bias
		switch bias.Entry.Bias {
		case models.BiasBullish:
			if score > a.cfg.AlignedThreshold {
				action = models.ActionBuy
			}
		case models.BiasBearish:
			if score < -a.cfg.AlignedThreshold {
				action = models.ActionSell
			}
		case models.BiasNeutral:
			// No technical-only override while a fresh NEUTRAL verdict
			// is present.
		}
	} else {
		if score > a.cfg.TechnicalThreshold {
			action = models.ActionBuy
		} else if score < -a.cfg.TechnicalThreshold {
			action = models.ActionSell
		}
	}

	if action == "" {
		return nil
	}

	return &models.Signal{
		Symbol:         symbol,
		Action:         action,
		Price:          price,
		Reason:         buildReason(action, sentimentScore, bias, snap, score),
		SentimentScore: sentimentScore,
		SentimentBias:  sentimentBias,
		TechnicalScore: score,
	}
}

// buildReason renders the human-readable rationale. Formatting only; no
// control-flow effect.
func buildReason(action models.TradeAction, sentimentScore float64, bias models.BiasState, snap models.TechnicalSnapshot, score float64) string {
	var sentimentPart string
	if bias.Known {
		strength := "weak"
		if abs := math.Abs(sentimentScore); abs > 0.5 {
			strength = "strong"
		} else if abs > 0.2 {
			strength = "moderate"
		}
		sentimentPart = fmt.Sprintf("News bias: %s %s (%+.2f) from %d articles",
			strength, bias.Entry.Bias, sentimentScore, bias.Entry.ArticleCount)
	} else {
		sentimentPart = "News bias: unavailable, technical-only"
	}

	direction := "rising"
	if snap.ShortTermChange < 0 {
		direction = "falling"
	}
	technicalPart := fmt.Sprintf("Technical: price %s %.1f%% recently",
		direction, math.Abs(snap.ShortTermChange)*100)
	if snap.VolumeSpike {
		technicalPart += fmt.Sprintf(", volume spike %.1fx average", snap.VolumeRatio)
	}

	return fmt.Sprintf("[%s] %s | %s | Technical score: %+.3f",
		action, sentimentPart, technicalPart, score)
}
