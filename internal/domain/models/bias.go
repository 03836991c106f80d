package models

import "time"

// Bias is the directional lean derived from news sentiment.
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
)

// BiasEntry is the cached per-symbol sentiment verdict. Entries are
// replaced whole by a refresh, never partially updated.
type BiasEntry struct {
	Symbol       string    `json:"symbol"`
	Bias         Bias      `json:"bias"`
	Score        float64   `json:"score"`
	ArticleCount int       `json:"article_count"`
	ComputedAt   time.Time `json:"computed_at"`
}

// BiasState distinguishes "we have a cached verdict" from "no verdict
// exists for this symbol". Consumers branch on Known, never on zero
// article counts.
type BiasState struct {
	Entry BiasEntry
	Known bool
}

// KnownBias wraps an entry in a known state.
func KnownBias(e BiasEntry) BiasState { return BiasState{Entry: e, Known: true} }

// UnknownBias is the cold-cache state.
func UnknownBias() BiasState { return BiasState{} }

// ClassifyBias maps a sentiment score to a directional bias given the
// classification threshold.
func ClassifyBias(score, threshold float64) Bias {
	switch {
	case score > threshold:
		return BiasBullish
	case score < -threshold:
		return BiasBearish
	default:
		return BiasNeutral
	}
}
