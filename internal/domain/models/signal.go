package models

// TradeAction is the proposed direction of a trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// TechnicalSnapshot holds intraday trend and volume statistics derived
// from a rolling bar window. Computed fresh per analysis, never stored.
type TechnicalSnapshot struct {
	ShortTermChange  float64 `json:"short_term_change"`
	MediumTermChange float64 `json:"medium_term_change"`
	PriceVsSMA       float64 `json:"price_vs_sma"`
	VolumeRatio      float64 `json:"volume_ratio"`
	VolumeTrend      float64 `json:"volume_trend"`
	VolumeSpike      bool    `json:"is_volume_spike"`
}

// Signal is the alignment engine's output. Produced only when bias and
// technical momentum agree; its absence means "no action this cycle".
type Signal struct {
	Symbol         string      `json:"symbol"`
	Action         TradeAction `json:"action"`
	Price          float64     `json:"price"`
	Reason         string      `json:"reason"`
	SentimentScore float64     `json:"sentiment_score"`
	SentimentBias  Bias        `json:"sentiment_bias"`
	TechnicalScore float64     `json:"technical_score"`
}
