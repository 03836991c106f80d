package models

import "time"

// Bar is one OHLCV sample for a symbol. Immutable once fetched.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// NewsArticle is a single headline returned by the news provider.
type NewsArticle struct {
	Title       string
	Description string
	URL         string
	PublishedAt time.Time
	Source      string
}

// SentimentResult is the scorer's verdict for one text.
type SentimentResult struct {
	Label           string  // "positive", "negative", "neutral"
	Confidence      float64 // 0..1
	NormalizedScore float64 // -1..+1
}
