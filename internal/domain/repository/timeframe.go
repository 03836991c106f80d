package repository

// Timeframe represents bar resolution buckets as the data provider
// names them.
type Timeframe string

const (
	TF1Min  Timeframe = "1Min"
	TF15Min Timeframe = "15Min"
	TF1Hour Timeframe = "1Hour"
	TF1Day  Timeframe = "1Day"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1Min, TF15Min, TF1Hour, TF1Day:
		return true
	default:
		return false
	}
}

// DefaultTimeframe is the intraday analysis resolution.
func DefaultTimeframe() Timeframe { return TF15Min }

// NormalizeTimeframe converts a raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}
