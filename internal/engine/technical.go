package engine

import (
	"github.com/JackFeatherston/Osprey/internal/domain/models"
)

// Windows configures the lookback sizes for snapshot computation,
// expressed in bars.
type Windows struct {
	Short  int // short-term trend lookback
	Medium int // medium-term trend lookback
	SMA    int // simple moving average window
	Volume int // trailing volume average window
}

// DefaultWindows matches the intraday 15-minute configuration.
func DefaultWindows() Windows {
	return Windows{Short: 5, Medium: 20, SMA: 10, Volume: 10}
}

// VolumeSpikeMultiplier is the default ratio above which the current
// bar's volume counts as a spike.
const VolumeSpikeMultiplier = 1.5

// ComputeSnapshot derives trend and volume statistics from an ordered
// bar sequence (oldest first). It returns ErrInsufficientData when fewer
// than max(Short, 2) bars are available. Every division by a zero or
// undefined denominator short-circuits to the documented default, so
// the snapshot never carries NaN or Inf.
func ComputeSnapshot(bars []models.Bar, w Windows, volumeMultiplier float64) (models.TechnicalSnapshot, error) {
	minBars := w.Short
	if minBars < 2 {
		minBars = 2
	}
	if len(bars) < minBars {
		return models.TechnicalSnapshot{}, models.InsufficientDataError("bars", len(bars), minBars)
	}
	if volumeMultiplier <= 0 {
		volumeMultiplier = VolumeSpikeMultiplier
	}

	n := len(bars)
	last := bars[n-1]

	snap := models.TechnicalSnapshot{VolumeRatio: 1.0}

	// Short-term trend over the short window.
	ref := bars[n-w.Short].Close
	if ref != 0 {
		snap.ShortTermChange = (last.Close - ref) / ref
	}

	// Medium-term trend falls back to the short-term figure when the
	// window is not covered.
	snap.MediumTermChange = snap.ShortTermChange
	if n >= w.Medium {
		ref = bars[n-w.Medium].Close
		if ref != 0 {
			snap.MediumTermChange = (last.Close - ref) / ref
		}
	}

	// Price relative to the simple moving average; 0 without enough bars.
	if n >= w.SMA {
		var sum float64
		for _, b := range bars[n-w.SMA:] {
			sum += b.Close
		}
		sma := sum / float64(w.SMA)
		if sma != 0 {
			snap.PriceVsSMA = (last.Close - sma) / sma
		}
	}

	// Volume ratio against the trailing average, excluding the current
	// bar. Defaults to 1.0 with insufficient history or a zero average.
	if n >= w.Volume+1 {
		var sum float64
		for _, b := range bars[n-w.Volume-1 : n-1] {
			sum += float64(b.Volume)
		}
		avg := sum / float64(w.Volume)
		if avg > 0 {
			snap.VolumeRatio = float64(last.Volume) / avg
		}
	}

	// Volume trend: mean of the most recent half-window vs the mean of
	// the preceding half-window; 0 with insufficient data.
	half := w.Volume / 2
	if half > 0 && n >= w.Volume {
		var recent, older float64
		for _, b := range bars[n-half:] {
			recent += float64(b.Volume)
		}
		for _, b := range bars[n-w.Volume : n-half] {
			older += float64(b.Volume)
		}
		recent /= float64(half)
		older /= float64(w.Volume - half)
		if older > 0 {
			snap.VolumeTrend = (recent - older) / older
		}
	}

	snap.VolumeSpike = snap.VolumeRatio > volumeMultiplier
	return snap, nil
}
