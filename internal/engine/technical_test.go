package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
)

func makeBars(closes []float64, volumes []int64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	start := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	for i := range closes {
		var v int64 = 100
		if volumes != nil {
			v = volumes[i]
		}
		bars[i] = models.Bar{
			Symbol:    "TEST",
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			Open:      closes[i],
			High:      closes[i],
			Low:       closes[i],
			Close:     closes[i],
			Volume:    v,
		}
	}
	return bars
}

func flatSeries(n int, price float64, volume int64) ([]float64, []int64) {
	closes := make([]float64, n)
	volumes := make([]int64, n)
	for i := range closes {
		closes[i] = price
		volumes[i] = volume
	}
	return closes, volumes
}

func TestComputeSnapshotInsufficientData(t *testing.T) {
	closes, volumes := flatSeries(4, 100, 100)
	_, err := ComputeSnapshot(makeBars(closes, volumes), DefaultWindows(), 0)
	if err == nil {
		t.Fatal("expected error with 4 bars and short window 5")
	}
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestComputeSnapshotFlatSeries(t *testing.T) {
	closes, volumes := flatSeries(30, 100, 100)
	snap, err := ComputeSnapshot(makeBars(closes, volumes), DefaultWindows(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ShortTermChange != 0 || snap.MediumTermChange != 0 || snap.PriceVsSMA != 0 {
		t.Fatalf("flat series should yield zero trends, got %+v", snap)
	}
	if snap.VolumeRatio != 1.0 {
		t.Fatalf("flat volume should yield ratio 1.0, got %v", snap.VolumeRatio)
	}
	if snap.VolumeSpike {
		t.Fatal("flat volume should not register a spike")
	}
}

func TestComputeSnapshotShortTermChange(t *testing.T) {
	// 25 bars at 100, last 5 stepping up so bars[n-5].Close == 100 and
	// last close == 105: short-term change of exactly 5%.
	closes, volumes := flatSeries(25, 100, 100)
	closes[21] = 102
	closes[22] = 103
	closes[23] = 104
	closes[24] = 105

	snap, err := ComputeSnapshot(makeBars(closes, volumes), DefaultWindows(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(snap.ShortTermChange-0.05) > 1e-9 {
		t.Fatalf("expected short-term change 0.05, got %v", snap.ShortTermChange)
	}
	if math.Abs(snap.MediumTermChange-0.05) > 1e-9 {
		t.Fatalf("expected medium-term change 0.05, got %v", snap.MediumTermChange)
	}
}

func TestComputeSnapshotVolumeRatioExcludesCurrentBar(t *testing.T) {
	// 10 trailing bars at 100 shares, current bar at 300: ratio 3.0.
	closes, volumes := flatSeries(25, 100, 100)
	volumes[24] = 300

	snap, err := ComputeSnapshot(makeBars(closes, volumes), DefaultWindows(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(snap.VolumeRatio-3.0) > 1e-9 {
		t.Fatalf("expected volume ratio 3.0, got %v", snap.VolumeRatio)
	}
	if !snap.VolumeSpike {
		t.Fatal("ratio 3.0 should register a spike at multiplier 1.5")
	}
}

func TestComputeSnapshotZeroVolumeAverage(t *testing.T) {
	closes, volumes := flatSeries(25, 100, 0)
	volumes[24] = 500

	snap, err := ComputeSnapshot(makeBars(closes, volumes), DefaultWindows(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.VolumeRatio != 1.0 {
		t.Fatalf("zero trailing average should default ratio to 1.0, got %v", snap.VolumeRatio)
	}
	if snap.VolumeTrend != 0 {
		t.Fatalf("zero older half should default trend to 0, got %v", snap.VolumeTrend)
	}
}

func TestComputeSnapshotShortHistoryFallbacks(t *testing.T) {
	// 6 bars: enough for short-term (5) but not for the medium window
	// (20), the SMA window (10) or the volume window (10+1).
	closes := []float64{100, 100, 100, 100, 100, 110}
	volumes := []int64{100, 100, 100, 100, 100, 100}

	snap, err := ComputeSnapshot(makeBars(closes, volumes), DefaultWindows(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(snap.ShortTermChange-0.10) > 1e-9 {
		t.Fatalf("expected short-term change 0.10, got %v", snap.ShortTermChange)
	}
	if snap.MediumTermChange != snap.ShortTermChange {
		t.Fatalf("medium-term should fall back to short-term, got %v", snap.MediumTermChange)
	}
	if snap.PriceVsSMA != 0 {
		t.Fatalf("price-vs-SMA should default to 0 without %d bars, got %v", DefaultWindows().SMA, snap.PriceVsSMA)
	}
	if snap.VolumeRatio != 1.0 {
		t.Fatalf("volume ratio should default to 1.0 without history, got %v", snap.VolumeRatio)
	}
}

func TestComputeSnapshotNeverNaN(t *testing.T) {
	// Pathological input: all zero prices and volumes.
	closes, volumes := flatSeries(25, 0, 0)
	snap, err := ComputeSnapshot(makeBars(closes, volumes), DefaultWindows(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := map[string]float64{
		"short":  snap.ShortTermChange,
		"medium": snap.MediumTermChange,
		"sma":    snap.PriceVsSMA,
		"ratio":  snap.VolumeRatio,
		"trend":  snap.VolumeTrend,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is not finite: %v", name, v)
		}
	}
}
