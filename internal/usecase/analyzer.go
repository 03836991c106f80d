package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/internal/engine"
	"github.com/JackFeatherston/Osprey/pkg/logger"
)

const barLookback = 7 * 24 * time.Hour

// Analyzer runs the per-symbol evaluation pipeline: fetch bars, compute
// the technical snapshot, read the cached bias and apply the alignment
// rule. Every evaluation is archived whether or not it produced a signal.
type Analyzer struct {
	market    drepo.MarketData
	bias      *engine.BiasCache
	alignment *engine.Alignment
	windows   engine.Windows
	volumeMul float64
	timeframe drepo.Timeframe
	archive   drepo.SignalArchive
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewAnalyzer creates an Analyzer instance.
func NewAnalyzer(
	market drepo.MarketData,
	bias *engine.BiasCache,
	alignment *engine.Alignment,
	windows engine.Windows,
	volumeMul float64,
	timeframe drepo.Timeframe,
	archive drepo.SignalArchive,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Analyzer {
	if windows == (engine.Windows{}) {
		windows = engine.DefaultWindows()
	}
	if timeframe == "" {
		timeframe = drepo.DefaultTimeframe()
	}
	return &Analyzer{
		market:    market,
		bias:      bias,
		alignment: alignment,
		windows:   windows,
		volumeMul: volumeMul,
		timeframe: timeframe,
		archive:   archive,
		metrics:   metrics,
		log:       log,
	}
}

// EvaluateSymbol analyzes one symbol against the latest bars and
// returns a signal, or nil when the alignment rule produced none.
// Insufficient bars return ErrInsufficientData.
func (a *Analyzer) EvaluateSymbol(ctx context.Context, symbol string) (*models.Signal, error) {
	return a.EvaluateSymbolAt(ctx, symbol, time.Now())
}

// EvaluateSymbolAt analyzes one symbol as of the given instant. The
// bias read is always the current cached verdict; only the bar window
// shifts.
func (a *Analyzer) EvaluateSymbolAt(ctx context.Context, symbol string, end time.Time) (*models.Signal, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	start := time.Now()

	bars, err := a.market.GetBars(ctx, symbol, a.timeframe, end.Add(-barLookback), end)
	if err != nil {
		a.metrics.RecordError("market_data")
		return nil, fmt.Errorf("get bars %s: %w", symbol, err)
	}
	if len(bars) < a.windows.Medium {
		return nil, models.InsufficientDataError("bars", len(bars), a.windows.Medium)
	}

	snap, err := engine.ComputeSnapshot(bars, a.windows, a.volumeMul)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", symbol, err)
	}

	bias := a.bias.Get(symbol)
	price := bars[len(bars)-1].Close
	sig := a.alignment.Evaluate(symbol, price, snap, bias)

	if err := a.archive.RecordEvaluation(ctx, symbol, end, snap, bias, sig); err != nil {
		a.log.Warn("archive write failed", logger.String("symbol", symbol), logger.Error(err))
	}

	a.metrics.RecordAnalysisLatency(symbol, time.Since(start).Seconds())
	if sig != nil {
		a.metrics.RecordSignal(symbol, string(sig.Action))
		a.log.Info("signal generated",
			logger.String("symbol", symbol),
			logger.String("action", string(sig.Action)),
			logger.Any("technical_score", sig.TechnicalScore))
	}
	return sig, nil
}

// EvaluateAll analyzes every symbol, isolating per-symbol failures, and
// returns the signals produced.
func (a *Analyzer) EvaluateAll(ctx context.Context, symbols []string) []*models.Signal {
	var signals []*models.Signal
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return signals
		default:
		}

		sig, err := a.EvaluateSymbol(ctx, symbol)
		if err != nil {
			if errors.Is(err, models.ErrInsufficientData) {
				a.log.Debug("skipping symbol, not enough bars", logger.String("symbol", symbol))
			} else {
				a.log.Warn("evaluation failed", logger.String("symbol", symbol), logger.Error(err))
			}
			continue
		}
		if sig != nil {
			signals = append(signals, sig)
		}
	}
	return signals
}
