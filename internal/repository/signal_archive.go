package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/pkg/clickhouse"
)

var archiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS signal_evaluations (
		symbol            String,
		evaluated_at      DateTime64(3),
		short_term_change Float64,
		medium_term_change Float64,
		price_vs_sma      Float64,
		volume_ratio      Float64,
		volume_trend      Float64,
		volume_spike      UInt8,
		bias              String,
		bias_score        Float64,
		bias_known        UInt8,
		action            String,
		technical_score   Float64,
		signaled          UInt8
	) ENGINE = MergeTree()
	ORDER BY (symbol, evaluated_at)
	TTL toDateTime(evaluated_at) + INTERVAL 90 DAY`,
}

// ClickHouseArchive records every evaluation outcome, signal or not,
// for offline threshold calibration. Inserts are best-effort from the
// caller's perspective; a write failure never blocks the poll cycle.
type ClickHouseArchive struct {
	client *clickhouse.Client
}

// NewClickHouseArchive builds the archive and ensures the table exists.
func NewClickHouseArchive(ctx context.Context, client *clickhouse.Client) (drepo.SignalArchive, error) {
	if err := client.InitSchema(ctx, archiveSchema); err != nil {
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return &ClickHouseArchive{client: client}, nil
}

func (a *ClickHouseArchive) RecordEvaluation(ctx context.Context, symbol string, at time.Time, snap models.TechnicalSnapshot, bias models.BiasState, sig *models.Signal) error {
	biasName := ""
	var biasScore float64
	if bias.Known {
		biasName = string(bias.Entry.Bias)
		biasScore = bias.Entry.Score
	}

	action := ""
	var technicalScore float64
	if sig != nil {
		action = string(sig.Action)
		technicalScore = sig.TechnicalScore
	}

	_, err := a.client.DB().ExecContext(ctx,
		`INSERT INTO signal_evaluations
			(symbol, evaluated_at, short_term_change, medium_term_change, price_vs_sma,
			 volume_ratio, volume_trend, volume_spike, bias, bias_score, bias_known,
			 action, technical_score, signaled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		symbol, at, snap.ShortTermChange, snap.MediumTermChange, snap.PriceVsSMA,
		snap.VolumeRatio, snap.VolumeTrend, boolToUInt8(snap.VolumeSpike),
		biasName, biasScore, boolToUInt8(bias.Known),
		action, technicalScore, boolToUInt8(sig != nil))
	if err != nil {
		return fmt.Errorf("record evaluation: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) Close() error {
	return a.client.Close()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// NoopArchive is wired when the archive backend is disabled.
type NoopArchive struct{}

func NewNoopArchive() drepo.SignalArchive { return NoopArchive{} }

func (NoopArchive) RecordEvaluation(context.Context, string, time.Time, models.TechnicalSnapshot, models.BiasState, *models.Signal) error {
	return nil
}

func (NoopArchive) Close() error { return nil }
