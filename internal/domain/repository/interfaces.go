package repository

import (
	"context"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
)

// MarketData fetches historical bars from the data provider. An empty
// slice is a valid answer; implementations must return whatever is
// available rather than silently truncating.
type MarketData interface {
	GetBars(ctx context.Context, symbol string, tf Timeframe, start, end time.Time) ([]models.Bar, error)
}

// NewsProvider returns recent articles for a symbol, newest first.
type NewsProvider interface {
	GetArticles(ctx context.Context, symbol string, maxCount int) ([]models.NewsArticle, error)
}

// ProposalStore persists proposals, decisions and executions. Inserts
// return the created row with its generated id and timestamps.
type ProposalStore interface {
	InsertProposal(ctx context.Context, p *models.Proposal) (*models.Proposal, error)
	GetProposal(ctx context.Context, id string) (*models.Proposal, error)
	ListProposals(ctx context.Context, userID string, status models.ProposalStatus, limit int) ([]*models.Proposal, error)
	UpdateProposalStatus(ctx context.Context, id string, status models.ProposalStatus) error
	ExpirePending(ctx context.Context, now time.Time) ([]*models.Proposal, error)

	InsertDecision(ctx context.Context, d *models.Decision) (*models.Decision, error)
	UpdateDecisionExecuted(ctx context.Context, id string, executed bool) error
	ListDecisions(ctx context.Context, userID string, limit int) ([]*models.Decision, error)

	InsertExecution(ctx context.Context, e *models.Execution) (*models.Execution, error)
	UpdateExecution(ctx context.Context, e *models.Execution) error
	ListExecutions(ctx context.Context, userID string, limit int) ([]*models.Execution, error)

	Health(ctx context.Context) error
	Close() error
}

// Broker submits orders to the brokerage collaborator.
type Broker interface {
	SubmitOrder(ctx context.Context, symbol string, quantity int, side models.TradeAction) (*models.OrderConfirmation, error)
}

// Notifier broadcasts lifecycle events. Fire-and-forget, at-most-once
// per currently connected subscriber; a dead subscriber must not block
// delivery to others.
type Notifier interface {
	Broadcast(event models.Event)
}

// SignalArchive records per-cycle evaluation outcomes for offline
// calibration. A no-op implementation is wired when the archive backend
// is disabled.
type SignalArchive interface {
	RecordEvaluation(ctx context.Context, symbol string, at time.Time, snapshot models.TechnicalSnapshot, bias models.BiasState, sig *models.Signal) error
	Close() error
}

// Metrics abstracts the operational counters the engine records.
type Metrics interface {
	RecordSignal(symbol string, action string)
	RecordProposal(status string)
	RecordError(kind string)
	RecordAnalysisLatency(symbol string, seconds float64)
	RecordBiasScore(symbol string, score float64)
}
