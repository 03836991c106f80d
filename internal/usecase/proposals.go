package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/pkg/logger"
)

const (
	defaultQuantity  = 10
	defaultExpiry    = time.Hour
	strategyName     = "sentiment_alignment"
	defaultListLimit = 50
)

// ProposalService owns the proposal lifecycle: creation from signals,
// user decisions with the brokerage leg, and expiry sweeps. All state
// lives in the store; the service enforces transition rules.
type ProposalService struct {
	store    drepo.ProposalStore
	broker   drepo.Broker
	notifier drepo.Notifier
	metrics  drepo.Metrics
	log      *logger.Logger

	quantity int
	expiry   time.Duration

	// Users receiving a proposal for every signal. Mutable at runtime
	// through the registry methods.
	usersMu     sync.RWMutex
	targetUsers map[string]struct{}
}

// NewProposalService creates a ProposalService instance.
func NewProposalService(
	store drepo.ProposalStore,
	broker drepo.Broker,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	log *logger.Logger,
	quantity int,
	expiry time.Duration,
	targetUsers []string,
) *ProposalService {
	if quantity <= 0 {
		quantity = defaultQuantity
	}
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	users := make(map[string]struct{}, len(targetUsers))
	for _, u := range targetUsers {
		if u != "" {
			users[u] = struct{}{}
		}
	}
	return &ProposalService{
		store:       store,
		broker:      broker,
		notifier:    notifier,
		metrics:     metrics,
		log:         log,
		quantity:    quantity,
		expiry:      expiry,
		targetUsers: users,
	}
}

// TargetUsers lists the users currently receiving proposals, sorted.
func (s *ProposalService) TargetUsers() []string {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	out := make([]string, 0, len(s.targetUsers))
	for u := range s.targetUsers {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// AddTargetUser registers a user for future proposals. Adding an
// existing user is a no-op.
func (s *ProposalService) AddTargetUser(userID string) {
	if userID == "" {
		return
	}
	s.usersMu.Lock()
	s.targetUsers[userID] = struct{}{}
	s.usersMu.Unlock()
}

// RemoveTargetUser stops new proposals for a user. Existing rows keep
// their history.
func (s *ProposalService) RemoveTargetUser(userID string) {
	s.usersMu.Lock()
	delete(s.targetUsers, userID)
	s.usersMu.Unlock()
}

// CreateFromSignal materializes one PENDING proposal per target user.
// A user who already has a PENDING proposal for the same symbol and
// action is skipped, so repeated poll cycles do not pile up duplicates.
func (s *ProposalService) CreateFromSignal(ctx context.Context, sig *models.Signal) ([]*models.Proposal, error) {
	if sig == nil {
		return nil, fmt.Errorf("signal is nil")
	}
	users := s.TargetUsers()
	if len(users) == 0 {
		return nil, nil
	}

	var created []*models.Proposal
	for _, userID := range users {
		dup, err := s.hasPendingDuplicate(ctx, userID, sig.Symbol, sig.Action)
		if err != nil {
			s.log.Warn("duplicate check failed",
				logger.String("user_id", userID), logger.Error(err))
			continue
		}
		if dup {
			continue
		}

		p, err := s.store.InsertProposal(ctx, &models.Proposal{
			Symbol:       sig.Symbol,
			Action:       sig.Action,
			Quantity:     s.quantity,
			Price:        sig.Price,
			Reason:       sig.Reason,
			StrategyName: strategyName,
			UserID:       userID,
			Status:       models.ProposalPending,
			ExpiresAt:    time.Now().Add(s.expiry),
		})
		if err != nil {
			s.metrics.RecordError("proposal_insert")
			s.log.Error("proposal insert failed",
				logger.String("symbol", sig.Symbol), logger.Error(err))
			continue
		}

		created = append(created, p)
		s.metrics.RecordProposal(string(models.ProposalPending))
		s.notifier.Broadcast(models.Event{Type: models.EventProposalCreated, Payload: p})
	}
	return created, nil
}

func (s *ProposalService) hasPendingDuplicate(ctx context.Context, userID, symbol string, action models.TradeAction) (bool, error) {
	pending, err := s.store.ListProposals(ctx, userID, models.ProposalPending, defaultListLimit)
	if err != nil {
		return false, err
	}
	for _, p := range pending {
		if p.Symbol == symbol && p.Action == action {
			return true, nil
		}
	}
	return false, nil
}

// Decide applies a user verdict to a PENDING proposal. Approval places
// a market order; a brokerage failure is recorded on the execution row
// and does not undo the approval.
func (s *ProposalService) Decide(ctx context.Context, req *models.DecisionRequest) (*models.DecisionResult, error) {
	p, err := s.store.GetProposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProposalPending {
		return nil, fmt.Errorf("%w: proposal %s is %s", models.ErrTerminalState, p.ID, p.Status)
	}

	verdict := models.ProposalStatus(req.Decision)
	if verdict != models.ProposalApproved && verdict != models.ProposalRejected {
		return nil, fmt.Errorf("invalid decision %q", req.Decision)
	}

	if err := s.store.UpdateProposalStatus(ctx, p.ID, verdict); err != nil {
		return nil, err
	}
	p.Status = verdict
	s.metrics.RecordProposal(string(verdict))

	decision, err := s.store.InsertDecision(ctx, &models.Decision{
		ProposalID: p.ID,
		Decision:   verdict,
		Notes:      req.Notes,
		UserID:     req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}

	result := &models.DecisionResult{Proposal: p, Decision: decision}
	s.notifier.Broadcast(models.Event{Type: models.EventProposalDecided, Payload: decision})

	if verdict == models.ProposalApproved {
		result.Execution = s.executeApproved(ctx, p, decision)
	}
	return result, nil
}

// executeApproved submits the order and records the outcome. Never
// returns an error: a failed order leaves a REJECTED execution row with
// the failure message, and the proposal stays APPROVED.
func (s *ProposalService) executeApproved(ctx context.Context, p *models.Proposal, decision *models.Decision) *models.Execution {
	exec, err := s.store.InsertExecution(ctx, &models.Execution{
		ProposalID: p.ID,
		Status:     models.ExecutionPending,
		UserID:     p.UserID,
	})
	if err != nil {
		s.metrics.RecordError("execution_insert")
		s.log.Error("execution insert failed", logger.String("proposal_id", p.ID), logger.Error(err))
		return nil
	}

	conf, err := s.broker.SubmitOrder(ctx, p.Symbol, p.Quantity, p.Action)
	if err != nil {
		exec.Status = models.ExecutionRejected
		exec.ErrorMessage = err.Error()
		s.metrics.RecordError("order_submit")
		s.log.Error("order submission failed",
			logger.String("proposal_id", p.ID),
			logger.String("symbol", p.Symbol),
			logger.Error(err))
	} else {
		exec.Status = models.ExecutionFilled
		exec.OrderID = conf.OrderID
		exec.ExecutedPrice = conf.FilledPrice
		exec.ExecutedAt = time.Now()

		if uerr := s.store.UpdateDecisionExecuted(ctx, decision.ID, true); uerr != nil {
			s.log.Warn("decision executed flag update failed",
				logger.String("decision_id", decision.ID), logger.Error(uerr))
		} else {
			decision.Executed = true
		}
	}

	if uerr := s.store.UpdateExecution(ctx, exec); uerr != nil {
		s.log.Error("execution update failed",
			logger.String("execution_id", exec.ID), logger.Error(uerr))
	}
	s.notifier.Broadcast(models.Event{Type: models.EventExecutionUpdated, Payload: exec})
	return exec
}

// ExpireSweep transitions overdue PENDING proposals to EXPIRED and
// notifies subscribers per proposal.
func (s *ProposalService) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.ExpirePending(ctx, now)
	if err != nil {
		s.metrics.RecordError("expire_sweep")
		return 0, fmt.Errorf("expire sweep: %w", err)
	}
	for _, p := range expired {
		s.metrics.RecordProposal(string(models.ProposalExpired))
		s.notifier.Broadcast(models.Event{Type: models.EventProposalExpired, Payload: p})
	}
	if len(expired) > 0 {
		s.log.Info("expired stale proposals", logger.Int("count", len(expired)))
	}
	return len(expired), nil
}

// GetProposal returns one proposal by id.
func (s *ProposalService) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	return s.store.GetProposal(ctx, id)
}

// ListProposals returns proposals filtered by user and status.
func (s *ProposalService) ListProposals(ctx context.Context, userID string, status models.ProposalStatus, limit int) ([]*models.Proposal, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListProposals(ctx, userID, status, limit)
}

// ListDecisions returns recent decisions for a user.
func (s *ProposalService) ListDecisions(ctx context.Context, userID string, limit int) ([]*models.Decision, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListDecisions(ctx, userID, limit)
}

// ListExecutions returns recent executions for a user.
func (s *ProposalService) ListExecutions(ctx context.Context, userID string, limit int) ([]*models.Execution, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListExecutions(ctx, userID, limit)
}

// Health reports store connectivity.
func (s *ProposalService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}
