package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
)

func newProposalService(t *testing.T, store *memStore, broker *fakeBroker, notifier *recordingNotifier) *ProposalService {
	t.Helper()
	return NewProposalService(store, broker, notifier, nopMetrics{}, testLogger(t),
		10, time.Hour, []string{"user-1"})
}

func testSignal() *models.Signal {
	return &models.Signal{
		Symbol:         "AAPL",
		Action:         models.ActionBuy,
		Price:          150.0,
		Reason:         "[BUY] News bias: moderate BULLISH (+0.45) from 5 articles | Technical: price rising 3.0% recently | Technical score: +0.129",
		SentimentScore: 0.45,
		SentimentBias:  models.BiasBullish,
		TechnicalScore: 0.129,
	}
}

func TestCreateFromSignal(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := newProposalService(t, store, &fakeBroker{}, notifier)

	created, err := svc.CreateFromSignal(context.Background(), testSignal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(created))
	}

	p := created[0]
	if p.Status != models.ProposalPending {
		t.Fatalf("new proposal must be PENDING, got %s", p.Status)
	}
	if p.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", p.Quantity)
	}
	if p.UserID != "user-1" {
		t.Fatalf("expected proposal scoped to user-1, got %s", p.UserID)
	}
	if !p.ExpiresAt.After(time.Now()) {
		t.Fatal("expiry must be in the future")
	}
	if got := notifier.byType(models.EventProposalCreated); len(got) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(got))
	}
}

func TestTargetUserRegistry(t *testing.T) {
	store := newMemStore()
	svc := newProposalService(t, store, &fakeBroker{}, &recordingNotifier{})

	svc.AddTargetUser("user-2")
	svc.AddTargetUser("user-2")
	if got := svc.TargetUsers(); len(got) != 2 || got[0] != "user-1" || got[1] != "user-2" {
		t.Fatalf("expected [user-1 user-2], got %v", got)
	}

	created, err := svc.CreateFromSignal(context.Background(), testSignal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected a proposal per target user, got %d", len(created))
	}

	svc.RemoveTargetUser("user-1")
	svc.RemoveTargetUser("user-2")
	created, err = svc.CreateFromSignal(context.Background(), testSignal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("no target users should mean no proposals, got %d", len(created))
	}
}

func TestCreateFromSignalSkipsPendingDuplicate(t *testing.T) {
	store := newMemStore()
	svc := newProposalService(t, store, &fakeBroker{}, &recordingNotifier{})

	sig := testSignal()
	first, err := svc.CreateFromSignal(context.Background(), sig)
	if err != nil || len(first) != 1 {
		t.Fatalf("first create failed: %v (%d)", err, len(first))
	}
	second, err := svc.CreateFromSignal(context.Background(), sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("duplicate PENDING proposal should be skipped, got %d", len(second))
	}

	// A SELL for the same symbol is not a duplicate.
	sell := testSignal()
	sell.Action = models.ActionSell
	third, err := svc.CreateFromSignal(context.Background(), sell)
	if err != nil || len(third) != 1 {
		t.Fatalf("different action should create: %v (%d)", err, len(third))
	}
}

func TestDecideApproveFillsOrder(t *testing.T) {
	store := newMemStore()
	broker := &fakeBroker{}
	notifier := &recordingNotifier{}
	svc := newProposalService(t, store, broker, notifier)

	created, _ := svc.CreateFromSignal(context.Background(), testSignal())
	res, err := svc.Decide(context.Background(), &models.DecisionRequest{
		ProposalID: created[0].ID,
		Decision:   "APPROVED",
		UserID:     "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Proposal.Status != models.ProposalApproved {
		t.Fatalf("expected APPROVED, got %s", res.Proposal.Status)
	}
	if !res.Decision.Executed {
		t.Fatal("filled order should mark the decision executed")
	}
	if res.Execution == nil || res.Execution.Status != models.ExecutionFilled {
		t.Fatalf("expected FILLED execution, got %+v", res.Execution)
	}
	if res.Execution.OrderID == "" {
		t.Fatal("filled execution must carry the broker order id")
	}
	if len(broker.orders) != 1 {
		t.Fatalf("expected 1 order submitted, got %d", len(broker.orders))
	}
	if got := notifier.byType(models.EventExecutionUpdated); len(got) != 1 {
		t.Fatalf("expected 1 execution event, got %d", len(got))
	}
}

func TestDecideApproveBrokerFailure(t *testing.T) {
	store := newMemStore()
	broker := &fakeBroker{err: errBrokerDown}
	svc := newProposalService(t, store, broker, &recordingNotifier{})

	created, _ := svc.CreateFromSignal(context.Background(), testSignal())
	res, err := svc.Decide(context.Background(), &models.DecisionRequest{
		ProposalID: created[0].ID,
		Decision:   "APPROVED",
		UserID:     "user-1",
	})
	if err != nil {
		t.Fatalf("a failed order is not a failed decision: %v", err)
	}

	if res.Proposal.Status != models.ProposalApproved {
		t.Fatalf("proposal should stay APPROVED after broker failure, got %s", res.Proposal.Status)
	}
	if res.Decision.Executed {
		t.Fatal("failed order must leave the decision unexecuted")
	}
	if res.Execution == nil || res.Execution.Status != models.ExecutionRejected {
		t.Fatalf("expected REJECTED execution, got %+v", res.Execution)
	}
	if res.Execution.ErrorMessage == "" {
		t.Fatal("rejected execution must carry the failure message")
	}

	stored, _ := store.ListExecutions(context.Background(), "user-1", 10)
	if len(stored) != 1 || stored[0].Status != models.ExecutionRejected {
		t.Fatalf("rejected status should be persisted, got %+v", stored)
	}
}

func TestDecideReject(t *testing.T) {
	store := newMemStore()
	broker := &fakeBroker{}
	svc := newProposalService(t, store, broker, &recordingNotifier{})

	created, _ := svc.CreateFromSignal(context.Background(), testSignal())
	res, err := svc.Decide(context.Background(), &models.DecisionRequest{
		ProposalID: created[0].ID,
		Decision:   "REJECTED",
		Notes:      "too risky",
		UserID:     "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Proposal.Status != models.ProposalRejected {
		t.Fatalf("expected REJECTED, got %s", res.Proposal.Status)
	}
	if res.Execution != nil {
		t.Fatal("rejection must not create an execution")
	}
	if len(broker.orders) != 0 {
		t.Fatal("rejection must not submit an order")
	}
}

func TestDecideUnknownProposal(t *testing.T) {
	svc := newProposalService(t, newMemStore(), &fakeBroker{}, &recordingNotifier{})

	_, err := svc.Decide(context.Background(), &models.DecisionRequest{
		ProposalID: "missing",
		Decision:   "APPROVED",
		UserID:     "user-1",
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecideTerminalProposal(t *testing.T) {
	store := newMemStore()
	svc := newProposalService(t, store, &fakeBroker{}, &recordingNotifier{})

	created, _ := svc.CreateFromSignal(context.Background(), testSignal())
	req := &models.DecisionRequest{ProposalID: created[0].ID, Decision: "REJECTED", UserID: "user-1"}
	if _, err := svc.Decide(context.Background(), req); err != nil {
		t.Fatalf("first decision failed: %v", err)
	}

	// A second decision against the same proposal must be refused.
	req.Decision = "APPROVED"
	_, err := svc.Decide(context.Background(), req)
	if !errors.Is(err, models.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func TestExpireSweep(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := newProposalService(t, store, &fakeBroker{}, notifier)

	created, _ := svc.CreateFromSignal(context.Background(), testSignal())

	// Not yet due.
	n, err := svc.ExpireSweep(context.Background(), time.Now())
	if err != nil || n != 0 {
		t.Fatalf("nothing should expire yet: %v (%d)", err, n)
	}

	// Past the expiry horizon.
	n, err = svc.ExpireSweep(context.Background(), time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	p, _ := store.GetProposal(context.Background(), created[0].ID)
	if p.Status != models.ProposalExpired {
		t.Fatalf("expected EXPIRED, got %s", p.Status)
	}
	if got := notifier.byType("trade_expirations"); len(got) != 1 {
		t.Fatalf("expected 1 expired event on trade_expirations, got %d", len(got))
	}

	// Expired proposals cannot be decided.
	_, err = svc.Decide(context.Background(), &models.DecisionRequest{
		ProposalID: created[0].ID, Decision: "APPROVED", UserID: "user-1",
	})
	if !errors.Is(err, models.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState for expired proposal, got %v", err)
	}
}
