package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type memStore struct {
	mu         sync.Mutex
	seq        int
	proposals  map[string]*models.Proposal
	decisions  map[string]*models.Decision
	executions map[string]*models.Execution
}

func newMemStore() *memStore {
	return &memStore{
		proposals:  make(map[string]*models.Proposal),
		decisions:  make(map[string]*models.Decision),
		executions: make(map[string]*models.Execution),
	}
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

func (m *memStore) InsertProposal(_ context.Context, p *models.Proposal) (*models.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.ID = m.nextID()
	cp.CreatedAt = time.Now()
	m.proposals[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) GetProposal(_ context.Context, id string) (*models.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: proposal %s", models.ErrNotFound, id)
	}
	out := *p
	return &out, nil
}

func (m *memStore) ListProposals(_ context.Context, userID string, status models.ProposalStatus, limit int) ([]*models.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Proposal
	for _, p := range m.proposals {
		if userID != "" && p.UserID != userID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) UpdateProposalStatus(_ context.Context, id string, status models.ProposalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return fmt.Errorf("%w: proposal %s", models.ErrNotFound, id)
	}
	p.Status = status
	return nil
}

func (m *memStore) ExpirePending(_ context.Context, now time.Time) ([]*models.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Proposal
	for _, p := range m.proposals {
		if p.Status == models.ProposalPending && !p.ExpiresAt.After(now) {
			p.Status = models.ProposalExpired
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) InsertDecision(_ context.Context, d *models.Decision) (*models.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	cp.ID = m.nextID()
	cp.CreatedAt = time.Now()
	m.decisions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) UpdateDecisionExecuted(_ context.Context, id string, executed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decisions[id]
	if !ok {
		return fmt.Errorf("%w: decision %s", models.ErrNotFound, id)
	}
	d.Executed = executed
	return nil
}

func (m *memStore) ListDecisions(_ context.Context, userID string, limit int) ([]*models.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Decision
	for _, d := range m.decisions {
		if userID != "" && d.UserID != userID {
			continue
		}
		cp := *d
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) InsertExecution(_ context.Context, e *models.Execution) (*models.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.ID = m.nextID()
	cp.CreatedAt = time.Now()
	m.executions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) UpdateExecution(_ context.Context, e *models.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.executions[e.ID]; !ok {
		return fmt.Errorf("%w: execution %s", models.ErrNotFound, e.ID)
	}
	cp := *e
	m.executions[e.ID] = &cp
	return nil
}

func (m *memStore) ListExecutions(_ context.Context, userID string, limit int) ([]*models.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Execution
	for _, e := range m.executions {
		if userID != "" && e.UserID != userID {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) Health(context.Context) error { return nil }
func (m *memStore) Close() error                 { return nil }

type fakeBroker struct {
	err    error
	orders []string
}

func (b *fakeBroker) SubmitOrder(_ context.Context, symbol string, quantity int, side models.TradeAction) (*models.OrderConfirmation, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.orders = append(b.orders, symbol)
	return &models.OrderConfirmation{
		OrderID:     fmt.Sprintf("order-%d", len(b.orders)),
		Symbol:      symbol,
		Quantity:    quantity,
		Side:        side,
		FilledPrice: 100.0,
		SubmittedAt: time.Now(),
	}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Broadcast(event models.Event) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) byType(t string) []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string)           {}
func (nopMetrics) RecordProposal(string)                 {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordAnalysisLatency(string, float64) {}
func (nopMetrics) RecordBiasScore(string, float64)       {}

type fakeMarket struct {
	bars    map[string][]models.Bar
	err     error
	lastEnd time.Time
}

func (f *fakeMarket) GetBars(_ context.Context, symbol string, _ drepo.Timeframe, _, end time.Time) ([]models.Bar, error) {
	f.lastEnd = end
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[symbol], nil
}

type recordingArchive struct {
	mu      sync.Mutex
	records int
	signals int
}

func (a *recordingArchive) RecordEvaluation(_ context.Context, _ string, _ time.Time, _ models.TechnicalSnapshot, _ models.BiasState, sig *models.Signal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records++
	if sig != nil {
		a.signals++
	}
	return nil
}

func (a *recordingArchive) Close() error { return nil }

type fakeNews struct {
	articles []models.NewsArticle
}

func (f *fakeNews) GetArticles(context.Context, string, int) ([]models.NewsArticle, error) {
	return f.articles, nil
}

type fixedScorer struct {
	score float64
}

func (f *fixedScorer) Enabled() bool { return true }

func (f *fixedScorer) Score(_ context.Context, texts []string) ([]models.SentimentResult, error) {
	out := make([]models.SentimentResult, len(texts))
	for i := range out {
		out[i] = models.SentimentResult{Confidence: 0.9, NormalizedScore: f.score}
	}
	return out, nil
}

var errBrokerDown = errors.New("brokerage unavailable")
