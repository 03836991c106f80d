package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"

	"github.com/JackFeatherston/Osprey/internal/engine"
	"github.com/JackFeatherston/Osprey/internal/usecase"
	"github.com/JackFeatherston/Osprey/pkg/logger"
)

// Config tunes the scheduler cadence.
type Config struct {
	PollInterval   time.Duration // signal poll cadence, default 120s
	BiasCheck      time.Duration // staleness check cadence, default 1h
	ExpirySweep    time.Duration // expiry sweep cadence, default 5m
	MarketTimezone string        // exchange timezone, default America/New_York
	Symbols        []string
}

// DefaultConfig returns the stock cadence.
func DefaultConfig() Config {
	return Config{
		PollInterval: 120 * time.Second,
		BiasCheck:    time.Hour,
		ExpirySweep:  5 * time.Minute,
	}
}

// Scheduler drives the periodic work: the market-hours-gated signal
// poll, the hourly bias staleness check and the proposal expiry sweep.
// One cycle at a time per job; cron skips a tick while the previous run
// of the same job is still in flight.
type Scheduler struct {
	cfg       Config
	analyzer  *usecase.Analyzer
	proposals *usecase.ProposalService
	bias      *engine.BiasCache
	hours     *MarketHours
	log       *logger.Logger

	cron   *cron.Cron
	cancel context.CancelFunc
}

// New creates a Scheduler instance.
func New(
	cfg Config,
	analyzer *usecase.Analyzer,
	proposals *usecase.ProposalService,
	bias *engine.BiasCache,
	log *logger.Logger,
) (*Scheduler, error) {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BiasCheck <= 0 {
		cfg.BiasCheck = def.BiasCheck
	}
	if cfg.ExpirySweep <= 0 {
		cfg.ExpirySweep = def.ExpirySweep
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	hours, err := NewMarketHours(cfg.MarketTimezone)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cfg:       cfg,
		analyzer:  analyzer,
		proposals: proposals,
		bias:      bias,
		hours:     hours,
		log:       log,
	}, nil
}

// Start performs the startup bias refresh, then registers and starts
// the periodic jobs. It returns once the jobs are scheduled.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	// The first refresh runs unconditionally so the engine never begins
	// a session on day-old verdicts. Transient news failures retry with
	// exponential backoff capped at one minute per wait.
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 5 * time.Minute
	err := backoff.Retry(func() error {
		return s.bias.Refresh(ctx, s.cfg.Symbols)
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return fmt.Errorf("startup bias refresh: %w", err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(every(s.cfg.PollInterval), func() { s.pollCycle(ctx) }); err != nil {
		return fmt.Errorf("schedule poll: %w", err)
	}
	if _, err := c.AddFunc(every(s.cfg.BiasCheck), func() { s.biasCheck(ctx) }); err != nil {
		return fmt.Errorf("schedule bias check: %w", err)
	}
	if _, err := c.AddFunc(every(s.cfg.ExpirySweep), func() { s.expirySweep(ctx) }); err != nil {
		return fmt.Errorf("schedule expiry sweep: %w", err)
	}

	c.Start()
	s.cron = c
	s.log.Info("scheduler started",
		logger.Int("symbols", len(s.cfg.Symbols)),
		logger.Duration("poll_interval", s.cfg.PollInterval))
	return nil
}

// Stop halts the jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.log.Info("scheduler stopped")
}

// pollCycle evaluates every symbol and materializes proposals from the
// signals. Skipped entirely outside market hours.
func (s *Scheduler) pollCycle(ctx context.Context) {
	now := time.Now()
	if !s.hours.IsOpen(now) {
		s.log.Debug("market closed, skipping poll",
			logger.String("next_open", s.hours.NextOpen(now).Format(time.RFC3339)))
		return
	}

	signals := s.analyzer.EvaluateAll(ctx, s.cfg.Symbols)
	for _, sig := range signals {
		if _, err := s.proposals.CreateFromSignal(ctx, sig); err != nil {
			s.log.Error("proposal creation failed",
				logger.String("symbol", sig.Symbol), logger.Error(err))
		}
	}
	if len(signals) > 0 {
		s.log.Info("poll cycle complete", logger.Int("signals", len(signals)))
	}
}

// biasCheck refreshes the bias cache when it has gone stale.
func (s *Scheduler) biasCheck(ctx context.Context) {
	if !s.bias.IsStale(time.Now()) {
		return
	}
	s.log.Info("bias cache stale, refreshing")
	if err := s.bias.Refresh(ctx, s.cfg.Symbols); err != nil {
		s.log.Error("bias refresh failed", logger.Error(err))
	}
}

// expirySweep transitions overdue proposals.
func (s *Scheduler) expirySweep(ctx context.Context) {
	if _, err := s.proposals.ExpireSweep(ctx, time.Now()); err != nil {
		s.log.Error("expiry sweep failed", logger.Error(err))
	}
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
