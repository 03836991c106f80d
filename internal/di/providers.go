package di

import (
	"context"
	"fmt"
	"io"
	"time"

	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	domsvc "github.com/JackFeatherston/Osprey/internal/domain/service"
	"github.com/JackFeatherston/Osprey/internal/engine"
	"github.com/JackFeatherston/Osprey/internal/handler/api"
	"github.com/JackFeatherston/Osprey/internal/handler/ws"
	internalrepo "github.com/JackFeatherston/Osprey/internal/repository"
	"github.com/JackFeatherston/Osprey/internal/scheduler"
	"github.com/JackFeatherston/Osprey/internal/service/broker"
	"github.com/JackFeatherston/Osprey/internal/service/marketdata"
	"github.com/JackFeatherston/Osprey/internal/service/news"
	"github.com/JackFeatherston/Osprey/internal/service/sentiment"
	"github.com/JackFeatherston/Osprey/internal/usecase"
	pcache "github.com/JackFeatherston/Osprey/pkg/cache"
	pkgch "github.com/JackFeatherston/Osprey/pkg/clickhouse"
	"github.com/JackFeatherston/Osprey/pkg/config"
	xhttp "github.com/JackFeatherston/Osprey/pkg/http"
	pkgkafka "github.com/JackFeatherston/Osprey/pkg/kafka"
	applogger "github.com/JackFeatherston/Osprey/pkg/logger"
	"github.com/JackFeatherston/Osprey/pkg/metrics"
	"github.com/JackFeatherston/Osprey/pkg/postgres"
	"github.com/JackFeatherston/Osprey/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvidePostgresClient creates the proposal store database client.
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, error) {
	client, err := postgres.NewClient(
		postgres.WithHost(cfg.Postgres.Host),
		postgres.WithPort(cfg.Postgres.Port),
		postgres.WithDatabase(cfg.Postgres.Database),
		postgres.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		postgres.WithSSLMode(cfg.Postgres.SSLMode),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// ProvideProposalStore creates the proposal store and initializes its
// schema.
func ProvideProposalStore(client *postgres.Client) (drepo.ProposalStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	store, err := internalrepo.NewProposalStore(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("proposal store: %w", err)
	}
	return store, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// evaluation archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSignalArchive creates the evaluation archive backed by
// ClickHouse, or a no-op archive when it is disabled.
func ProvideSignalArchive(client *pkgch.Client) (drepo.SignalArchive, error) {
	if client == nil {
		return internalrepo.NewNoopArchive(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	archive, err := internalrepo.NewClickHouseArchive(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("signal archive: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer for the audit stream,
// or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCache creates the layered news cache backed by Redis, or nil
// when Redis is disabled.
func ProvideCache(cfg *config.Config) (*pcache.LayeredCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	rc, err := pcache.NewRedisCache(
		pcache.WithRedisHost(cfg.Redis.Host),
		pcache.WithRedisPort(cfg.Redis.Port),
		pcache.WithRedisPassword(cfg.Redis.Password),
		pcache.WithRedisDB(cfg.Redis.DB),
		pcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pcache.NewLayeredCache(rc), nil
}

// ProvideNewsProvider creates the headline source, or nil when the
// sentiment gate is disabled and no headlines will be fetched.
func ProvideNewsProvider(cfg *config.Config, cache *pcache.LayeredCache) (drepo.NewsProvider, error) {
	if !cfg.Sentiment.Enabled {
		return nil, nil
	}

	opts := []news.Option{}
	if cfg.NewsAPI.RatePerSecond > 0 {
		opts = append(opts, news.WithRateLimit(cfg.NewsAPI.RatePerSecond, cfg.NewsAPI.RateBurst))
	}
	if cache != nil {
		opts = append(opts, news.WithCache(cache, cfg.NewsAPI.CacheTTL))
	}
	provider, err := news.New(cfg.NewsAPI.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("news provider: %w", err)
	}
	return provider, nil
}

// ProvideSentimentScorer selects the lexicon scorer or the disabled
// stand-in that yields NEUTRAL verdicts.
func ProvideSentimentScorer(cfg *config.Config) domsvc.SentimentScorer {
	if !cfg.Sentiment.Enabled {
		return sentiment.NewDisabled()
	}
	return sentiment.NewVader()
}

// ProvideMarketData creates the bar data source.
func ProvideMarketData(cfg *config.Config) (drepo.MarketData, error) {
	opts := []marketdata.Option{}
	if cfg.Alpaca.DataURL != "" {
		opts = append(opts, marketdata.WithBaseURL(cfg.Alpaca.DataURL))
	}
	if cfg.Alpaca.Feed != "" {
		opts = append(opts, marketdata.WithFeed(cfg.Alpaca.Feed))
	}
	md, err := marketdata.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("market data: %w", err)
	}
	return md, nil
}

// ProvideBroker creates the order submission client.
func ProvideBroker(cfg *config.Config) (drepo.Broker, error) {
	opts := []broker.Option{}
	if cfg.Alpaca.TradingURL != "" {
		opts = append(opts, broker.WithBaseURL(cfg.Alpaca.TradingURL))
	}
	b, err := broker.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}
	return b, nil
}

// ProvideBiasCache creates the per-symbol sentiment bias cache.
func ProvideBiasCache(
	cfg *config.Config,
	newsProvider drepo.NewsProvider,
	scorer domsvc.SentimentScorer,
	m drepo.Metrics,
	log *applogger.Logger,
) *engine.BiasCache {
	return engine.NewBiasCache(engine.BiasCacheConfig{
		RefreshInterval: cfg.Sentiment.RefreshInterval,
		MaxArticles:     cfg.Sentiment.MaxArticles,
		BiasThreshold:   cfg.Sentiment.BiasThreshold,
	}, newsProvider, scorer, m, log)
}

// ProvideAlignment creates the alignment rule.
func ProvideAlignment(cfg *config.Config) *engine.Alignment {
	return engine.NewAlignment(engine.AlignmentConfig{
		AlignedThreshold:   cfg.Engine.AlignedThreshold,
		TechnicalThreshold: cfg.Engine.TechnicalThreshold,
	})
}

// ProvideHub creates the WebSocket fanout hub.
func ProvideHub(log *applogger.Logger) *ws.Hub {
	return ws.NewHub(log)
}

// ProvideNotifier composes the event sinks: WebSocket fanout always,
// the Kafka audit stream when a producer is configured.
func ProvideNotifier(
	cfg *config.Config,
	hub *ws.Hub,
	producer *pkgkafka.Producer,
	log *applogger.Logger,
) drepo.Notifier {
	if producer == nil {
		return hub
	}
	return internalrepo.NewCompositeNotifier(
		hub,
		internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic, log),
	)
}

// ProvideAnalyzer creates the per-symbol evaluation pipeline.
func ProvideAnalyzer(
	cfg *config.Config,
	market drepo.MarketData,
	bias *engine.BiasCache,
	alignment *engine.Alignment,
	archive drepo.SignalArchive,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.Analyzer {
	windows := engine.Windows{
		Short:  cfg.Engine.Windows.Short,
		Medium: cfg.Engine.Windows.Medium,
		SMA:    cfg.Engine.Windows.SMA,
		Volume: cfg.Engine.Windows.Volume,
	}
	return usecase.NewAnalyzer(
		market,
		bias,
		alignment,
		windows,
		cfg.Engine.VolumeMultiplier,
		drepo.NormalizeTimeframe(cfg.Engine.Timeframe),
		archive,
		m,
		log,
	)
}

// ProvideProposalService creates the proposal lifecycle service.
func ProvideProposalService(
	cfg *config.Config,
	store drepo.ProposalStore,
	b drepo.Broker,
	notifier drepo.Notifier,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.ProposalService {
	return usecase.NewProposalService(
		store,
		b,
		notifier,
		m,
		log,
		cfg.Engine.Quantity,
		cfg.Engine.ProposalExpiry,
		cfg.Engine.TargetUsers,
	)
}

// ProvideScheduler creates the cron-driven job runner.
func ProvideScheduler(
	cfg *config.Config,
	analyzer *usecase.Analyzer,
	proposals *usecase.ProposalService,
	bias *engine.BiasCache,
	log *applogger.Logger,
) (*scheduler.Scheduler, error) {
	return scheduler.New(scheduler.Config{
		PollInterval:   cfg.Engine.PollInterval,
		BiasCheck:      cfg.Sentiment.BiasCheck,
		ExpirySweep:    cfg.Engine.ExpirySweep,
		MarketTimezone: cfg.Engine.MarketTimezone,
		Symbols:        cfg.Engine.Symbols,
	}, analyzer, proposals, bias, log)
}

// ProvideHandler creates the REST API handler.
func ProvideHandler(
	cfg *config.Config,
	log *applogger.Logger,
	analyzer *usecase.Analyzer,
	proposals *usecase.ProposalService,
	bias *engine.BiasCache,
) xhttp.Handler {
	return api.NewHandler(log, analyzer, proposals, bias, cfg.Engine.Symbols)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	hub *ws.Hub,
	sched *scheduler.Scheduler,
	proposals *usecase.ProposalService,
	pgClient *postgres.Client,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	cache *pcache.LayeredCache,
) *server.App {
	var closer io.Closer
	if cache != nil {
		closer = cache
	}
	return server.New(cfg, log, handler, hub, sched, proposals, pgClient, chClient, producer, closer)
}
