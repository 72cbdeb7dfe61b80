package di

import (
	"context"
	"fmt"
	"time"

	"SmartMoney/internal/domain/repository"
	dsvc "SmartMoney/internal/domain/service"
	"SmartMoney/internal/handler/api"
	internalrepo "SmartMoney/internal/repository"
	rescache "SmartMoney/internal/service/cache"
	"SmartMoney/internal/service/marketdata"
	"SmartMoney/internal/service/progress"
	"SmartMoney/internal/service/ratelimit"
	"SmartMoney/internal/service/universe"
	"SmartMoney/internal/services/scoring"
	"SmartMoney/internal/usecase"
	pkgcache "SmartMoney/pkg/cache"
	pkgch "SmartMoney/pkg/clickhouse"
	"SmartMoney/pkg/config"
	xhttp "SmartMoney/pkg/http"
	pkgkafka "SmartMoney/pkg/kafka"
	applogger "SmartMoney/pkg/logger"
	"SmartMoney/pkg/metrics"
	"SmartMoney/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideClickHouseClient creates a ClickHouse client when bars are read from
// ClickHouse or the latest scores are kept there; otherwise it returns nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.MarketData.Provider != "clickhouse" && !cfg.ClickHouse.SnapshotScores {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	schema := internalrepo.CandleSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)
	if cfg.ClickHouse.SnapshotScores {
		schema = append(schema, internalrepo.ScoreSchema(cfg.ClickHouse.Database, cfg.ClickHouse.ScoreTable)...)
	}
	if err := client.InitSchema(ctx, schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideMarketData selects the bar source named by market_data.provider.
func ProvideMarketData(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.MarketData, error) {
	md := cfg.MarketData
	switch md.Provider {
	case "yahoo":
		return marketdata.NewYahoo(l,
			marketdata.WithBaseURL(md.BaseURL),
			marketdata.WithRequestTimeout(md.RequestTimeout),
			marketdata.WithRateLimit(md.RequestsPerSec, md.Burst),
			marketdata.WithWorkers(md.Workers),
		), nil
	case "financego":
		loc, err := time.LoadLocation(md.Timezone)
		if err != nil {
			return nil, fmt.Errorf("market_data.timezone: %w", err)
		}
		return marketdata.NewFinanceGo(l, md.RequestsPerSec, md.Burst, md.Workers, loc), nil
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse provider selected without a client")
		}
		return internalrepo.NewCHCandleStore(ch, cfg.ClickHouse.Table, l), nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q", md.Provider)
	}
}

// ProvideCacheStore returns an in-process cache, layered over Redis when
// redis is enabled.
func ProvideCacheStore(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(256)), nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(256),
		pkgcache.WithLayeredMemoryTTL(cfg.Screener.CacheTTL),
	), nil
}

// ProvideResultCache keys finished runs on top of the cache store.
func ProvideResultCache(cfg *config.Config, store pkgcache.Service) repository.ResultCache {
	opts := []rescache.Option{rescache.WithTTL(cfg.Screener.CacheTTL)}
	if cfg.Screener.RunTimeout > 0 {
		opts = append(opts, rescache.WithLockTTL(cfg.Screener.RunTimeout+time.Minute))
	}
	return rescache.NewResultCache(store, opts...)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is off.
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
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher fans finished runs out to Kafka and the ClickHouse score
// snapshot, whichever are configured.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer, ch *pkgch.Client, l *applogger.Logger) repository.ResultPublisher {
	var pubs internalrepo.MultiPublisher
	if producer != nil {
		pubs = append(pubs, internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic, cfg.Kafka.SummaryTopic))
	}
	if ch != nil && cfg.ClickHouse.SnapshotScores {
		pubs = append(pubs, internalrepo.NewCHScoreStore(ch, cfg.ClickHouse.ScoreTable, l))
	}
	if len(pubs) == 0 {
		return nil
	}
	return pubs
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

func ProvideProgressHub() *progress.Hub {
	return progress.NewHub()
}

func ProvideScorer() dsvc.TickerScorer {
	return scoring.NewScorer()
}

func ProvideScreener(cfg *config.Config, data repository.MarketData, scorer dsvc.TickerScorer, m repository.Metrics, l *applogger.Logger) *usecase.Screener {
	return usecase.NewScreener(data, scorer, l,
		usecase.WithBenchmark(cfg.Screener.Benchmark),
		usecase.WithBatchSize(cfg.Screener.BatchSize),
		usecase.WithScreenerMetrics(m),
	)
}

// ProvideScreeningService resolves the default universe and builds the
// command service.
func ProvideScreeningService(
	cfg *config.Config,
	screener *usecase.Screener,
	resultCache repository.ResultCache,
	publisher repository.ResultPublisher,
	hub *progress.Hub,
	m repository.Metrics,
	l *applogger.Logger,
) (*usecase.ScreeningService, error) {
	tickers, err := universe.Resolve(cfg.Screener.Tickers, cfg.Screener.UniverseFile)
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	l.Info("universe loaded", applogger.Int("tickers", len(tickers)), applogger.String("source", cfg.Screener.UniverseFile))
	return usecase.NewScreeningService(screener, resultCache, publisher, hub, m, l, usecase.ScreeningDefaults{
		Universe:   tickers,
		Period:     cfg.Screener.Period,
		Interval:   cfg.Screener.Interval,
		BatchSize:  cfg.Screener.BatchSize,
		RunTimeout: cfg.Screener.RunTimeout,
	}), nil
}

func ProvideScreenerHandler(cfg *config.Config, l *applogger.Logger, svc *usecase.ScreeningService, hub *progress.Hub) *api.ScreenerHandler {
	return api.NewScreenerHandler(l, svc, hub, ratelimit.New(), api.RunLimit{
		Capacity:     cfg.Server.RunRateLimit.Capacity,
		RefillPerSec: cfg.Server.RunRateLimit.RefillPerSec,
	})
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ScreenerHandler) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path, cfg.Metrics.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.ScreeningService,
	httpServer *xhttp.Server,
	publisher repository.ResultPublisher,
	store pkgcache.Service,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, svc, httpServer, publisher, store, ch)
}
