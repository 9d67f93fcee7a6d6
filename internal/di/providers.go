package di

import (
	"context"
	"fmt"
	"time"

	"DiabScreen/internal/domain/repository"
	domsvc "DiabScreen/internal/domain/service"
	"DiabScreen/internal/handler/api"
	"DiabScreen/internal/handler/ws"
	mid "DiabScreen/internal/middleware"
	internalrepo "DiabScreen/internal/repository"
	"DiabScreen/internal/service/ratelimit"
	"DiabScreen/internal/services/artifacts"
	"DiabScreen/internal/services/scoring"
	"DiabScreen/internal/usecase"
	"DiabScreen/pkg/cache"
	pkgch "DiabScreen/pkg/clickhouse"
	"DiabScreen/pkg/config"
	xhttp "DiabScreen/pkg/http"
	"DiabScreen/pkg/http/middleware"
	pkgkafka "DiabScreen/pkg/kafka"
	applogger "DiabScreen/pkg/logger"
	"DiabScreen/pkg/metrics"
	"DiabScreen/pkg/queue"
	"DiabScreen/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// ProvideKafkaProducer creates the shared Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	kc := cfg.Events.Kafka
	if !kc.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(kc.Brokers),
		pkgkafka.WithCompression(kc.Compression),
		pkgkafka.WithDelivery(kc.RequiredAcks, 0),
		pkgkafka.WithBatching(kc.BatchSize, kc.Linger),
		pkgkafka.WithTimeouts(kc.WriteTimeout, kc.WriteTimeout),
		pkgkafka.WithAsync(kc.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the root logger. When the collector is enabled, error
// logs are aggregated and shipped through the Kafka producer.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&cfg.Logging.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	lc := cfg.Logging.Collector
	if !lc.Enabled || producer == nil {
		return l, func() {}, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   lc.Interval,
		CountThreshold: lc.CountThreshold,
		Topic:          lc.Topic,
		Publisher:      producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideCLILogger builds a logger without the collector for one-shot commands.
func ProvideCLILogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logging.Config)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideProvisioner creates the artifact provisioner.
func ProvideProvisioner(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *artifacts.Provisioner {
	ac := cfg.Artifacts
	return artifacts.NewProvisioner(artifacts.Config{
		Dir:           ac.Dir,
		ModelURL:      ac.ModelURL,
		ThresholdURL:  ac.ThresholdURL,
		ModelFile:     ac.ModelFile,
		ThresholdFile: ac.ThresholdFile,
		FetchTimeout:  ac.FetchTimeout,
		S3Region:      ac.S3Region,
		S3Endpoint:    ac.S3Endpoint,
	}, l, m)
}

// ProvideBundle provisions the artifacts and builds the classifier. Any
// failure here is fatal: the service never starts without both artifacts.
func ProvideBundle(cfg *config.Config, p *artifacts.Provisioner, l *applogger.Logger) (*domsvc.Bundle, error) {
	ctx := context.Background()
	b := &domsvc.Bundle{Version: cfg.Model.Version}

	switch cfg.Model.Backend {
	case "remote":
		loaded, err := p.ProvisionThreshold(ctx)
		if err != nil {
			return nil, err
		}
		b.Model = scoring.NewRemote(cfg.Model.RemoteURL, cfg.Model.Timeout)
		b.Threshold = loaded.Threshold
	default:
		loaded, err := p.Provision(ctx)
		if err != nil {
			return nil, err
		}
		b.Model = scoring.NewForest(loaded.Model)
		b.Threshold = loaded.Threshold
	}
	b.LoadedAt = time.Now().UTC()

	l.Info("screening model ready",
		applogger.String("backend", cfg.Model.Backend),
		applogger.String("version", b.Version),
		applogger.Float64("threshold", b.Threshold),
	)
	return b, nil
}

// ProvideRedisClient connects to Redis when a component needs it, otherwise returns nil.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	needed := (cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis") || cfg.Events.Redis.Enabled
	if !needed {
		return nil, func() {}, nil
	}
	rc := cfg.Redis
	client, err := cache.NewRedisClient(
		cache.WithRedisHost(rc.Host),
		cache.WithRedisPort(rc.Port),
		cache.WithRedisPassword(rc.Password),
		cache.WithRedisDB(rc.DB),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideLimiter builds the request limiter. It returns a nil interface when
// rate limiting is disabled so the middleware is skipped entirely.
func ProvideLimiter(cfg *config.Config, client *redis.Client) (middleware.Allower, func()) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil, func() {}
	}
	switch rl.Backend {
	case "redis":
		counter := cache.NewRedisCounterFromClient(client, cfg.Redis.Prefix)
		return ratelimit.NewFixedWindow(counter, rl.Limit, rl.Window), func() {}
	case "window":
		counter := cache.NewMemoryCounter(cache.WithMemoryCleanup(rl.Window))
		return ratelimit.NewFixedWindow(counter, rl.Limit, rl.Window), func() { _ = counter.Close() }
	default:
		return ratelimit.NewTokenBucket(rl.Burst, rl.PerSec), func() {}
	}
}

// ProvideHub creates the live screening feed, or nil when disabled.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	if !cfg.Events.WebSocket.Enabled {
		return nil
	}
	return ws.NewHub(cfg.Events.WebSocket.Path, l)
}

// ProvideEventStore connects ClickHouse and prepares the events table, or
// returns nil when disabled. The store owns the client.
func ProvideEventStore(cfg *config.Config, l *applogger.Logger) (*internalrepo.CHEventStore, error) {
	cc := cfg.Events.ClickHouse
	if !cc.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cc.Host, cc.Port),
		pkgch.WithDatabase(cc.Database),
		pkgch.WithCredentials(cc.User, cc.Password),
		pkgch.WithHTTP(cc.UseHTTP),
		pkgch.WithAsyncInsert(cc.AsyncInsert, false),
		pkgch.WithTimeouts(cc.DialTimeout, cc.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store, err := internalrepo.NewCHEventStore(client, cc.Table, l)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideSinks collects the enabled event sinks. Only non-nil sinks are added
// so the pipeline never sees a typed nil.
func ProvideSinks(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	store *internalrepo.CHEventStore,
	client *redis.Client,
	hub *ws.Hub,
) []repository.EventSink {
	var sinks []repository.EventSink
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Kafka.Topic, false))
	}
	if store != nil {
		sinks = append(sinks, store)
	}
	if cfg.Events.Redis.Enabled && client != nil {
		q := queue.NewRedisPublisher(client,
			queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"),
			queue.WithMaxLen(cfg.Events.Redis.MaxLen),
		)
		sinks = append(sinks, internalrepo.NewRedisEventQueue(q))
	}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	return sinks
}

// ProvideEventPipeline creates the event dispatcher. Its cleanup closes every sink.
func ProvideEventPipeline(cfg *config.Config, sinks []repository.EventSink, m repository.Metrics, l *applogger.Logger) (*mid.EventPipeline, func()) {
	p := mid.NewEventPipeline(sinks, m, l,
		mid.WithBufferSize(cfg.Events.BufferSize),
		mid.WithMaxAttempts(cfg.Events.MaxAttempts),
		mid.WithDrainTimeout(cfg.Server.ShutdownTimeout),
	)
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	l.Info("event sinks configured", applogger.Strings("sinks", names))
	return p, func() {
		if err := p.Close(); err != nil {
			l.Warn("event sink close error", applogger.Error(err))
		}
	}
}

// ProvideScreener creates the screening use case.
func ProvideScreener(cfg *config.Config, b *domsvc.Bundle, m repository.Metrics, p *mid.EventPipeline, l *applogger.Logger) *usecase.Screener {
	return usecase.NewScreener(b, m, p, l, usecase.WithModelVersion(cfg.Model.Version))
}

// ProvideHandlers registers the API and, when enabled, the live feed.
func ProvideHandlers(l *applogger.Logger, s *usecase.Screener, limiter middleware.Allower, hub *ws.Hub) xhttp.Handler {
	hs := xhttp.Handlers{api.NewScreeningEchoHandler(l, s, limiter)}
	if hub != nil {
		hs = append(hs, hub)
	}
	return hs
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	sc := cfg.Server
	opts := []xhttp.ServerOption{
		xhttp.WithHost(sc.Host),
		xhttp.WithPort(sc.Port),
		xhttp.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout, sc.ShutdownTimeout),
		xhttp.WithCORS(sc.CORS),
		xhttp.WithLogger(l.Named("http")),
		xhttp.WithMetrics("", 0),
	}
	if cfg.Metrics.Enabled {
		opts[len(opts)-1] = xhttp.WithMetrics(cfg.Metrics.Path, cfg.Metrics.SlowThreshold)
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(l *applogger.Logger, srv *xhttp.Server, p *mid.EventPipeline) *server.App {
	return server.New(l, srv, p)
}
