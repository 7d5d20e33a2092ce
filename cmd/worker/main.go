// Command worker consumes review requests from Kafka, runs them through the
// review pipeline and serves the operational endpoints /healthz, /readyz and
// /metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/turtacn/FairReview-Intelligence/internal/application/pipeline"
	"github.com/turtacn/FairReview-Intelligence/internal/application/worker"
	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	apihttp "github.com/turtacn/FairReview-Intelligence/internal/interfaces/http"
	"github.com/turtacn/FairReview-Intelligence/internal/interfaces/http/handlers"
)

const defaultWorkerConfigPath = "configs/config.yaml"

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	ensureTopics := flag.Bool("ensure-topics", true, "create the review topics at startup")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, *configPath, *ensureTopics, logger); err != nil {
		logger.Error("worker stopped with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, ensureTopics bool, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:       cfg.Metrics.Namespace,
		EnableGoMetrics: cfg.Metrics.EnableGoMetrics,
	}, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	metrics := prometheus.NewReviewMetrics(collector)

	if configPath != "" {
		onError := func(err error) { logger.Warn("config reload rejected", logging.Err(err)) }
		if err := config.Watch(configPath, worker.LogLevelReloader(logger, cfg.Log.Level), onError); err != nil {
			logger.Warn("config hot reload disabled", logging.Err(err))
		}
	}

	// The ops server starts first so liveness answers while indexes build.
	var checks atomic.Pointer[[]handlers.HealthChecker]
	router := apihttp.NewRouter(apihttp.RouterConfig{
		Mode:    cfg.Server.Mode,
		Version: version,
		Ready:   func() bool { return checks.Load() != nil },
		Checkers: func() []handlers.HealthChecker {
			if c := checks.Load(); c != nil {
				return *c
			}
			return nil
		},
		Logger:           logger,
		MetricsCollector: collector,
	})
	srv := apihttp.NewServer(cfg.Server.Port, router, logger)
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Start() }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("ops server shutdown error", logging.Err(err))
		}
	}()

	if ensureTopics {
		createTopics(ctx, cfg, logger)
	}

	p := pipeline.New(cfg, logger, metrics)
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("pipeline close reported an error", logging.Err(err))
		}
	}()
	if err := p.Build(ctx); err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	list := make([]handlers.HealthChecker, 0)
	for _, c := range p.Checks() {
		list = append(list, c)
	}
	checks.Store(&list)

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topics:  []string{cfg.Kafka.RequestTopic},
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      cfg.Worker.MaxRetries,
			RetryBackoff:    cfg.Worker.RetryBackoff,
			MaxRetryBackoff: 30 * time.Second,
			DeadLetterTopic: cfg.Worker.DeadLetterTopic,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	handler := worker.NewHandler(p, cfg.Worker.HandlerTimeout, logger, metrics)
	consumer.Subscribe(cfg.Kafka.RequestTopic, handler.Handle)
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	logger.Info("worker started",
		logging.String("version", version),
		logging.String("topic", cfg.Kafka.RequestTopic),
		logging.String("group", cfg.Kafka.GroupID),
		logging.Int("port", cfg.Server.Port))

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-srvErr:
		runErr = err
	}

	// Close waits for the in-flight review before the pipeline is released.
	if err := consumer.Close(); err != nil {
		logger.Error("kafka consumer close error", logging.Err(err))
	}
	logger.Info("worker stopped")
	return runErr
}

func createTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Warn("topic manager unavailable, topics not ensured", logging.Err(err))
		return
	}
	defer tm.Close()

	topics := kafka.DefaultTopics()
	for i := range topics {
		switch topics[i].Name {
		case kafka.TopicReviewRequested:
			topics[i].Name = cfg.Kafka.RequestTopic
		case kafka.TopicReviewCompleted:
			topics[i].Name = cfg.Kafka.CompletedTopic
		case kafka.TopicReviewDeadLetter:
			topics[i].Name = cfg.Worker.DeadLetterTopic
		}
	}
	if err := tm.EnsureTopics(ctx, topics); err != nil {
		logger.Warn("ensure topics failed", logging.Err(err))
	}
}

//Personal.AI order the ending
