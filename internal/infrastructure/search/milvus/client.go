package milvus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// MilvusClientFactory defines the signature for creating a Milvus client
type MilvusClientFactory func(ctx context.Context, conf client.Config) (client.Client, error)

// milvusNewClient is a variable to allow mocking in tests
var milvusNewClient MilvusClientFactory = client.NewClient

var (
	ErrConnectionFailed = errors.New(errors.CodeSearchError, "milvus: connection failed")
	ErrUnhealthy        = errors.New(errors.ErrCodeServiceUnavailable, "milvus: service unhealthy")
)

// ClientConfig holds the configuration for the Milvus client.
type ClientConfig struct {
	Address             string
	Username            string
	Password            string
	DBName              string
	ConnectTimeout      time.Duration
	HealthCheckInterval time.Duration
	KeepAliveTime       time.Duration
	KeepAliveTimeout    time.Duration
}

// ClientConfigFrom maps the vector.milvus section onto a ClientConfig.
func ClientConfigFrom(cfg config.MilvusConfig) ClientConfig {
	return ClientConfig{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	}
}

// Client manages the Milvus client connection.
type Client struct {
	milvusClient client.Client
	config       ClientConfig
	logger       logging.Logger
	healthy      atomic.Bool
	cancel       context.CancelFunc
	closeOnce    sync.Once
	mu           sync.RWMutex
}

// NewClient dials Milvus, verifies it is healthy and starts a background
// health loop that reconnects after repeated failures.
func NewClient(cfg ClientConfig, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if cfg.DBName == "" {
		cfg.DBName = "default"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	if cfg.KeepAliveTime == 0 {
		cfg.KeepAliveTime = 60 * time.Second
	}
	if cfg.KeepAliveTimeout == 0 {
		cfg.KeepAliveTimeout = 20 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	mc, err := connect(ctx, cfg)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, errors.CodeSearchError, "milvus: failed to create client")
	}

	c := &Client{
		milvusClient: mc,
		config:       cfg,
		logger:       logger.Named("milvus"),
		cancel:       cancel,
	}

	if err := c.CheckHealth(ctx); err != nil {
		c.Close()
		return nil, ErrConnectionFailed
	}

	go c.startHealthCheck(ctx)

	c.logger.Info("Milvus client connected", logging.String("address", cfg.Address))
	return c, nil
}

func connect(ctx context.Context, cfg ClientConfig) (client.Client, error) {
	milvusCfg := client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                cfg.KeepAliveTime,
				Timeout:             cfg.KeepAliveTimeout,
				PermitWithoutStream: true,
			}),
		},
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	return milvusNewClient(connectCtx, milvusCfg)
}

// CheckHealth checks the connection to Milvus.
func (c *Client) CheckHealth(ctx context.Context) error {
	c.mu.RLock()
	mc := c.milvusClient
	c.mu.RUnlock()

	if mc == nil {
		return ErrConnectionFailed
	}

	state, err := mc.CheckHealth(ctx)
	if err != nil || (state != nil && !state.IsHealthy && len(state.Reasons) > 0) {
		c.healthy.Store(false)
		if err == nil {
			c.logger.Warn("Milvus reports unhealthy", logging.Strings("reasons", state.Reasons))
		} else {
			c.logger.Warn("Milvus health check failed", logging.Err(err))
		}
		return ErrUnhealthy
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy returns the result of the last health check.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// GetMilvusClient returns the underlying Milvus client.
func (c *Client) GetMilvusClient() client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.milvusClient
}

// Close stops the health loop and closes the connection. It is safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.milvusClient != nil {
			err = c.milvusClient.Close()
		}
		c.logger.Info("Milvus client closed")
	})
	return err
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	failures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.CheckHealth(ctx)
			curr := c.healthy.Load()

			switch {
			case prev && !curr:
				failures++
				c.logger.Error("Milvus became unhealthy", logging.Err(err))
			case !prev && curr:
				failures = 0
				c.logger.Info("Milvus recovered")
			case !curr:
				failures++
			default:
				failures = 0
			}

			if failures >= 3 {
				c.logger.Warn("Milvus consecutive failures, attempting reconnect")
				if err := c.reconnect(ctx); err != nil {
					c.logger.Error("Milvus reconnect failed", logging.Err(err))
				} else {
					failures = 0
				}
			}
		}
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.milvusClient != nil {
		c.milvusClient.Close()
	}

	mc, err := connect(ctx, c.config)
	if err != nil {
		return err
	}

	c.milvusClient = mc
	c.logger.Warn("Milvus client reconnected")
	return nil
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg ClientConfig) error {
	if cfg.Address == "" {
		return errors.New(errors.ErrCodeValidation, "milvus: address is required")
	}
	if cfg.ConnectTimeout < 0 {
		return errors.New(errors.ErrCodeValidation, "milvus: connect timeout must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
