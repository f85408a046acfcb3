package container

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/dispatcher"
	"github.com/garyjia/content-validation/internal/application/engine"
	"github.com/garyjia/content-validation/internal/config"
	"github.com/garyjia/content-validation/internal/infrastructure/metrics"
	httpServer "github.com/garyjia/content-validation/internal/interfaces/http"
	"github.com/garyjia/content-validation/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	providers *ProviderBundle
	collector *metrics.Collector

	// Application
	dispatcher    dispatcher.Dispatcher
	engine        *engine.Engine
	notifications bool

	// Interfaces
	server *httpServer.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. ValidationConfig, then the content generation provider (and the
// recordings database it may need)
// 2. Event dispatcher with metrics and review notification subscribers
// 3. Validation engine with the validator catalog
// 4. HTTP server (not listening until Server().Start is called)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	vcfg, err := ProvideValidationConfig(c.config.Validation, c.logger)
	if err != nil {
		return fmt.Errorf("failed to load validation config: %w", err)
	}

	providers, err := ProvideProvider(ctx, c.config, vcfg, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}
	c.providers = providers
	c.logger.Info("Provider initialized", zap.String("mode", c.config.Provider.Mode))

	c.dispatcher = dispatcher.NewDispatcher(dispatcher.WithLogger(c.logger))
	c.collector = ProvideMetrics(c.config.Metrics, c.dispatcher)
	c.notifications, err = ProvideReviewNotifications(c.config.Lark, c.dispatcher, c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize review notifications: %w", err)
	}
	c.logger.Info("Dispatcher initialized",
		zap.Bool("metrics", c.collector != nil),
		zap.Bool("review_notifications", c.notifications))

	c.engine, err = ProvideEngine(c.providers.Provider, vcfg, c.dispatcher, c.logger)
	if err != nil {
		c.teardown()
		return err
	}
	c.logger.Info("Engine initialized",
		zap.String("project_id", vcfg.ProjectID),
		zap.Int("validators", len(c.engine.GetRegisteredValidators())))

	serverCfg := httpServer.ServerConfig{
		Host:         c.config.Server.Host,
		Port:         c.config.Server.Port,
		ReadTimeout:  c.config.Server.ReadTimeout,
		WriteTimeout: c.config.Server.WriteTimeout,
	}
	c.server = httpServer.NewServer(serverCfg, c.engine, c.metricsHandler(), c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases whatever Start managed to create
func (c *Container) teardown() []error {
	var errs []error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
		c.dispatcher = nil
	}

	if db := c.database(); db != nil {
		if err := db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
		c.providers.DB = nil
	}

	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Engine returns the validation engine
func (c *Container) Engine() *engine.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine
}

// Server returns the HTTP server
func (c *Container) Server() *httpServer.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// Providers returns the provider bundle
func (c *Container) Providers() *ProviderBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.providers
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.engine != nil && c.engine.IsReady() {
		status.Components["engine"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("validators: %d, active: %d",
				len(c.engine.GetRegisteredValidators()), len(c.engine.ActiveValidations())),
		}
	} else {
		status.Components["engine"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	// The database only exists in record and playback modes
	if db := c.database(); db != nil {
		if err := db.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	return status
}

func (c *Container) database() *database.DB {
	if c.providers == nil {
		return nil
	}
	return c.providers.DB
}

func (c *Container) metricsHandler() http.Handler {
	if c.collector == nil {
		return nil
	}
	return c.collector.Handler()
}
