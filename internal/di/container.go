package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"setdb-init/internal/bootstrap"
	"setdb-init/internal/bootstrap/adapter/persistence"
	"setdb-init/internal/bootstrap/adapter/persistence/mongodb"
	"setdb-init/internal/bootstrap/config"
	"setdb-init/internal/bootstrap/domain/repository"
	"setdb-init/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Container owns the external connections and the modules built on them
type Container struct {
	mu sync.RWMutex
	// Module instances
	BootstrapModule *bootstrap.BootstrapModule
	// Connections
	MongoClient *mongo.Client
	RedisClient *redis.Client
	// RunLock is set when Redis is configured
	RunLock *persistence.RedisRunLock
	// Configuration
	Config *config.Config
	// Logger
	Logger logger.Logger
}

// NewContainer creates a new DI container
func NewContainer(cfg *config.Config, log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{
		Config: cfg,
		Logger: log,
	}
}

// Initialize opens every connection and builds the bootstrap module
func (c *Container) Initialize(ctx context.Context) error {
	if err := c.InitializeDatabase(ctx); err != nil {
		return err
	}
	if err := c.InitializeRedis(ctx); err != nil {
		return err
	}
	return c.InitializeBootstrap()
}

// InitializeDatabase opens the admin client. The server is first contacted by
// the connect step of a run.
func (c *Container) InitializeDatabase(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoClient != nil {
		return nil
	}

	client, err := mongodb.Connect(ctx, mongodb.ClientConfig{
		URI:            c.Config.MongoDBURI,
		ConnectTimeout: c.Config.ConnectTimeout,
		DriverLog:      c.Config.DriverLog,
	}, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	c.MongoClient = client
	return nil
}

// InitializeRedis connects the run lock backend when one is configured
func (c *Container) InitializeRedis(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Config.Lock.Enabled() || c.RedisClient != nil {
		return nil
	}

	client := config.NewRedisClient(c.Config.Lock)
	lock := persistence.NewRedisRunLock(client, c.Logger)
	if err := lock.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", c.Config.Lock.RedisAddr, err)
	}

	c.Logger.WithComponent("di").Infof("Run lock enabled on Redis %s", c.Config.Lock.RedisAddr)
	c.RedisClient = client
	c.RunLock = lock
	return nil
}

// InitializeBootstrap builds the bootstrap module on the open connections
func (c *Container) InitializeBootstrap() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoClient == nil {
		return fmt.Errorf("MongoDB must be initialized before the bootstrap module")
	}

	var lock repository.RunLock
	if c.RunLock != nil {
		lock = c.RunLock
	}
	c.BootstrapModule = bootstrap.NewBootstrapModule(c.MongoClient, lock, c.Config, c, c.Logger)
	return nil
}

// GetBootstrapModule returns the bootstrap module instance
func (c *Container) GetBootstrapModule() *bootstrap.BootstrapModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.BootstrapModule
}

// HealthCheck pings every open connection concurrently. The returned map holds
// "ok" or the failure message per service.
func (c *Container) HealthCheck(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	mongoClient, runLock := c.MongoClient, c.RunLock
	c.mu.RUnlock()

	var (
		mu       sync.Mutex
		services = make(map[string]string)
		g        errgroup.Group
	)
	record := func(name string, err error) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			services[name] = err.Error()
			return fmt.Errorf("%s health check failed: %w", name, err)
		}
		services[name] = "ok"
		return nil
	}

	if mongoClient != nil {
		g.Go(func() error {
			return record("mongodb", mongoClient.Ping(ctx, readpref.Primary()))
		})
	}
	if runLock != nil {
		g.Go(func() error {
			return record("redis", runLock.Ping(ctx))
		})
	}

	err := g.Wait()
	return services, err
}

// Close disconnects every connection
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis client: %w", err))
		}
		c.RedisClient = nil
		c.RunLock = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB client: %w", err))
		}
		c.MongoClient = nil
	}
	c.BootstrapModule = nil

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
