package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/health"
	config "github.com/haxx668/backendmonitoring/src/production/MQT.Config"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	implementation "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Implementation"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container manages dependencies and their lifecycle
type Container struct {
	config *config.Config
	logger *logger.Logger
	db     *sql.DB
	redis  *redis.Client
	mongo  *mongo.Client

	healthChecker   *health.HealthChecker
	databaseManager *health.DatabaseManager

	mu sync.Mutex

	// Cleanup functions, run in reverse order
	cleanupFuncs []func() error
}

// IngestorContainer manages dependencies for the MQTT Ingestor service
type IngestorContainer struct {
	config *config.IngestorConfig
	logger *logger.Logger
}

// NewApiContainer creates a new container for the API service
func NewApiContainer() (*Container, error) {
	cfg, err := config.LoadApiConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load API configuration: %w", err)
	}
	return NewContainer(cfg, logger.NewLogger(&cfg.Logging)), nil
}

// NewContainer wraps an already loaded configuration
func NewContainer(cfg *config.Config, log *logger.Logger) *Container {
	return &Container{
		config: cfg,
		logger: log,
	}
}

// NewIngestorContainer creates a new container for the MQTT Ingestor service
func NewIngestorContainer() (*IngestorContainer, error) {
	cfg, err := config.LoadIngestorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load ingestor configuration: %w", err)
	}

	return &IngestorContainer{
		config: cfg,
		logger: logger.NewLogger(&cfg.Logging),
	}, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetConfig returns the ingestor configuration
func (c *IngestorContainer) GetConfig() *config.IngestorConfig {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetLogger returns the logger
func (c *IngestorContainer) GetLogger() *logger.Logger {
	return c.logger
}

// GetDatabase returns the database connection, opening it on first use
func (c *Container) GetDatabase() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.database()
}

func (c *Container) database() (*sql.DB, error) {
	if c.db == nil {
		db, err := health.ConnectDatabaseWithTimeout(c.config, 20*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db
		c.cleanupFuncs = append(c.cleanupFuncs, db.Close)
	}
	return c.db, nil
}

// GetLatestReadingCache returns the Redis cache, or nil when REDIS_ADDR is unset
func (c *Container) GetLatestReadingCache() (interfaces.LatestReadingCache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.Redis.Addr == "" {
		return nil, nil
	}
	if c.redis == nil {
		rdb, err := health.ConnectRedisWithTimeout(c.config.Redis, 5*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.redis = rdb
		c.cleanupFuncs = append(c.cleanupFuncs, rdb.Close)
	}
	return implementation.NewRedisLatestReadingCache(c.redis, c.config.Redis.TTL), nil
}

// GetRawReadingArchive returns the Mongo archive, or nil when MONGODB_URI is unset
func (c *Container) GetRawReadingArchive() (interfaces.RawReadingArchive, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.Mongo.URI == "" {
		return nil, nil
	}
	if c.mongo == nil {
		client, err := health.ConnectMongoWithTimeout(c.config.Mongo, 10*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		c.mongo = client
		c.cleanupFuncs = append(c.cleanupFuncs, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		})
	}
	coll := c.mongo.Database(c.config.Mongo.Database).Collection(c.config.Mongo.Collection)
	return implementation.NewMongoRawReadingArchive(coll), nil
}

// GetHealthChecker returns the health checker
func (c *Container) GetHealthChecker() (*health.HealthChecker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.healthChecker == nil {
		db, err := c.database()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for health checker: %w", err)
		}
		c.healthChecker = health.NewHealthChecker(db, c.config.Database.Driver)
	}

	return c.healthChecker, nil
}

// GetDatabaseManager returns the database manager
func (c *Container) GetDatabaseManager() (*health.DatabaseManager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.databaseManager == nil {
		db, err := c.database()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for database manager: %w", err)
		}
		c.databaseManager = health.NewDatabaseManager(db, c.config.Database.Driver)
	}

	return c.databaseManager, nil
}

// InitializeDatabase initializes the database and creates tables
func (c *Container) InitializeDatabase(ctx context.Context) error {
	dbManager, err := c.GetDatabaseManager()
	if err != nil {
		return fmt.Errorf("failed to get database manager: %w", err)
	}

	if err := dbManager.CreateTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	c.logger.Info("Database initialized successfully")
	return nil
}

// Shutdown gracefully shuts down the container and all its dependencies
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}
	c.cleanupFuncs = nil

	c.logger.Info("Container shutdown complete")
	return nil
}

// Shutdown gracefully shuts down the ingestor container
func (c *IngestorContainer) Shutdown(ctx context.Context) error {
	c.logger.Info("Ingestor container shutdown complete")
	return nil
}
