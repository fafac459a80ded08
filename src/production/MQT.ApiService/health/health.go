package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	config "github.com/haxx668/backendmonitoring/src/production/MQT.Config"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Pinger is any optional collaborator that can report its liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker provides health check functionality
type HealthChecker struct {
	db     *sql.DB
	driver string
	extra  map[string]Pinger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB, driver string) *HealthChecker {
	return &HealthChecker{db: db, driver: driver, extra: make(map[string]Pinger)}
}

// Register adds a named dependency to the readiness checks
func (h *HealthChecker) Register(name string, p Pinger) {
	h.extra[name] = p
}

// PingDatabase checks if the database connection is healthy
func (h *HealthChecker) PingDatabase(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return h.db.PingContext(ctx)
}

// CheckDatabaseHealth pings and runs a trivial query
func (h *HealthChecker) CheckDatabaseHealth(ctx context.Context) error {
	if err := h.PingDatabase(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// GetHealthStatus returns the per-check status and whether all checks passed
func (h *HealthChecker) GetHealthStatus(ctx context.Context) (map[string]interface{}, bool) {
	checks := make(map[string]interface{})
	healthy := true

	record := func(name string, err error) {
		if err != nil {
			healthy = false
			checks[name] = map[string]interface{}{"status": "error", "error": err.Error()}
			return
		}
		checks[name] = map[string]interface{}{"status": "ok"}
	}

	record(h.driver, h.CheckDatabaseHealth(ctx))
	for name, p := range h.extra {
		record(name, p.Ping(ctx))
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}

	return map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
		"checks":    checks,
	}, healthy
}

// DatabaseManager handles schema bootstrap
type DatabaseManager struct {
	db     *sql.DB
	driver string
}

// NewDatabaseManager creates a new database manager
func NewDatabaseManager(db *sql.DB, driver string) *DatabaseManager {
	return &DatabaseManager{db: db, driver: driver}
}

// ConnectDatabaseWithTimeout opens the configured driver and verifies the connection
func ConnectDatabaseWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open(cfg.Database.Driver, cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open %s connection: %w", cfg.Database.Driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping %s: %w", cfg.Database.Driver, err)
	}

	if cfg.Database.Driver == "sqlite3" {
		// one writer at a time, otherwise concurrent requests hit SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.Database.MaxConns)
		db.SetMaxIdleConns(cfg.Database.MinConns)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS userdata (
		username  TEXT PRIMARY KEY,
		email     TEXT NOT NULL UNIQUE,
		no_telp   TEXT NOT NULL,
		password  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dataalat (
		idalat        TEXT PRIMARY KEY,
		username      TEXT NOT NULL,
		nama_anak     TEXT NOT NULL,
		usia          INTEGER NOT NULL,
		jeniskelamin  TEXT NOT NULL CHECK (jeniskelamin IN ('L', 'P'))
	)`,
	`CREATE TABLE IF NOT EXISTS monitoring (
		id          BIGSERIAL PRIMARY KEY,
		reading_id  TEXT,
		idalat      TEXT NOT NULL,
		payload     JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		id          BIGSERIAL PRIMARY KEY,
		idalat      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		duration    INTEGER NOT NULL
	)`,
	`ALTER TABLE monitoring ADD COLUMN IF NOT EXISTS reading_id TEXT`,
	`CREATE INDEX IF NOT EXISTS idx_dataalat_username ON dataalat (username)`,
	`CREATE INDEX IF NOT EXISTS idx_monitoring_idalat_updated ON monitoring (idalat, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_history_idalat_created ON history (idalat, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_monitoring_reading_id ON monitoring (reading_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS userdata (
		username  TEXT PRIMARY KEY,
		email     TEXT NOT NULL UNIQUE,
		no_telp   TEXT NOT NULL,
		password  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dataalat (
		idalat        TEXT PRIMARY KEY,
		username      TEXT NOT NULL,
		nama_anak     TEXT NOT NULL,
		usia          INTEGER NOT NULL,
		jeniskelamin  TEXT NOT NULL CHECK (jeniskelamin IN ('L', 'P'))
	)`,
	`CREATE TABLE IF NOT EXISTS monitoring (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		reading_id  TEXT,
		idalat      TEXT NOT NULL,
		payload     TEXT NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		idalat      TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		duration    INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dataalat_username ON dataalat (username)`,
	`CREATE INDEX IF NOT EXISTS idx_monitoring_idalat_updated ON monitoring (idalat, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_history_idalat_created ON history (idalat, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_monitoring_reading_id ON monitoring (reading_id)`,
}

// CreateTables creates the required tables if they don't exist
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	queries := postgresSchema
	if dm.driver == "sqlite3" {
		queries = sqliteSchema
	}

	for _, query := range queries {
		if _, err := dm.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (dm *DatabaseManager) Close() error {
	if dm.db != nil {
		return dm.db.Close()
	}
	return nil
}
