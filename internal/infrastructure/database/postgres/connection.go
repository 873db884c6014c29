// Package postgres manages the PostgreSQL connection pool and schema
// migrations backing the rate-table store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

const driverName = "pgx"

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// Connection owns the database/sql pool.
type Connection struct {
	db     *sql.DB
	dsn    string
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens the pool, applies the pool limits and verifies the
// server answers a ping.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Connection, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	dsn := BuildDSN(cfg)

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open database connection")
	}
	configurePool(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "database connection failed")
	}

	log.Info("connected to PostgreSQL",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
	)
	return &Connection{db: db, dsn: dsn, logger: log}, nil
}

// NewConnectionWithDB wraps an existing pool, typically a sqlmock one.
func NewConnectionWithDB(db *sql.DB, log logging.Logger) *Connection {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Connection{db: db, logger: log}
}

func configurePool(db *sql.DB, cfg config.DatabaseConfig) {
	maxOpen := cfg.MaxConns
	if maxOpen <= 0 {
		maxOpen = config.DefaultDBMaxConns
	}
	db.SetMaxOpenConns(maxOpen)

	idle := cfg.MaxIdleConns
	if idle <= 0 {
		idle = maxOpen / 2
	}
	db.SetMaxIdleConns(idle)

	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	} else {
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
}

func (c *Connection) DB() *sql.DB { return c.db }

// DSN is empty for connections built with NewConnectionWithDB.
func (c *Connection) DSN() string { return c.dsn }

// HealthCheck pings the server and warns when the pool runs hot.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database health check failed")
	}
	stats := c.db.Stats()
	if stats.OpenConnections > 0 {
		usage := float64(stats.InUse) / float64(stats.OpenConnections)
		if usage > 0.8 {
			c.logger.Warn("high database pool usage",
				logging.Int("in_use", stats.InUse),
				logging.Int("open", stats.OpenConnections),
				logging.Float64("usage", usage),
			)
		}
	}
	return nil
}

func (c *Connection) Stats() sql.DBStats { return c.db.Stats() }

// Close is idempotent.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		err = c.db.Close()
		if err != nil {
			c.logger.Error("failed to close PostgreSQL pool", logging.Err(err))
			return
		}
		c.logger.Info("closed PostgreSQL pool")
	})
	return err
}

// WithTransaction runs fn inside a transaction, committing on nil and
// rolling back on error or panic.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "rollback failed: "+rbErr.Error())
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "commit transaction")
	}
	return nil
}

// BuildDSN renders cfg as a postgres:// URL.  Statement and lock timeouts
// keep a stuck query from stalling a rating request.
func BuildDSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.DBName,
	}
	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	} else {
		q.Set("sslmode", "disable")
	}
	q.Set("statement_timeout", "5000")
	q.Set("lock_timeout", "2000")
	u.RawQuery = q.Encode()
	return u.String()
}

//Personal.AI order the ending
