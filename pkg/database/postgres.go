package database

import (
	"context"
	"fmt"
	"time"

	pgxTransactor "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxPoolSize       = 4
	defaultConnTimeout       = 5 * time.Second
	defaultHealthCheckPeriod = time.Minute
)

// Postgres owns the connection pool and the transactor bound to it.
type Postgres struct {
	maxPoolSize       int32
	connTimeout       time.Duration
	healthCheckPeriod time.Duration

	Pool       *pgxpool.Pool
	Transactor *pgxTransactor.Transactor
	DBGetter   pgxTransactor.DBGetter
}

type Option func(*Postgres)

func MaxPoolSize(size int32) Option {
	return func(p *Postgres) {
		if size > 0 {
			p.maxPoolSize = size
		}
	}
}

// ConnTimeout is in seconds.
func ConnTimeout(seconds int) Option {
	return func(p *Postgres) {
		if seconds > 0 {
			p.connTimeout = time.Duration(seconds) * time.Second
		}
	}
}

// HealthCheckPeriod is in minutes.
func HealthCheckPeriod(minutes int) Option {
	return func(p *Postgres) {
		if minutes > 0 {
			p.healthCheckPeriod = time.Duration(minutes) * time.Minute
		}
	}
}

// New connects to databaseURL and pings it within the connect timeout.
func New(ctx context.Context, databaseURL string, opts ...Option) (*Postgres, error) {
	pg := &Postgres{
		maxPoolSize:       defaultMaxPoolSize,
		connTimeout:       defaultConnTimeout,
		healthCheckPeriod: defaultHealthCheckPeriod,
	}

	for _, opt := range opts {
		opt(pg)
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	poolConfig.MaxConns = pg.maxPoolSize
	poolConfig.HealthCheckPeriod = pg.healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = pg.connTimeout

	connectCtx, cancel := context.WithTimeout(ctx, pg.connTimeout)
	defer cancel()

	pg.Pool, err = pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err = pg.Pool.Ping(connectCtx); err != nil {
		pg.Pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg.Transactor, pg.DBGetter = pgxTransactor.NewTransactorFromPool(pg.Pool)

	return pg, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
