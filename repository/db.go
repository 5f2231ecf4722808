package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"
)

// DefaultStatementTimeout bounds every statement issued by the engine
const DefaultStatementTimeout = 10 * time.Second

// ConnectOption configures Connect
type ConnectOption func(*connectOptions)

type connectOptions struct {
	logger           *zap.Logger
	statementTimeout time.Duration
	vectorTypes      bool
	maxConns         int32
}

// WithLogger sets the logger used while connecting
func WithLogger(l *zap.Logger) ConnectOption {
	return func(o *connectOptions) {
		o.logger = l
	}
}

// WithStatementTimeout sets the server side statement timeout
func WithStatementTimeout(d time.Duration) ConnectOption {
	return func(o *connectOptions) {
		o.statementTimeout = d
	}
}

// WithVectorTypes enables the pgvector extension and registers its types on
// every pooled connection
func WithVectorTypes() ConnectOption {
	return func(o *connectOptions) {
		o.vectorTypes = true
	}
}

// WithMaxConns caps the pool size
func WithMaxConns(n int32) ConnectOption {
	return func(o *connectOptions) {
		o.maxConns = n
	}
}

// Connect opens a connection pool and verifies it with a ping
func Connect(ctx context.Context, connString string, opts ...ConnectOption) (*pgxpool.Pool, error) {
	o := connectOptions{
		logger:           zap.NewNop(),
		statementTimeout: DefaultStatementTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if o.statementTimeout > 0 {
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(o.statementTimeout.Milliseconds(), 10)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}

	if o.vectorTypes {
		// The extension must exist before any pooled connection registers types.
		if err := enableVector(ctx, cfg.ConnConfig, o.logger); err != nil {
			return nil, err
		}
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	o.logger.Info("postgres connection established",
		zap.Bool("pgvector", o.vectorTypes),
		zap.Duration("statement_timeout", o.statementTimeout),
	)
	return pool, nil
}

func enableVector(ctx context.Context, cfg *pgx.ConnConfig, logger *zap.Logger) error {
	conn, err := pgx.ConnectConfig(ctx, cfg.Copy())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logger.Warn("failed to create pgvector extension, assuming it is already installed", zap.Error(err))
		return nil
	}
	logger.Info("pgvector extension enabled")
	return nil
}
