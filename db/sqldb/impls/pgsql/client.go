package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/db/sqldb"
)

const DBType = "pgsql"

func init() {
	sqldb.RegisterFactory(DBType, func(conf *sqldb.Conf, logger *zap.Logger) sqldb.Client {
		return &Client{Conf: conf, Logger: logger}
	})
}

type Client struct {
	Handle // [Embedded] for Promoted Methods
	Conf   *sqldb.Conf
	Logger *zap.Logger

	rawStore *sqldb.RawSQLStore
	dsn      string
}

// Ensure pgsql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init(ctx context.Context) error {
	// DSN
	if c.Conf.DSN != "" {
		c.dsn = c.Conf.DSN
	} else {
		// NOTE: sslmode=disable is often used for local dev, adjust as needed.
		c.dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			c.Conf.Host,
			c.Conf.Port,
			c.Conf.User,
			c.Conf.PW,
			c.Conf.DB,
			c.Conf.Timezone(),
		)
	}
	config, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return fmt.Errorf("failed to parse pgx config: %w", err)
	}
	config.MaxConns = int32(c.Conf.PoolSize())
	config.MinConns = 1
	config.MaxConnLifetime = 3 * time.Minute

	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c.Pool, err = pgxpool.NewWithConfig(openCtx, config)
	if err != nil {
		return fmt.Errorf("failed to connect pgx Pool: %w", err)
	}
	if err = c.Ping(openCtx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	c.rawStore = sqldb.NewRawStore()
	if err = sqldb.LoadRawStmtsToStore(c.rawStore, DBType, c.Logger); err != nil {
		return err
	}
	c.Logger.Info("pgsql client initialized", zap.String("host", c.Conf.Host), zap.String("db", c.Conf.DB))
	return nil
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) RawStore() *sqldb.RawSQLStore {
	return c.rawStore
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

func (c *Client) Close() error {
	if c.Pool == nil {
		return nil
	}
	c.Pool.Close()
	return nil
}

func (c *Client) BeginTx(ctx context.Context) (sqldb.Tx, error) {
	if c.Pool == nil {
		return nil, fmt.Errorf("pgsql client not initialized")
	}
	tx, err := c.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction failed: %w", err)
	}
	return &Tx{tx: tx}, nil
}
