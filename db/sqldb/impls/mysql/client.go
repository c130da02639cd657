package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql" // side-effect
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/db/sqldb"
)

const DBType = "mysql"

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

// Ensure mysql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init(ctx context.Context) error {
	var err error
	if c.Conf.DSN != "" {
		c.dsn = c.Conf.DSN
	} else {
		c.dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=%s&sql_mode=ANSI_QUOTES",
			c.Conf.User,
			c.Conf.PW,
			c.Conf.Host,
			c.Conf.Port,
			c.Conf.DB,
			url.QueryEscape(c.Conf.Timezone()),
		)
	}
	if c.DB, err = sql.Open("mysql", c.dsn); err != nil {
		return err
	}
	c.DB.SetConnMaxLifetime(3 * time.Minute)
	c.DB.SetMaxOpenConns(c.Conf.PoolSize())
	c.DB.SetMaxIdleConns(c.Conf.PoolSize())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = c.Ping(pingCtx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	c.rawStore = sqldb.NewRawStore()
	if err = sqldb.LoadRawStmtsToStore(c.rawStore, DBType, c.Logger); err != nil {
		return err
	}
	c.Logger.Info("mysql client initialized", zap.String("host", c.Conf.Host), zap.String("db", c.Conf.DB))
	return nil
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) RawStore() *sqldb.RawSQLStore {
	return c.rawStore
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func (c *Client) BeginTx(ctx context.Context) (sqldb.Tx, error) {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}
