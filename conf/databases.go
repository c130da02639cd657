package conf

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/db"
	"github.com/zeptools/gw-docgen/db/kvdb"
	"github.com/zeptools/gw-docgen/db/kvdb/impls/memory"
	"github.com/zeptools/gw-docgen/db/kvdb/impls/redis"
	"github.com/zeptools/gw-docgen/db/sqldb"
	"github.com/zeptools/gw-docgen/docstore"

	// register sql client factories
	_ "github.com/zeptools/gw-docgen/db/sqldb/impls/mysql"
	_ "github.com/zeptools/gw-docgen/db/sqldb/impls/pgsql"
)

// PrepareKVDatabase loads config/.kv-database.json and connects the client.
// A missing file means the in-process memory backend
func (c *Core) PrepareKVDatabase() error {
	if err := c.loadKVDBConf(); err != nil {
		return err
	}
	return c.prepareKVDBClient()
}

func (c *Core) loadKVDBConf() error {
	data, err := os.ReadFile(c.ConfigPath(".kv-database.json"))
	if errors.Is(err, os.ErrNotExist) {
		c.KVDBConf = kvdb.Conf{Type: "memory", KeyPrefix: c.AppName + ":"}
		return nil
	}
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, &c.KVDBConf); err != nil {
		return fmt.Errorf(".kv-database.json: %w", err)
	}
	return nil
}

func (c *Core) prepareKVDBClient() error {
	switch c.KVDBConf.Type {
	case "redis":
		c.BackendKVDBClient = &redis.Client{Conf: &c.KVDBConf, Logger: c.Logger}
	case "memory":
		c.BackendKVDBClient = &memory.Client{Conf: &c.KVDBConf}
	default:
		return fmt.Errorf("unsupported kv database type %q", c.KVDBConf.Type)
	}
	if err := c.BackendKVDBClient.Init(c.RootCtx); err != nil {
		return fmt.Errorf("kv database init: %w", err)
	}
	c.Logger.Info("kv database ready", zap.String("type", c.KVDBConf.Type))
	return nil
}

// PrepareSQLDatabases loads config/.sql-databases.json and connects every client
func (c *Core) PrepareSQLDatabases() error {
	if err := c.loadSQLDBConfs(); err != nil {
		return err
	}
	return c.prepareSQLDBClients()
}

func (c *Core) loadSQLDBConfs() error {
	data, err := os.ReadFile(c.ConfigPath(".sql-databases.json"))
	if err != nil {
		return err
	}
	c.SQLDBConfs = make(map[string]*sqldb.Conf)
	if err = json.Unmarshal(data, &c.SQLDBConfs); err != nil {
		return fmt.Errorf(".sql-databases.json: %w", err)
	}
	return nil
}

func (c *Core) prepareSQLDBClients() error {
	c.BackendSQLDBClients = make(map[string]sqldb.Client, len(c.SQLDBConfs))
	for name, dbConf := range c.SQLDBConfs {
		client, err := sqldb.New(dbConf, c.Logger.With(zap.String("db", name)))
		if err != nil {
			return fmt.Errorf("sql database %s: %w", name, err)
		}
		if err = client.Init(c.RootCtx); err != nil {
			return fmt.Errorf("sql database %s init: %w", name, err)
		}
		c.BackendSQLDBClients[name] = client
		c.Logger.Info("sql database ready", zap.String("db", name), zap.String("type", dbConf.Type))
	}
	return nil
}

// PrepareDocStore builds the document store for the configured storage backend,
// connecting the databases it needs
func (c *Core) PrepareDocStore() error {
	switch c.Storage {
	case StorageMemory:
		c.DocStore = docstore.NewMemoryStore(nil)
	case StorageKV:
		if err := c.PrepareKVDatabase(); err != nil {
			return err
		}
		cipher, err := c.Cipher()
		if err != nil {
			return err
		}
		c.DocStore = docstore.NewKVStore(c.BackendKVDBClient, cipher, c.Logger)
	case StorageSQL:
		if err := c.PrepareSQLDatabases(); err != nil {
			return err
		}
		client, ok := c.BackendSQLDBClients[c.SQLDB]
		if !ok {
			return fmt.Errorf("sql_db %q not found in .sql-databases.json", c.SQLDB)
		}
		store, err := docstore.NewSQLStore(c.RootCtx, client, c.Logger)
		if err != nil {
			return err
		}
		c.DocStore = store
	default:
		return fmt.Errorf("unsupported storage %q", c.Storage)
	}
	c.Logger.Info("document store ready", zap.String("storage", c.Storage))
	return nil
}

func (c *Core) closeDBClients() {
	if c.BackendKVDBClient != nil {
		db.CloseClient(c.Logger, "kv database", c.BackendKVDBClient)
	}
	for name, client := range c.BackendSQLDBClients {
		db.CloseClient(c.Logger, "sql database "+name, client)
	}
}
