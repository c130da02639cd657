package sqldb

import (
	"fmt"

	"go.uber.org/zap"
)

// ClientFactory is a callback that constructs a Client from Conf.
// It is registered with RegisterFactory and called by sqldb.New.
type ClientFactory func(conf *Conf, logger *zap.Logger) Client

var registry = map[string]ClientFactory{}

// RegisterFactory is called from the init() of each driver package
func RegisterFactory(dbType string, factory ClientFactory) {
	registry[dbType] = factory
}

func New(conf *Conf, logger *zap.Logger) (Client, error) {
	factory, ok := registry[conf.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %q", conf.Type)
	}
	return factory(conf, logger), nil
}
