package db

import (
	"io"
	"reflect"

	"go.uber.org/zap"
)

// CloseClient closes a database client at shutdown, logging the outcome
func CloseClient(logger *zap.Logger, name string, c io.Closer) {
	if c == nil || (reflect.ValueOf(c).Kind() == reflect.Pointer && reflect.ValueOf(c).IsNil()) {
		logger.Debug("nothing to close", zap.String("client", name))
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close", zap.String("client", name), zap.Error(err))
		return
	}
	logger.Info("closed", zap.String("client", name))
}
