// Package store provides persistence for set-aside requests and outcomes.
package store

import (
	"github.com/iwvelando/setaside/internal/setaside"
	"github.com/iwvelando/setaside/pkg/constants"
	"go.uber.org/zap"
)

// Open returns the store selected by driver: memory, sqlite or postgres.
func Open(logger *zap.Logger, driver, dsn string) (setaside.Store, error) {
	switch driver {
	case "", constants.DriverMemory:
		return NewMemory(), nil
	default:
		return NewSQL(logger, driver, dsn)
	}
}
