package app

import (
	"fmt"

	"github.com/ficoreafrica/ledger/config"
	"github.com/ficoreafrica/ledger/store"
	"github.com/ficoreafrica/ledger/store/memory"
	"github.com/ficoreafrica/ledger/store/mongo"
	"github.com/ficoreafrica/ledger/store/postgres"
	"github.com/ficoreafrica/ledger/store/sqlite"
)

// OpenStore opens the backend selected by cfg.Driver.
func OpenStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongo.Open(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}
