package modelstore

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/forecast"
)

// Open builds the configured backend behind an LRU cache.
func Open(cfg config.ModelConfig, db config.DatabaseConfig) (*Cached, error) {
	var backend forecast.ParamStore
	switch cfg.Backend {
	case config.ModelBackendPostgres:
		conn, err := gorm.Open(postgres.Open(db.GetDSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("connect model database: %w", err)
		}
		pg, err := NewPostgresStore(conn)
		if err != nil {
			return nil, err
		}
		log.Printf("model store: postgres %s:%d/%s", db.Host, db.Port, db.Name)
		backend = pg
	case config.ModelBackendFile, "":
		log.Printf("model store: files in %s", cfg.Dir)
		backend = NewFileStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
	return NewCached(backend, cfg.CacheSize, cfg.CacheTTL)
}
