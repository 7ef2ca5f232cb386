package db

import (
	"context"

	"backend-milestomemories/internal/config"

	"github.com/rs/zerolog/log"
)

var connectPostgresFn = ConnectPostgres

// Open selects the engine from cfg, connects and applies the schema.
func Open(ctx context.Context, cfg config.Config) (Engine, error) {
	var engine Engine
	switch cfg.Driver() {
	case config.DriverPostgres:
		pool, err := connectPostgresFn(cfg)
		if err != nil {
			return nil, err
		}
		engine = NewBoundedPostgres(pool, pool.Config().MaxConns, cfg.DBConnectTimeout)
	default:
		lite, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		engine = lite
	}

	if err := Migrate(ctx, engine, engine.Driver()); err != nil {
		engine.Close()
		return nil, err
	}
	log.Info().Str("driver", engine.Driver()).Msg("database ready")
	return engine, nil
}
