package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/routinely/routinely-server/internal/config"
	"github.com/routinely/routinely-server/internal/localstate"
	storepkg "github.com/routinely/routinely-server/internal/store"
	storepg "github.com/routinely/routinely-server/internal/store/postgres"
	storelite "github.com/routinely/routinely-server/internal/store/sqlite"
)

// NewStore builds the store.Store selected by cfg.DBDriver: "postgres" for
// deployments, "sqlite" for single-machine setups and the CLI.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return newPostgresStore(ctx, cfg, log)
	case "sqlite":
		return newSQLiteStore(cfg, log)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

// newPostgresStore opens the pool synchronously so health probes can ping it
// right away. Schema bootstrap runs in the background on cfg's budget; a
// missing schema keeps the store unhealthy rather than failing startup.
func newPostgresStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("ROUTINELY_POSTGRES_DSN is required when DB_DRIVER=postgres")
	}

	db, err := storepg.Open(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	go func() {
		budget := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bctx, cancel := context.WithTimeout(ctx, budget)
		defer cancel()

		if err := storepg.Bootstrap(bctx, cfg.PostgresDSN); err != nil {
			log.Warn().Err(err).Msg("postgres bootstrap failed; store stays unhealthy until the schema exists")
			return
		}
		log.Debug().Msg("postgres schema verified")
	}()

	return storepg.NewWithDB(db), nil
}

// newSQLiteStore resolves the database file, defaulting to the per-user state
// directory, and creates the schema inline since the file is local.
func newSQLiteStore(cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	path := cfg.SQLitePath
	if path == "" {
		p, err := localstate.DBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve sqlite path: %w", err)
		}
		path = p
	}

	st, err := storelite.New(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Msg("sqlite store ready")
	return st, nil
}
