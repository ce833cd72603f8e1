// Command eventsink drains the upload queue into Postgres
package main

import (
	"context"
	"os/signal"
	"syscall"

	"eventsink/internal/core/version"
	"eventsink/internal/modkit"
	"eventsink/internal/modkit/module"
	"eventsink/internal/modkit/repokit"
	"eventsink/internal/platform/config"
	"eventsink/internal/platform/logger"
	"eventsink/internal/platform/store"
	"eventsink/internal/services/events"
	"eventsink/internal/services/events/catalog"
	eventsdom "eventsink/internal/services/events/domain"
	"eventsink/internal/services/ingest"
)

func main() {
	logger.Init(logger.FromEnv())
	l := logger.Get()

	bi := version.Info()
	l.Info().
		Str("service", bi.Service).
		Str("version", bi.Version).
		Str("commit", bi.Commit).
		Msg("starting")

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	rdCfg := root.Prefix("SERVICE_REDIS_")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: bi.Service,
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		RD: store.RDConfig{
			Enabled:  true,
			Addr:     rdCfg.MayString("ADDR", "localhost:6379"),
			Password: rdCfg.MayString("PASSWORD", ""),
			DB:       rdCfg.MayInt("DB", 0),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(ctx, st)

	reg := catalog.NewRegistry()
	l.Info().Int("schemas", reg.Size()).Msg("registry frozen")

	deps := modkit.Deps{
		Log: *l,
		Cfg: root,
		PG:  st.PG,
		RD:  st.RD,
	}

	em := events.New(deps, reg)

	im, err := ingest.New(deps, em.Ports().(eventsdom.Ports), ingest.OptionsFromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("ingest wiring failed")
	}

	module.Register(em.Name(), em.Ports())
	module.Register(im.Name(), im.Ports())

	if err := im.Runner().Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("ingest failed")
	}
}
