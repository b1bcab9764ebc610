package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lukasbauer/retell-relay/internal/convstore"
	"github.com/lukasbauer/retell-relay/internal/eventlog"
	"github.com/lukasbauer/retell-relay/internal/httpapi"
)

type App struct {
	cfg           Config
	logger        *log.Logger
	db            *pgxpool.Pool
	conversations *convstore.Store
	eventLog      *eventlog.Logger
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	// The event log database is optional. Without DATABASE_URL the relay
	// runs with an in-memory-only footprint and a no-op event logger.
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		db = pool
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		conversations: convstore.New(),
		eventLog:      eventlog.New(db),
	}, nil
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		MistralAPIKey: a.cfg.MistralAPIKey,
		MistralModel:  a.cfg.MistralModel,
		GreetingText:  a.cfg.GreetingText,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.conversations, a.eventLog)
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
