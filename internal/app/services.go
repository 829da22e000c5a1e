package app

import (
	"database/sql"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_noshow/config"
	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
	"github.com/Alijeyrad/simorq_noshow/internal/repo"
	"github.com/Alijeyrad/simorq_noshow/pkg/observability"
)

// ServiceModule provides the prediction engine and its collaborators.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideStore,
		ProvideHistoryCache,
		ProvideOutcomePublisher,
		ProvideNoShowService,
	),
)

func ProvideStore(db *sql.DB) noshow.Store {
	return repo.NewAppointmentStore(db)
}

func ProvideHistoryCache(cfg *config.Config, rdb *redis.Client) noshow.HistoryCache {
	if cfg.Prediction.Cache.Driver == config.CacheDriverRedis && rdb != nil {
		return noshow.NewRedisCache(rdb, cfg.Prediction.Cache.TTL())
	}
	return noshow.NewMemoryCache()
}

func ProvideOutcomePublisher(cfg *config.Config, nc *nats.Conn) noshow.OutcomePublisher {
	if !cfg.Prediction.OutcomeEvents || nc == nil {
		return nil
	}
	return noshow.NewNATSPublisher(nc)
}

type NoShowParams struct {
	fx.In

	Cfg       *config.Config
	Logger    *slog.Logger
	Store     noshow.Store
	Cache     noshow.HistoryCache
	Publisher noshow.OutcomePublisher
	// Requested so the otel globals are installed before the engine
	// creates its instruments.
	OTel *observability.Provider `optional:"true"`
}

func ProvideNoShowService(p NoShowParams) noshow.Service {
	return noshow.New(p.Store, noshow.Options{
		Cache:            p.Cache,
		Publisher:        p.Publisher,
		Logger:           p.Logger.With("component", "noshow"),
		BatchConcurrency: p.Cfg.Prediction.BatchConcurrency,
	})
}
