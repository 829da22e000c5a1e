package app

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/simorq_noshow/config"
	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

// WithService starts the infra and service graph without the HTTP server,
// runs fn against the engine and stops the graph again.
func WithService(ctx context.Context, cfg *config.Config, fn func(context.Context, noshow.Service) error) error {
	var svc noshow.Service
	fxApp := fx.New(
		fx.Supply(cfg),
		InfraModule,
		ServiceModule,
		fx.Populate(&svc),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	)
	if err := fxApp.Err(); err != nil {
		return err
	}
	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx, svc)

	stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
	defer cancel()
	return errors.Join(runErr, fxApp.Stop(stopCtx))
}
