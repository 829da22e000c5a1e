package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_noshow/config"
	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
	"github.com/Alijeyrad/simorq_noshow/pkg/constants"
)

// WorkerModule registers the NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *slog.Logger
	NC     *nats.Conn
	Svc    noshow.Service
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil || !p.Cfg.Prediction.OutcomeEvents {
		return
	}

	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			sub, err = startOutcomeWorker(p.NC, p.Svc, p.Logger)
			return err
		},
		OnStop: func(ctx context.Context) error {
			if sub == nil {
				return nil
			}
			return sub.Unsubscribe()
		},
	})
}

// ---------------------------------------------------------------------------
// outcome_worker
// ---------------------------------------------------------------------------

// startOutcomeWorker drops cached histories when any replica records an
// outcome.
func startOutcomeWorker(nc *nats.Conn, svc noshow.Service, logger *slog.Logger) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(constants.SubjectOutcomeAll, func(msg *nats.Msg) {
		handleOutcomeEvent(context.Background(), svc, logger, msg.Data)
	})
	if err != nil {
		logger.Error("outcome_worker: subscribe failed", "subject", constants.SubjectOutcomeAll, "err", err)
		return nil, err
	}
	logger.Info("outcome_worker: started", "subject", constants.SubjectOutcomeAll)
	return sub, nil
}

func handleOutcomeEvent(ctx context.Context, svc noshow.Service, logger *slog.Logger, data []byte) {
	ev, err := noshow.DecodeOutcomeEvent(data)
	if err != nil {
		logger.Warn("outcome_worker: bad event", "err", err)
		return
	}
	if err := svc.InvalidateHistory(ctx, ev.PatientID); err != nil {
		logger.Warn("outcome_worker: invalidate failed", "patient_id", ev.PatientID, "err", err)
		return
	}
	logger.Debug("outcome_worker: history invalidated",
		"patient_id", ev.PatientID, "appointment_id", ev.AppointmentID)
}
