package noshow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/Alijeyrad/simorq_noshow/internal/noshow"

// DefaultBatchConcurrency bounds the number of predictions a batch runs at
// once when no explicit limit is configured.
const DefaultBatchConcurrency = 8

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Predict(ctx context.Context, appointmentID uuid.UUID) (*NoShowPrediction, error)
	PredictRecord(ctx context.Context, appt AppointmentRecord) (*NoShowPrediction, error)
	BatchPredict(ctx context.Context, appointmentIDs []uuid.UUID) []BatchItem
	BatchPredictRecords(ctx context.Context, appts []AppointmentRecord) []BatchItem
	PredictScheduled(ctx context.Context, from, to time.Time) ([]BatchItem, error)
	PatientHistory(ctx context.Context, patientID uuid.UUID) (PatientNoShowHistory, error)
	Analytics(ctx context.Context) (*NoShowAnalytics, error)
	UpdateOutcome(ctx context.Context, appointmentID uuid.UUID, outcome Outcome) error
	InvalidateHistory(ctx context.Context, patientID uuid.UUID) error
}

type Options struct {
	Cache            HistoryCache
	Publisher        OutcomePublisher
	Logger           *slog.Logger
	BatchConcurrency int
	Clock            func() time.Time
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type engine struct {
	store            Store
	history          *HistoryAggregator
	publisher        OutcomePublisher
	logger           *slog.Logger
	batchConcurrency int
	now              func() time.Time

	tracer      trace.Tracer
	predictions metric.Int64Counter
	riskScores  metric.Float64Histogram
	failures    metric.Int64Counter
}

func New(store Store, opts Options) Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	meter := otel.Meter(instrumentationName)
	predictions, _ := meter.Int64Counter(
		"noshow_predictions_total",
		metric.WithDescription("Number of no-show predictions produced"),
		metric.WithUnit("{prediction}"),
	)
	riskScores, _ := meter.Float64Histogram(
		"noshow_risk_score",
		metric.WithDescription("Distribution of normalized no-show risk scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)
	failures, _ := meter.Int64Counter(
		"noshow_prediction_failures_total",
		metric.WithDescription("Number of predictions that could not be produced"),
	)

	return &engine{
		store:            store,
		history:          NewHistoryAggregator(store, opts.Cache, opts.Logger),
		publisher:        opts.Publisher,
		logger:           opts.Logger,
		batchConcurrency: opts.BatchConcurrency,
		now:              opts.Clock,
		tracer:           otel.Tracer(instrumentationName),
		predictions:      predictions,
		riskScores:       riskScores,
		failures:         failures,
	}
}

func (s *engine) Predict(ctx context.Context, appointmentID uuid.UUID) (*NoShowPrediction, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		s.failures.Add(ctx, 1)
		return nil, fmt.Errorf("get appointment %s: %w", appointmentID, err)
	}
	return s.PredictRecord(ctx, appt)
}

func (s *engine) PredictRecord(ctx context.Context, appt AppointmentRecord) (*NoShowPrediction, error) {
	ctx, span := s.tracer.Start(ctx, "noshow.predict", trace.WithAttributes(
		attribute.String("appointment.id", appt.ID.String()),
		attribute.String("patient.id", appt.PatientID.String()),
	))
	defer span.End()

	h, err := s.history.Get(ctx, appt.PatientID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.failures.Add(ctx, 1)
		return nil, err
	}

	p := buildPrediction(appt, h, s.now())

	span.SetAttributes(
		attribute.Float64("noshow.risk_score", p.RiskScore),
		attribute.String("noshow.risk_level", string(p.RiskLevel)),
	)
	level := metric.WithAttributes(attribute.String("risk_level", string(p.RiskLevel)))
	s.predictions.Add(ctx, 1, level)
	s.riskScores.Record(ctx, p.RiskScore, level)

	return p, nil
}

// buildPrediction runs the evaluator, scorer and recommender for one
// appointment. It does no I/O.
func buildPrediction(appt AppointmentRecord, h PatientNoShowHistory, now time.Time) *NoShowPrediction {
	factors := EvaluateFactors(appt, h, now)
	score := ScoreFactors(factors)
	return &NoShowPrediction{
		AppointmentID:   appt.ID,
		PatientID:       appt.PatientID,
		RiskScore:       score.Normalized,
		RiskLevel:       score.Level,
		Factors:         factors,
		Recommendations: Recommend(score.Level, factors),
		Confidence:      Confidence(h.TotalAppointments, len(factors)),
		PredictedAt:     now,
	}
}

func (s *engine) BatchPredict(ctx context.Context, appointmentIDs []uuid.UUID) []BatchItem {
	return s.runBatch(ctx, len(appointmentIDs),
		func(i int) uuid.UUID { return appointmentIDs[i] },
		func(ctx context.Context, i int) (*NoShowPrediction, error) {
			return s.Predict(ctx, appointmentIDs[i])
		},
	)
}

func (s *engine) BatchPredictRecords(ctx context.Context, appts []AppointmentRecord) []BatchItem {
	return s.runBatch(ctx, len(appts),
		func(i int) uuid.UUID { return appts[i].ID },
		func(ctx context.Context, i int) (*NoShowPrediction, error) {
			return s.PredictRecord(ctx, appts[i])
		},
	)
}

// PredictScheduled scores every unresolved appointment starting in
// [from, to).
func (s *engine) PredictScheduled(ctx context.Context, from, to time.Time) ([]BatchItem, error) {
	if !to.After(from) {
		return []BatchItem{}, nil
	}
	appts, err := s.store.ScheduledBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list scheduled appointments: %w", err)
	}
	return s.BatchPredictRecords(ctx, appts), nil
}

// runBatch fans predictions out over a bounded worker set. A failed item is
// reported in its slot and never cancels its siblings.
func (s *engine) runBatch(
	ctx context.Context,
	n int,
	idOf func(int) uuid.UUID,
	predict func(context.Context, int) (*NoShowPrediction, error),
) []BatchItem {
	ctx, span := s.tracer.Start(ctx, "noshow.batch_predict", trace.WithAttributes(
		attribute.Int("batch.size", n),
	))
	defer span.End()

	items := make([]BatchItem, n)

	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			item := BatchItem{AppointmentID: idOf(i)}
			defer func() {
				if r := recover(); r != nil {
					item.Prediction = nil
					item.Err = fmt.Errorf("prediction panicked: %v", r)
				}
				if item.Err != nil {
					s.logger.WarnContext(ctx, "batch prediction failed",
						"appointment_id", item.AppointmentID, "err", item.Err)
				}
				items[i] = item
			}()
			item.Prediction, item.Err = predict(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	SortBatch(items)

	failed := 0
	for _, it := range items {
		if !it.OK() {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("batch.failed", failed))

	return items
}

// SortBatch orders successful predictions by descending risk score, keeping
// input order among equal scores. Failed items go last, also in input order.
func SortBatch(items []BatchItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.OK() != b.OK() {
			return a.OK()
		}
		if !a.OK() {
			return false
		}
		return a.Prediction.RiskScore > b.Prediction.RiskScore
	})
}

func (s *engine) PatientHistory(ctx context.Context, patientID uuid.UUID) (PatientNoShowHistory, error) {
	return s.history.Get(ctx, patientID)
}

func (s *engine) Analytics(ctx context.Context) (*NoShowAnalytics, error) {
	ctx, span := s.tracer.Start(ctx, "noshow.analytics")
	defer span.End()

	records, err := s.store.ResolvedAppointments(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load appointment corpus: %w", err)
	}

	a := BuildAnalytics(records, s.now())
	span.SetAttributes(attribute.Int("corpus.size", a.TotalAppointments))
	return &a, nil
}

func (s *engine) UpdateOutcome(ctx context.Context, appointmentID uuid.UUID, outcome Outcome) error {
	if !outcome.Resolved() {
		return fmt.Errorf("%w: outcome is required", ErrInvalidOutcome)
	}

	appt, err := s.store.UpdateOutcome(ctx, appointmentID, outcome)
	if err != nil {
		return fmt.Errorf("update outcome for %s: %w", appointmentID, err)
	}

	if err := s.history.Invalidate(ctx, appt.PatientID); err != nil {
		return err
	}

	ev := OutcomeEvent{AppointmentID: appt.ID, PatientID: appt.PatientID, Outcome: outcome}
	if err := s.publisher.PublishOutcome(ctx, ev); err != nil {
		// Local cache is already invalidated; only remote replicas miss out.
		s.logger.WarnContext(ctx, "publish outcome event failed",
			"appointment_id", appt.ID, "patient_id", appt.PatientID, "err", err)
	}

	s.logger.InfoContext(ctx, "appointment outcome updated",
		"appointment_id", appt.ID, "patient_id", appt.PatientID, "outcome", outcome)
	return nil
}

func (s *engine) InvalidateHistory(ctx context.Context, patientID uuid.UUID) error {
	return s.history.Invalidate(ctx, patientID)
}
