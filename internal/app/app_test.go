package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_noshow/config"
	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

type invalidateRecorder struct {
	noshow.Service
	patients []uuid.UUID
	err      error
}

func (r *invalidateRecorder) InvalidateHistory(_ context.Context, id uuid.UUID) error {
	r.patients = append(r.patients, id)
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleOutcomeEvent(t *testing.T) {
	patient := uuid.New()
	valid, err := json.Marshal(noshow.OutcomeEvent{
		AppointmentID: uuid.New(),
		PatientID:     patient,
		Outcome:       noshow.OutcomeNoShow,
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"valid event", valid, 1},
		{"garbage", []byte("not json"), 0},
		{"missing patient", []byte(`{"appointment_id":"` + uuid.NewString() + `"}`), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &invalidateRecorder{}
			handleOutcomeEvent(context.Background(), svc, discardLogger(), tt.data)
			if len(svc.patients) != tt.want {
				t.Fatalf("invalidations = %d, want %d", len(svc.patients), tt.want)
			}
			if tt.want == 1 && svc.patients[0] != patient {
				t.Errorf("invalidated %s, want %s", svc.patients[0], patient)
			}
		})
	}
}

func TestHandleOutcomeEvent_InvalidateError(t *testing.T) {
	data, _ := json.Marshal(noshow.OutcomeEvent{PatientID: uuid.New(), Outcome: noshow.OutcomeCompleted})
	svc := &invalidateRecorder{err: errors.New("redis down")}
	handleOutcomeEvent(context.Background(), svc, discardLogger(), data)
	if len(svc.patients) != 1 {
		t.Errorf("invalidations = %d, want 1", len(svc.patients))
	}
}

func TestNeedsRedis(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want bool
	}{
		{"memory cache no limiter", config.Config{}, false},
		{"redis cache", config.Config{Prediction: config.PredictionConfig{
			Cache: config.CacheConfig{Driver: config.CacheDriverRedis},
		}}, true},
		{"limiter with redis addr", config.Config{
			Redis:  config.RedisConfig{Addr: "localhost:6379"},
			Server: config.ServerConfig{RateLimit: config.RateLimit{Enabled: true}},
		}, true},
		{"limiter without redis addr", config.Config{
			Server: config.ServerConfig{RateLimit: config.RateLimit{Enabled: true}},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsRedis(&tt.cfg); got != tt.want {
				t.Errorf("needsRedis() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProvideHistoryCache_FallsBackToMemory(t *testing.T) {
	cfg := &config.Config{Prediction: config.PredictionConfig{
		Cache: config.CacheConfig{Driver: config.CacheDriverRedis},
	}}
	if _, ok := ProvideHistoryCache(cfg, nil).(*noshow.MemoryCache); !ok {
		t.Error("expected memory cache when no redis client is available")
	}
}

func TestProvideOutcomePublisher_Disabled(t *testing.T) {
	cfg := &config.Config{Prediction: config.PredictionConfig{OutcomeEvents: true}}
	if p := ProvideOutcomePublisher(cfg, nil); p != nil {
		t.Errorf("publisher = %T, want nil without a NATS connection", p)
	}
}
