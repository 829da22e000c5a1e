package noshow

import (
	"context"
	"encoding/json"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func sampleHistory() PatientNoShowHistory {
	last := at("2026-05-30T10:00:00Z")
	return PatientNoShowHistory{
		PatientID:             uuid.New(),
		TotalAppointments:     4,
		NoShowCount:           1,
		NoShowRate:            0.25,
		LastNoShow:            &last,
		AverageAdvanceBooking: 6.5,
		PreferredTimeSlots:    []TimeSlot{SlotMorning, SlotEvening},
		MonthlyRates:          map[int]float64{4: 0.5},
		WeekdayRates:          map[time.Weekday]float64{time.Saturday: 1},
	}
}

func exerciseCache(t *testing.T, c HistoryCache) {
	t.Helper()
	ctx := context.Background()
	h := sampleHistory()

	if _, found, err := c.Get(ctx, h.PatientID); err != nil || found {
		t.Fatalf("Get on empty cache = found %v, err %v", found, err)
	}
	if err := c.Set(ctx, h); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found, err := c.Get(ctx, h.PatientID)
	if err != nil || !found {
		t.Fatalf("Get after Set = found %v, err %v", found, err)
	}
	if !got.LastNoShow.Equal(*h.LastNoShow) {
		t.Errorf("LastNoShow = %v, want %v", got.LastNoShow, h.LastNoShow)
	}
	got.LastNoShow, h.LastNoShow = nil, nil
	if !reflect.DeepEqual(got, h) {
		t.Errorf("cached history = %+v, want %+v", got, h)
	}

	if err := c.Invalidate(ctx, h.PatientID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, found, _ := c.Get(ctx, h.PatientID); found {
		t.Error("history still cached after Invalidate")
	}
	if err := c.Invalidate(ctx, h.PatientID); err != nil {
		t.Errorf("Invalidate of missing key failed: %v", err)
	}
}

func TestHistoryJSON(t *testing.T) {
	h := sampleHistory()
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got PatientNoShowHistory
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.LastNoShow == nil || !got.LastNoShow.Equal(*h.LastNoShow) {
		t.Errorf("LastNoShow = %v, want %v", got.LastNoShow, h.LastNoShow)
	}
	if got.WeekdayRates[time.Saturday] != 1 || len(got.WeekdayRates) != 1 {
		t.Errorf("WeekdayRates = %v", got.WeekdayRates)
	}
	if got.MonthlyRates[4] != 0.5 || len(got.MonthlyRates) != 1 {
		t.Errorf("MonthlyRates = %v", got.MonthlyRates)
	}

	// A decoded history must drive the evaluator exactly like the original.
	appt := AppointmentRecord{
		ID:          uuid.New(),
		PatientID:   h.PatientID,
		ScheduledAt: at("2026-05-30T19:00:00Z"),
		CreatedAt:   at("2026-05-29T09:00:00Z"),
		Type:        TypeEvaluation,
	}
	now := at("2026-05-29T12:00:00Z")
	want := EvaluateFactors(appt, h, now)
	if factors := EvaluateFactors(appt, got, now); !reflect.DeepEqual(factors, want) {
		t.Errorf("factors after round trip = %+v, want %+v", factors, want)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	exerciseCache(t, c)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

// TestRedisCache runs against a live Redis when SIMORQ_TEST_REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("SIMORQ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SIMORQ_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	exerciseCache(t, NewRedisCache(rdb, time.Minute))
}

func TestRedisKey(t *testing.T) {
	id := uuid.MustParse("6f1c3a52-2d7e-4b7a-9b0e-3f4a5c6d7e8f")
	if got := redisKey(id); got != "noshow:history:6f1c3a52-2d7e-4b7a-9b0e-3f4a5c6d7e8f" {
		t.Errorf("redisKey = %q", got)
	}
}
