package noshow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Aggregate builds a patient's no-show profile from their appointment
// records. Records without a resolved outcome are ignored. It is a pure
// function of its input, so concurrent callers always agree on the result.
func Aggregate(patientID uuid.UUID, records []AppointmentRecord) PatientNoShowHistory {
	h := PatientNoShowHistory{
		PatientID:             patientID,
		AverageAdvanceBooking: DefaultLeadTimeDays,
		PreferredTimeSlots:    append([]TimeSlot(nil), DefaultPreferredTimeSlots...),
		MonthlyRates:          map[int]float64{},
		WeekdayRates:          map[time.Weekday]float64{},
	}

	var (
		leadSum     int
		slotCounts  = map[TimeSlot]int{}
		slotSeen    []TimeSlot
		monthTotals = map[int]int{}
		monthMisses = map[int]int{}
		dayTotals   = map[time.Weekday]int{}
		dayMisses   = map[time.Weekday]int{}
	)

	for _, r := range records {
		if !r.Outcome.Resolved() {
			continue
		}
		h.TotalAppointments++
		leadSum += leadTimeDays(r)

		slot := TimeSlotOf(r.ScheduledAt.Hour())
		if slotCounts[slot] == 0 {
			slotSeen = append(slotSeen, slot)
		}
		slotCounts[slot]++

		month := monthIndex(r.ScheduledAt)
		day := r.ScheduledAt.Weekday()
		monthTotals[month]++
		dayTotals[day]++

		if r.Outcome == OutcomeNoShow {
			h.NoShowCount++
			monthMisses[month]++
			dayMisses[day]++
			if h.LastNoShow == nil || r.ScheduledAt.After(*h.LastNoShow) {
				at := r.ScheduledAt
				h.LastNoShow = &at
			}
		}
	}

	if h.TotalAppointments == 0 {
		return h
	}

	h.NoShowRate = clamp(float64(h.NoShowCount)/float64(h.TotalAppointments), 0, 1)
	h.AverageAdvanceBooking = float64(leadSum) / float64(h.TotalAppointments)
	h.PreferredTimeSlots = topSlots(slotSeen, slotCounts, preferredSlotCount)

	for month, total := range monthTotals {
		if rate := float64(monthMisses[month]) / float64(total); rate > 0 {
			h.MonthlyRates[month] = clamp(rate, 0, 1)
		}
	}
	for day, total := range dayTotals {
		if rate := float64(dayMisses[day]) / float64(total); rate > 0 {
			h.WeekdayRates[day] = clamp(rate, 0, 1)
		}
	}

	return h
}

// topSlots returns the n most frequent slots; ties keep first-seen order.
func topSlots(seen []TimeSlot, counts map[TimeSlot]int, n int) []TimeSlot {
	ranked := append([]TimeSlot(nil), seen...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// leadTimeDays is the number of calendar days between booking and the
// appointment, falling back to DefaultLeadTimeDays when that is unknown or
// negative.
func leadTimeDays(r AppointmentRecord) int {
	if r.CreatedAt.IsZero() {
		return DefaultLeadTimeDays
	}
	d := calendarDays(r.CreatedAt, r.ScheduledAt)
	if d < 0 {
		return DefaultLeadTimeDays
	}
	return d
}

// calendarDays counts midnights between from and to, evaluated in to's
// location.
func calendarDays(from, to time.Time) int {
	f := from.In(to.Location())
	fy, fm, fd := f.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ---------------------------------------------------------------------------
// Cached aggregation
// ---------------------------------------------------------------------------

// HistoryAggregator resolves patient histories through a HistoryCache. It
// never invalidates on its own; writers to a patient's outcome history must
// call Invalidate.
type HistoryAggregator struct {
	store  Store
	cache  HistoryCache
	logger *slog.Logger
}

func NewHistoryAggregator(store Store, cache HistoryCache, logger *slog.Logger) *HistoryAggregator {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryAggregator{store: store, cache: cache, logger: logger}
}

func (a *HistoryAggregator) Get(ctx context.Context, patientID uuid.UUID) (PatientNoShowHistory, error) {
	h, found, err := a.cache.Get(ctx, patientID)
	if err != nil {
		a.logger.WarnContext(ctx, "history cache read failed", "patient_id", patientID, "err", err)
	} else if found {
		return h, nil
	}

	exists, err := a.store.PatientExists(ctx, patientID)
	if err != nil {
		return PatientNoShowHistory{}, fmt.Errorf("lookup patient: %w", err)
	}
	if !exists {
		return PatientNoShowHistory{}, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}

	records, err := a.store.PatientAppointments(ctx, patientID)
	if err != nil {
		return PatientNoShowHistory{}, fmt.Errorf("load patient appointments: %w", err)
	}

	h = Aggregate(patientID, records)
	if err := a.cache.Set(ctx, h); err != nil {
		a.logger.WarnContext(ctx, "history cache write failed", "patient_id", patientID, "err", err)
	}
	return h, nil
}

func (a *HistoryAggregator) Invalidate(ctx context.Context, patientID uuid.UUID) error {
	if err := a.cache.Invalidate(ctx, patientID); err != nil {
		return fmt.Errorf("invalidate history: %w", err)
	}
	return nil
}
