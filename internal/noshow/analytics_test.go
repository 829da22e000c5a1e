package noshow

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBuildAnalytics_Empty(t *testing.T) {
	now := at("2026-06-02T08:00:00Z")
	a := BuildAnalytics(nil, now)

	if a.TotalAppointments != 0 || a.TotalNoShows != 0 || a.OverallNoShowRate != 0 {
		t.Errorf("totals = %d/%d/%v, want zeros", a.TotalAppointments, a.TotalNoShows, a.OverallNoShowRate)
	}
	if a.MonthlyTrend == nil || a.TopRiskFactors == nil {
		t.Error("slices should be empty, not nil")
	}
	if len(a.RiskDistribution) != 4 {
		t.Errorf("RiskDistribution has %d levels, want 4", len(a.RiskDistribution))
	}
	if !a.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", a.GeneratedAt, now)
	}
}

func TestBuildAnalytics_Corpus(t *testing.T) {
	now := at("2026-06-02T08:00:00Z")
	p1, p2 := uuid.New(), uuid.New()
	records := []AppointmentRecord{
		rec(p1, "2026-04-06T10:00:00Z", "2026-04-01T10:00:00Z", OutcomeNoShow),    // Mon morning
		rec(p1, "2026-04-07T15:00:00Z", "2026-04-01T10:00:00Z", OutcomeCompleted), // Tue afternoon
		rec(p1, "2026-05-04T10:00:00Z", "2026-05-04T07:00:00Z", OutcomeNoShow),    // Mon morning
		rec(p2, "2026-05-05T10:00:00Z", "2026-04-20T10:00:00Z", OutcomeCompleted), // Tue morning
		rec(p2, "2026-05-12T18:00:00Z", "2026-05-01T10:00:00Z", OutcomeCancelled), // Tue evening
		rec(p2, "2026-04-13T10:00:00Z", "2026-04-10T10:00:00Z", OutcomeCompleted), // Mon morning
		rec(p2, "2026-05-18T10:00:00Z", "2026-05-11T10:00:00Z", OutcomeNoShow),    // Mon morning
		rec(p2, "2026-06-10T10:00:00Z", "2026-06-01T10:00:00Z", OutcomeUnknown),   // not counted
	}

	a := BuildAnalytics(records, now)

	if a.TotalAppointments != 7 || a.TotalNoShows != 3 {
		t.Fatalf("totals = %d/%d, want 7/3", a.TotalAppointments, a.TotalNoShows)
	}
	if a.OverallNoShowRate != 3.0/7.0 {
		t.Errorf("OverallNoShowRate = %v, want exactly 3/7", a.OverallNoShowRate)
	}

	if len(a.MonthlyTrend) != 2 {
		t.Fatalf("MonthlyTrend = %+v, want two months", a.MonthlyTrend)
	}
	apr, may := a.MonthlyTrend[0], a.MonthlyTrend[1]
	if apr.Month != "2026-04" || apr.Total != 3 || apr.NoShows != 1 {
		t.Errorf("April = %+v", apr)
	}
	if may.Month != "2026-05" || may.Total != 4 || may.NoShows != 2 || may.Rate != 0.5 {
		t.Errorf("May = %+v", may)
	}

	if got := a.TimeSlotRates[SlotMorning]; got != 0.6 {
		t.Errorf("morning rate = %v, want 0.6", got)
	}
	if got := a.TimeSlotRates[SlotEvening]; got != 0 {
		t.Errorf("evening rate = %v, want 0", got)
	}
	if got := a.WeekdayRates[time.Monday]; got != 0.75 {
		t.Errorf("Monday rate = %v, want 0.75", got)
	}
	if got := a.WeekdayRates[time.Tuesday]; got != 0 {
		t.Errorf("Tuesday rate = %v, want 0", got)
	}

	var scored int
	for _, n := range a.RiskDistribution {
		scored += n
	}
	if scored != a.TotalAppointments {
		t.Errorf("RiskDistribution covers %d appointments, want %d", scored, a.TotalAppointments)
	}

	if len(a.TopRiskFactors) == 0 || len(a.TopRiskFactors) > TopFactorLimit {
		t.Fatalf("TopRiskFactors has %d entries", len(a.TopRiskFactors))
	}
	for i := 1; i < len(a.TopRiskFactors); i++ {
		if a.TopRiskFactors[i-1].Weight < a.TopRiskFactors[i].Weight {
			t.Errorf("TopRiskFactors not sorted by weight: %+v", a.TopRiskFactors)
		}
	}
}

func TestRankFactors(t *testing.T) {
	acc := map[FactorID]*factorAccumulator{
		FactorHistoricalPattern: {count: 4, sum: 24}, // weight 24
		FactorRecentNoShow:      {count: 2, sum: 16}, // weight 16
		FactorAdvanceBooking:    {count: 4, sum: -4}, // weight -4
		FactorTimeSlot:          {count: 2, sum: 16}, // weight 16, ties with recent
		FactorAppointmentType:   {count: 1, sum: 2},  // weight 2
		FactorDayOfWeek:         {count: 3, sum: -6}, // weight -6
		FactorSeasonalPattern:   {count: 0, sum: 0},  // skipped
	}

	got := rankFactors(acc, TopFactorLimit)
	want := []FactorID{FactorHistoricalPattern, FactorRecentNoShow, FactorTimeSlot, FactorAppointmentType, FactorAdvanceBooking}
	if len(got) != len(want) {
		t.Fatalf("rankFactors returned %d entries, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].Factor != id {
			t.Errorf("rank %d = %s, want %s", i, got[i].Factor, id)
		}
	}
	if got[0].AverageImpact != 6 || got[0].Frequency != 4 {
		t.Errorf("historical stat = %+v", got[0])
	}
}
