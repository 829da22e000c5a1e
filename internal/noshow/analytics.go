package noshow

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type rateCounter struct {
	total   int
	noShows int
}

func (c *rateCounter) add(r AppointmentRecord) {
	c.total++
	if r.Outcome == OutcomeNoShow {
		c.noShows++
	}
}

func (c rateCounter) rate() float64 {
	if c.total == 0 {
		return 0
	}
	return float64(c.noShows) / float64(c.total)
}

func bucket[K comparable](m map[K]*rateCounter, k K) *rateCounter {
	c, ok := m[k]
	if !ok {
		c = &rateCounter{}
		m[k] = c
	}
	return c
}

type factorAccumulator struct {
	count int
	sum   float64
}

// BuildAnalytics computes the population rollup over every resolved record.
// The risk distribution re-scores each historical appointment against its
// patient's history as of now; it is a calibration view, not a per-visit
// decision.
func BuildAnalytics(records []AppointmentRecord, now time.Time) NoShowAnalytics {
	a := NoShowAnalytics{
		TimeSlotRates: map[TimeSlot]float64{},
		WeekdayRates:  map[time.Weekday]float64{},
		RiskDistribution: map[RiskLevel]int{
			RiskLow:      0,
			RiskMedium:   0,
			RiskHigh:     0,
			RiskCritical: 0,
		},
		MonthlyTrend:   []MonthlyRate{},
		TopRiskFactors: []FactorStat{},
		GeneratedAt:    now,
	}

	var (
		overall   rateCounter
		byMonth   = map[string]*rateCounter{}
		bySlot    = map[TimeSlot]*rateCounter{}
		byDay     = map[time.Weekday]*rateCounter{}
		byPatient = map[uuid.UUID][]AppointmentRecord{}
		resolved  = make([]AppointmentRecord, 0, len(records))
	)

	for _, r := range records {
		if !r.Outcome.Resolved() {
			continue
		}
		resolved = append(resolved, r)
		overall.add(r)

		bucket(byMonth, r.ScheduledAt.Format("2006-01")).add(r)
		bucket(bySlot, TimeSlotOf(r.ScheduledAt.Hour())).add(r)
		bucket(byDay, r.ScheduledAt.Weekday()).add(r)

		byPatient[r.PatientID] = append(byPatient[r.PatientID], r)
	}

	a.TotalAppointments = overall.total
	a.TotalNoShows = overall.noShows
	a.OverallNoShowRate = overall.rate()

	months := lo.Keys(byMonth)
	sort.Strings(months)
	for _, m := range months {
		c := byMonth[m]
		a.MonthlyTrend = append(a.MonthlyTrend, MonthlyRate{
			Month:   m,
			Total:   c.total,
			NoShows: c.noShows,
			Rate:    c.rate(),
		})
	}
	for slot, c := range bySlot {
		a.TimeSlotRates[slot] = c.rate()
	}
	for day, c := range byDay {
		a.WeekdayRates[day] = c.rate()
	}

	histories := make(map[uuid.UUID]PatientNoShowHistory, len(byPatient))
	for pid, recs := range byPatient {
		histories[pid] = Aggregate(pid, recs)
	}

	acc := map[FactorID]*factorAccumulator{}
	for _, r := range resolved {
		factors := EvaluateFactors(r, histories[r.PatientID], now)
		a.RiskDistribution[ScoreFactors(factors).Level]++
		for _, f := range factors {
			if acc[f.Factor] == nil {
				acc[f.Factor] = &factorAccumulator{}
			}
			acc[f.Factor].count++
			acc[f.Factor].sum += f.Impact
		}
	}

	a.TopRiskFactors = rankFactors(acc, TopFactorLimit)
	return a
}

// rankFactors orders factors by frequency times average impact, highest
// first. Ties keep evaluation order.
func rankFactors(acc map[FactorID]*factorAccumulator, limit int) []FactorStat {
	stats := make([]FactorStat, 0, len(acc))
	for _, id := range factorOrder {
		fa, ok := acc[id]
		if !ok || fa.count == 0 {
			continue
		}
		avg := fa.sum / float64(fa.count)
		stats = append(stats, FactorStat{
			Factor:        id,
			Frequency:     fa.count,
			AverageImpact: avg,
			Weight:        float64(fa.count) * avg,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Weight > stats[j].Weight
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
