package noshow

import (
	"fmt"
	"time"
)

// EvaluateFactors computes the risk factors for a candidate appointment.
// Rules without signal for this appointment are left out rather than emitted
// with a zero impact. The output order is fixed.
func EvaluateFactors(appt AppointmentRecord, h PatientNoShowHistory, now time.Time) []RiskFactor {
	factors := make([]RiskFactor, 0, len(factorOrder))

	factors = append(factors, historicalPattern(h))
	factors = append(factors, recentNoShow(h, now))
	factors = append(factors, advanceBooking(appt))
	if f, ok := dayOfWeek(appt, h); ok {
		factors = append(factors, f)
	}
	factors = append(factors, timeSlot(appt, h))
	if f, ok := seasonalPattern(appt, h); ok {
		factors = append(factors, f)
	}
	factors = append(factors, appointmentType(appt))

	return factors
}

func historicalPattern(h PatientNoShowHistory) RiskFactor {
	rate := h.NoShowRate
	var impact float64
	switch {
	case rate == 0:
		impact = -5
	case rate < 0.1:
		impact = -2
	case rate < 0.2:
		impact = 0
	case rate < 0.3:
		impact = 3
	case rate < 0.5:
		impact = 6
	default:
		impact = 10
	}
	return RiskFactor{
		Factor: FactorHistoricalPattern,
		Impact: impact,
		Description: fmt.Sprintf("no-show rate of %s across %d past appointments",
			percent(rate), h.TotalAppointments),
	}
}

func recentNoShow(h PatientNoShowHistory, now time.Time) RiskFactor {
	if h.LastNoShow == nil {
		return RiskFactor{
			Factor:      FactorRecentNoShow,
			Impact:      -2,
			Description: "no previous no-show on record",
		}
	}

	// A no-show recorded on a future-dated appointment counts as today.
	days := max(calendarDays(*h.LastNoShow, now), 0)
	var impact float64
	switch {
	case days < 7:
		impact = 8
	case days < 30:
		impact = 5
	case days < 90:
		impact = 2
	default:
		impact = 0
	}
	return RiskFactor{
		Factor:      FactorRecentNoShow,
		Impact:      impact,
		Description: fmt.Sprintf("last no-show was %d days ago", days),
	}
}

func advanceBooking(appt AppointmentRecord) RiskFactor {
	days := leadTimeDays(appt)
	var (
		impact float64
		desc   string
	)
	switch {
	case days < 1:
		impact, desc = 8, "booked on the same day"
	case days < 3:
		impact, desc = 4, fmt.Sprintf("booked only %d days ahead", days)
	case days > 30:
		impact, desc = 3, fmt.Sprintf("booked %d days ahead, far in advance", days)
	default:
		impact, desc = -1, fmt.Sprintf("booked %d days ahead, within the optimal window", days)
	}
	return RiskFactor{Factor: FactorAdvanceBooking, Impact: impact, Description: desc}
}

func dayOfWeek(appt AppointmentRecord, h PatientNoShowHistory) (RiskFactor, bool) {
	day := appt.ScheduledAt.Weekday()
	rate, ok := h.WeekdayRates[day]
	if !ok {
		return RiskFactor{}, false
	}
	var impact float64
	switch {
	case rate > 0.3:
		impact = 4
	case rate > 0.2:
		impact = 2
	case rate < 0.1:
		impact = -2
	default:
		impact = 0
	}
	return RiskFactor{
		Factor:      FactorDayOfWeek,
		Impact:      impact,
		Description: fmt.Sprintf("%s no-show rate on %ss", percent(rate), weekdayName(day)),
	}, true
}

func timeSlot(appt AppointmentRecord, h PatientNoShowHistory) RiskFactor {
	slot := TimeSlotOf(appt.ScheduledAt.Hour())
	if h.prefers(slot) {
		return RiskFactor{
			Factor:      FactorTimeSlot,
			Impact:      -2,
			Description: fmt.Sprintf("%s is one of the patient's preferred time slots", slot.Label()),
		}
	}
	return RiskFactor{
		Factor:      FactorTimeSlot,
		Impact:      3,
		Description: fmt.Sprintf("%s is outside the patient's preferred time slots", slot.Label()),
	}
}

func seasonalPattern(appt AppointmentRecord, h PatientNoShowHistory) (RiskFactor, bool) {
	month := monthIndex(appt.ScheduledAt)
	rate, ok := h.MonthlyRates[month]
	if !ok {
		return RiskFactor{}, false
	}
	var impact float64
	switch {
	case rate > 0.3:
		impact = 3
	case rate > 0.2:
		impact = 1
	case rate < 0.1:
		impact = -1
	default:
		impact = 0
	}
	return RiskFactor{
		Factor:      FactorSeasonalPattern,
		Impact:      impact,
		Description: fmt.Sprintf("%s no-show rate in %s", percent(rate), monthName(month)),
	}, true
}

func appointmentType(appt AppointmentRecord) RiskFactor {
	var impact float64
	switch appt.Type {
	case TypeConsultation:
		impact = 2
	case TypeFollowUp:
		impact = -1
	case TypeEvaluation:
		impact = 1
	case TypeTreatment:
		impact = 0
	default:
		impact = 0
	}
	return RiskFactor{
		Factor:      FactorAppointmentType,
		Impact:      impact,
		Description: fmt.Sprintf("%s appointment", appt.Type.Label()),
	}
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

// impactOf returns the impact of the first factor with the given id.
func impactOf(factors []RiskFactor, id FactorID) (float64, bool) {
	for _, f := range factors {
		if f.Factor == id {
			return f.Impact, true
		}
	}
	return 0, false
}
