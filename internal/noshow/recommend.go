package noshow

import "github.com/samber/lo"

const (
	RecHighTouchReminder = "send reminder via high-touch channel 24h prior"
	RecCallToConfirm     = "call to confirm attendance"
	RecReschedule        = "consider rescheduling to a preferred slot"
	RecSMSReminder       = "send SMS reminder"
	RecConfirmByPhone    = "confirm by phone if needed"
	RecChronicPattern    = "patient has a chronic no-show pattern and needs special attention"
	RecLastMinuteBooking = "last-minute booking: confirm the patient is still interested"
	RecAlternativeSlot   = "offer an alternative time slot if available"
	RecStandardReminder  = "send standard reminder"
)

// Recommend maps a risk level and its factors to an ordered, duplicate-free,
// non-empty list of actions.
func Recommend(level RiskLevel, factors []RiskFactor) []string {
	var recs []string

	if level == RiskHigh || level == RiskCritical {
		recs = append(recs, RecHighTouchReminder, RecCallToConfirm, RecReschedule)
	}
	if level == RiskMedium || level == RiskHigh {
		recs = append(recs, RecSMSReminder, RecConfirmByPhone)
	}

	if impact, ok := impactOf(factors, FactorHistoricalPattern); ok && impact > 5 {
		recs = append(recs, RecChronicPattern)
	}
	if impact, ok := impactOf(factors, FactorAdvanceBooking); ok && impact > 5 {
		recs = append(recs, RecLastMinuteBooking)
	}
	if impact, ok := impactOf(factors, FactorTimeSlot); ok && impact > 2 {
		recs = append(recs, RecAlternativeSlot)
	}

	if len(recs) == 0 {
		return []string{RecStandardReminder}
	}
	return lo.Uniq(recs)
}
