package noshow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Appointment records
// ---------------------------------------------------------------------------

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeEvaluation   AppointmentType = "evaluation"
	TypeTreatment    AppointmentType = "treatment"
)

func ParseAppointmentType(s string) (AppointmentType, error) {
	switch t := AppointmentType(s); t {
	case TypeConsultation, TypeFollowUp, TypeEvaluation, TypeTreatment:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAppointmentType, s)
	}
}

// Label returns the display name used in factor descriptions.
func (t AppointmentType) Label() string {
	switch t {
	case TypeConsultation:
		return "consultation"
	case TypeFollowUp:
		return "follow-up"
	case TypeEvaluation:
		return "evaluation"
	case TypeTreatment:
		return "treatment"
	default:
		return string(t)
	}
}

// Outcome is the attendance result attached to an appointment after it takes
// place. The zero value means the outcome is not known yet.
type Outcome string

const (
	OutcomeUnknown   Outcome = ""
	OutcomeCompleted Outcome = "completed"
	OutcomeNoShow    Outcome = "no_show"
	OutcomeCancelled Outcome = "cancelled"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeCompleted, OutcomeNoShow, OutcomeCancelled:
		return o, nil
	default:
		return OutcomeUnknown, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
}

func (o Outcome) Resolved() bool {
	return o != OutcomeUnknown
}

// AppointmentRecord is an immutable booking fact. Outcome is only set on
// historical records.
type AppointmentRecord struct {
	ID          uuid.UUID       `json:"id"`
	PatientID   uuid.UUID       `json:"patient_id"`
	TherapistID uuid.UUID       `json:"therapist_id"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Duration    time.Duration   `json:"duration"`
	Type        AppointmentType `json:"appointment_type"`
	CreatedAt   time.Time       `json:"created_at"`
	Outcome     Outcome         `json:"outcome,omitempty"`
}

// ---------------------------------------------------------------------------
// Calendar buckets
// ---------------------------------------------------------------------------

type TimeSlot string

const (
	SlotEarlyMorning TimeSlot = "early_morning"
	SlotMorning      TimeSlot = "morning"
	SlotLunchTime    TimeSlot = "lunch_time"
	SlotAfternoon    TimeSlot = "afternoon"
	SlotEvening      TimeSlot = "evening"
)

// TimeSlotOf buckets an hour of the day (0-23).
func TimeSlotOf(hour int) TimeSlot {
	switch {
	case hour < 9:
		return SlotEarlyMorning
	case hour < 12:
		return SlotMorning
	case hour < 14:
		return SlotLunchTime
	case hour < 17:
		return SlotAfternoon
	default:
		return SlotEvening
	}
}

func (s TimeSlot) Label() string {
	switch s {
	case SlotEarlyMorning:
		return "early morning"
	case SlotMorning:
		return "morning"
	case SlotLunchTime:
		return "lunch time"
	case SlotAfternoon:
		return "afternoon"
	case SlotEvening:
		return "evening"
	default:
		return string(s)
	}
}

func weekdayName(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "Sunday"
	case time.Monday:
		return "Monday"
	case time.Tuesday:
		return "Tuesday"
	case time.Wednesday:
		return "Wednesday"
	case time.Thursday:
		return "Thursday"
	case time.Friday:
		return "Friday"
	case time.Saturday:
		return "Saturday"
	default:
		return fmt.Sprintf("weekday %d", int(d))
	}
}

// monthIndex maps a time to the 0-11 month key used by history breakdowns.
func monthIndex(t time.Time) int {
	return int(t.Month()) - 1
}

func monthName(idx int) string {
	switch idx {
	case 0:
		return "January"
	case 1:
		return "February"
	case 2:
		return "March"
	case 3:
		return "April"
	case 4:
		return "May"
	case 5:
		return "June"
	case 6:
		return "July"
	case 7:
		return "August"
	case 8:
		return "September"
	case 9:
		return "October"
	case 10:
		return "November"
	case 11:
		return "December"
	default:
		return fmt.Sprintf("month %d", idx)
	}
}

// ---------------------------------------------------------------------------
// Derived artifacts
// ---------------------------------------------------------------------------

// PatientNoShowHistory summarises one patient's resolved appointments.
// MonthlyRates and WeekdayRates only hold keys with a non-zero rate; a missing
// key means zero observed no-shows, not missing data.
type PatientNoShowHistory struct {
	PatientID             uuid.UUID                `json:"patient_id"`
	TotalAppointments     int                      `json:"total_appointments"`
	NoShowCount           int                      `json:"no_show_count"`
	NoShowRate            float64                  `json:"no_show_rate"`
	LastNoShow            *time.Time               `json:"last_no_show,omitempty"`
	AverageAdvanceBooking float64                  `json:"average_advance_booking"`
	PreferredTimeSlots    []TimeSlot               `json:"preferred_time_slots"`
	MonthlyRates          map[int]float64          `json:"monthly_rates"`
	WeekdayRates          map[time.Weekday]float64 `json:"weekday_rates"`
}

func (h PatientNoShowHistory) prefers(slot TimeSlot) bool {
	for _, s := range h.PreferredTimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

type FactorID string

const (
	FactorHistoricalPattern FactorID = "historical_pattern"
	FactorRecentNoShow      FactorID = "recent_no_show"
	FactorAdvanceBooking    FactorID = "advance_booking"
	FactorDayOfWeek         FactorID = "day_of_week"
	FactorTimeSlot          FactorID = "time_slot"
	FactorSeasonalPattern   FactorID = "seasonal_pattern"
	FactorAppointmentType   FactorID = "appointment_type"
)

// factorOrder is the evaluation order and the tie-break order for rankings.
var factorOrder = []FactorID{
	FactorHistoricalPattern,
	FactorRecentNoShow,
	FactorAdvanceBooking,
	FactorDayOfWeek,
	FactorTimeSlot,
	FactorSeasonalPattern,
	FactorAppointmentType,
}

func (f FactorID) Valid() bool {
	return f.rank() >= 0
}

func (f FactorID) rank() int {
	for i, id := range factorOrder {
		if id == f {
			return i
		}
	}
	return -1
}

type RiskFactor struct {
	Factor      FactorID `json:"factor"`
	Impact      float64  `json:"impact"`
	Description string   `json:"description"`
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type NoShowPrediction struct {
	AppointmentID   uuid.UUID    `json:"appointment_id"`
	PatientID       uuid.UUID    `json:"patient_id"`
	RiskScore       float64      `json:"risk_score"`
	RiskLevel       RiskLevel    `json:"risk_level"`
	Factors         []RiskFactor `json:"factors"`
	Recommendations []string     `json:"recommendations"`
	Confidence      float64      `json:"confidence"`
	PredictedAt     time.Time    `json:"predicted_at"`
}

// BatchItem is one slot of a batch result. Exactly one of Prediction and Err
// is set.
type BatchItem struct {
	AppointmentID uuid.UUID         `json:"appointment_id"`
	Prediction    *NoShowPrediction `json:"prediction,omitempty"`
	Err           error             `json:"-"`
}

func (b BatchItem) OK() bool {
	return b.Err == nil && b.Prediction != nil
}

type MonthlyRate struct {
	Month   string  `json:"month"` // YYYY-MM
	Total   int     `json:"total"`
	NoShows int     `json:"no_shows"`
	Rate    float64 `json:"rate"`
}

type FactorStat struct {
	Factor        FactorID `json:"factor"`
	Frequency     int      `json:"frequency"`
	AverageImpact float64  `json:"average_impact"`
	Weight        float64  `json:"weight"`
}

type NoShowAnalytics struct {
	TotalAppointments int                      `json:"total_appointments"`
	TotalNoShows      int                      `json:"total_no_shows"`
	OverallNoShowRate float64                  `json:"overall_no_show_rate"`
	MonthlyTrend      []MonthlyRate            `json:"monthly_trend"`
	TimeSlotRates     map[TimeSlot]float64     `json:"time_slot_rates"`
	WeekdayRates      map[time.Weekday]float64 `json:"weekday_rates"`
	RiskDistribution  map[RiskLevel]int        `json:"risk_distribution"`
	TopRiskFactors    []FactorStat             `json:"top_risk_factors"`
	GeneratedAt       time.Time                `json:"generated_at"`
}
